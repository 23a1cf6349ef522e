// Package catalog holds the fixed table of versions every source is rendered to.
package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/aliskhannn/image-versioner/internal/model"
)

// table is the validation envelope for a list of versions.
type table struct {
	Versions []model.VersionSpec `validate:"required,min=1,unique=Name,dive"`
}

// Catalog is a validated, read-only list of versions.
type Catalog struct {
	versions []model.VersionSpec
}

// New validates the given versions and returns a catalog holding a private copy.
// The list must be non-empty, names must be unique and free of "/", and
// dimensions must be positive.
func New(versions []model.VersionSpec) (*Catalog, error) {
	if err := validator.New().Struct(table{Versions: versions}); err != nil {
		return nil, fmt.Errorf("invalid version catalog: %w", err)
	}

	return &Catalog{versions: clone(versions)}, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{versions: DefaultVersions()}
}

// DefaultVersions returns the built-in version table.
func DefaultVersions() []model.VersionSpec {
	return []model.VersionSpec{
		{Name: "thumb", Width: 100, Height: intPtr(100)},
		{Name: "web", Width: 225},
		{Name: "web_mobile", Width: 280},
		{Name: "ldpi", Width: 290},
		{Name: "mdpi", Width: 420},
		{Name: "hdpi", Width: 520},
		{Name: "xhdpi", Width: 630},
		{Name: "xxhdpi", Width: 1062},
	}
}

// Versions returns a copy of the catalog entries in declaration order.
func (c *Catalog) Versions() []model.VersionSpec {
	return clone(c.versions)
}

// Len returns the number of versions.
func (c *Catalog) Len() int {
	return len(c.versions)
}

// Names returns the version names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.versions))
	for _, v := range c.versions {
		names = append(names, v.Name)
	}
	return names
}

func clone(in []model.VersionSpec) []model.VersionSpec {
	out := make([]model.VersionSpec, len(in))
	for i, v := range in {
		out[i] = v
		if v.Height != nil {
			out[i].Height = intPtr(*v.Height)
		}
	}
	return out
}

func intPtr(v int) *int { return &v }
