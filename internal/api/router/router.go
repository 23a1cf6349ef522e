package router

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-versioner/internal/api/handlers/derivative"
)

// Setup registers the health check and the derivative API on a new engine
// with request logging and panic recovery.
func Setup(h *derivative.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	r.GET("/healthz", func(c *ginext.Context) {
		c.Status(http.StatusOK)
	})

	api := r.Group("/api")

	api.POST("/derivatives", h.Generate) // generating derivatives of a stored source
	api.GET("/versions", h.Versions)     // listing the version catalog

	return r
}
