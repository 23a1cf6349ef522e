package derivative

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/api/respond"
	"github.com/aliskhannn/image-versioner/internal/model"
)

// service defines the interface for generating derivatives of one source.
type service interface {
	Process(ctx context.Context, bucket, key string) (model.Result, error)
}

// catalog defines the interface for reading the version catalog.
type catalog interface {
	Versions() []model.VersionSpec
}

// Handler provides HTTP handlers for derivative-related endpoints.
type Handler struct {
	service       service
	catalog       catalog
	defaultBucket string
}

// NewHandler creates a new Handler. Requests without a bucket use defaultBucket.
func NewHandler(s service, c catalog, defaultBucket string) *Handler {
	return &Handler{service: s, catalog: c, defaultBucket: defaultBucket}
}

// GenerateRequest names the stored source to derive versions from.
type GenerateRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Generate runs one invocation synchronously and responds with its result.
func (h *Handler) Generate(c *ginext.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Logger.Err(err).Msg("failed to decode request")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if req.Bucket == "" {
		req.Bucket = h.defaultBucket
	}
	if req.Bucket == "" || req.Key == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("bucket and key are required"))
		return
	}

	res, err := h.service.Process(c.Request.Context(), req.Bucket, req.Key)
	if err != nil {
		status := statusFor(err)
		zlog.Logger.Err(err).
			Str("bucket", req.Bucket).
			Str("key", req.Key).
			Int("status", status).
			Msg("failed to generate derivatives")
		respond.Fail(c, status, err)
		return
	}

	respond.OK(c, res)
}

// Versions lists the version catalog.
func (h *Handler) Versions(c *ginext.Context) {
	respond.OK(c, h.catalog.Versions())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrDerivedSource):
		return http.StatusConflict
	case errors.Is(err, model.ErrSourceFetch):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, model.ErrIdentify), errors.Is(err, model.ErrInvalidMetadata):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
