package server

import (
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	defaultWriteTimeout = 10 * time.Second

	// writeMargin leaves room to write the error of an invocation that ran
	// into its own timeout.
	writeMargin = 5 * time.Second
)

// New creates an HTTP server for the router. The write timeout covers a whole
// synchronous invocation bounded by invocationTimeout; zero keeps the default.
func New(addr string, router *ginext.Engine, invocationTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      WriteTimeout(invocationTimeout),
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// WriteTimeout returns the response write deadline for invocations bounded
// by invocationTimeout.
func WriteTimeout(invocationTimeout time.Duration) time.Duration {
	if invocationTimeout <= 0 {
		return defaultWriteTimeout
	}
	return invocationTimeout + writeMargin
}
