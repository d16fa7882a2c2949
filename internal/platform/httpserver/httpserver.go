// Package httpserver centralizes the HTTP server construction so every
// deployment gets the same timeout posture.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server. Write timeout is generous because donation requests
// block on the price feed and value transfers.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
