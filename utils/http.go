package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient returns a client for outbound calls with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
