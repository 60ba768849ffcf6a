package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes caps admin content payloads at 1 MiB; the largest
// expected body is a blog post or event description.
const DefaultMaxBodyBytes = 1 << 20

// ContactMaxBodyBytes caps public contact form submissions at 16 KiB.
const ContactMaxBodyBytes = 16 << 10

// MaxBytes limits the request body size. Bodies over the cap get
// 413 Request Entity Too Large from the first read inside the handler.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
