// Package httputil provides HTTP handler utilities for consistent error handling,
// JSON encoding/decoding, and request parsing.
//
// All error responses are JSON bodies of the form {"message": "..."} so that
// clients only need the HTTP status code plus a human-readable message.
package httputil
