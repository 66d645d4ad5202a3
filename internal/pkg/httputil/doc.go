// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Every handler should use these helpers instead of writing raw
// http.ResponseWriter calls. This keeps JSON formatting, the error envelope
// and error-to-status mapping consistent across endpoints.
package httputil
