// Package transport implements the authenticated request pipeline as an
// http.RoundTripper.
//
// Every outbound request carries the stored access credential as a bearer
// Authorization header. A 401 Unauthorized response on a request that was not
// retried yet is handed to the refresh coordinator; once fresh credentials are
// stored the request is replayed exactly once. Any other outcome, including a
// second 401, is returned to the caller unchanged.
package transport
