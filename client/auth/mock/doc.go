// Package mock provides an httptest backed API server that issues and
// rotates credential pairs and guards protected resources with them. It
// lets tests drive the authenticated pipeline through expiry, refresh and
// revoked sessions without a real backend.
package mock
