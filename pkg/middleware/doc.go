// Package middleware resolves the calling Profile for each HTTP request.
//
// Authentication happens upstream: a gateway verifies the caller and forwards
// their email in an identity header. ProfileMiddleware loads the matching
// Profile (through the Redis-backed profile.Loader) and stores it in the
// request context, where handlers read it with profile.FromContext.
package middleware
