// Usage:
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.LoggingMiddleware,
//	)(router)
//
// Handlers report use case failures with WriteDomainError, which answers
// 401 for a missing caller, 403 for any other authorization denial, 404 for
// storage.ErrNotFound, 409 for storage.ErrConflict, 400 for
// storage.ErrInvalidInput and 500 otherwise.
package httputil
