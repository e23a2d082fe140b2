// Package storage holds the persistence plumbing shared by the domain stores:
// typed lookup errors, backend configuration, and (in pkg/storage/postgres)
// the Postgres connection manager, schema migrations, and the Redis client.
//
// # Errors
//
// Stores wrap their failures so callers can branch without knowing the backend:
//
//	hook, err := repo.Get(ctx, id)
//	if errors.Is(err, storage.ErrNotFound) {
//		// 404
//	}
//
// NotFoundError carries the resource kind and id and matches ErrNotFound.
//
// # Query Safety
//
// Every store builds SQL with positional parameters ($1, $2, ...). Filter
// values, including role and account id lists, are bound with pq.Array and
// never interpolated into query text.
package storage
