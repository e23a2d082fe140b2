// Package accounts implements the account use cases that run through the
// authorization engine and, on success, propagate to registered webhooks.
//
// Scoped checks hand their RelatedAccounts to the repository so that an
// account outside the caller's grants is indistinguishable from a missing one.
package accounts
