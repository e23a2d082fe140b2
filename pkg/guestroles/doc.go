// Package guestroles manages the named roles guests are invited under.
//
// A role pairs a unique name (and its slug) with a permission level. Roles
// are global: any verified guest-manager grant, on any tenant, may manage
// them. Creation is get-or-create keyed by name.
package guestroles
