// Package tenants holds the tenant use cases: owners edit their tenant,
// managers and staff page through all of them.
package tenants
