// Package permissions defines the static vocabulary used by authorization:
// ordered permission levels, the closed set of actor roles, their trust
// tiers, and role/level requirement lists.
//
// The package performs no I/O.
//
// # Permission Levels
//
// Levels are totally ordered Read < Write < ReadWrite. A grant satisfies a
// requirement when its level is at least the required one:
//
//	permissions.Write.Satisfies(permissions.Read)      // true
//	permissions.Read.Satisfies(permissions.Write)      // false
//	permissions.ReadWrite.Satisfies(permissions.Write) // true
//
// # Requirements
//
// Use cases declare what they need as data:
//
//	reqs := permissions.Requirements{
//		{Role: permissions.TenantManager, Level: permissions.Write},
//		{Role: permissions.SubscriptionsManager, Level: permissions.Write},
//	}
//
// or with a shared level:
//
//	reqs := permissions.WithLevel(permissions.Read, permissions.TenantOwner, permissions.TenantManager)
package permissions
