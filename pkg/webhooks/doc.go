// Package webhooks propagates domain events to externally registered HTTP endpoints.
//
// # Model
//
// A WebHook subscribes one URL to one Trigger. Each trigger maps to an HTTP
// verb: creations and invitations POST, updates PUT, deletions and
// uninvitations DELETE. A hook may carry a Secret, either an
// AuthorizationHeader or a QueryParameter. Its token is stored encrypted with
// a secrets.Codec and is only opened inside the Dispatcher. Every hook handed
// back by Service is redacted first.
//
// # Dispatch
//
//	dispatcher := webhooks.NewDispatcher(repo, codec, webhooks.DefaultDispatcherConfig(),
//		webhooks.WithLogger(logger),
//		webhooks.WithMetrics(metrics),
//	)
//	res := webhooks.Dispatch(ctx, dispatcher, webhooks.TriggerCreateSubscriptionAccount, account)
//
// Dispatch calls every active hook for the trigger concurrently and waits for
// all of them. It never returns an error: a hook that cannot be reached, whose
// secret cannot be decrypted, or whose call panics is reported as
// {url: "", status: 500, body: "error on connect"}. Propagations is nil when no
// hook is subscribed or the hooks could not be listed.
//
// # Storage
//
// PostgresRepository keeps hooks in the webhooks table with the secret in a
// JSONB column. CachedRepository fronts any Repository with an expiring LRU of
// per-trigger hook lists. MemoryRepository serves tests.
package webhooks
