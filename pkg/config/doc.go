// Package config loads process configuration.
//
// Values start from Default, are overlaid by the YAML file named in
// TENANCY_CONFIG_FILE when set, and finally by TENANCY_* environment
// variables. Environment always wins.
//
// Server settings:
//
//	TENANCY_HOST="0.0.0.0"
//	TENANCY_PORT="8080"
//	TENANCY_HEALTH_PORT="9090"
//	TENANCY_IDENTITY_HEADER="X-Tenancy-Email"
//
// Storage settings:
//
//	TENANCY_POSTGRES_URL="postgres://tenancy@localhost/tenancy?sslmode=disable"
//	TENANCY_POSTGRES_REPLICA_URLS="postgres://replica1/...,postgres://replica2/..."
//	TENANCY_REDIS_URL="redis://localhost:6379/0"   # empty disables the profile cache
//	TENANCY_PROFILE_CACHE_TTL="2m"
//
// Webhook settings:
//
//	TENANCY_ENCRYPTION_KEY="<32 bytes, raw or base64>"
//	TENANCY_WEBHOOK_TIMEOUT="10s"
//	TENANCY_WEBHOOK_DEADLINE="30s"                 # 0 disables the overall deadline
//	TENANCY_WEBHOOK_MAX_CONCURRENCY="16"           # 0 means unbounded
//	TENANCY_PROPAGATION_LOG_RETENTION="24h"
//
// The same keys in YAML:
//
//	server:
//	  port: "8080"
//	storage:
//	  postgres_url: postgres://tenancy@localhost/tenancy
//	webhooks:
//	  request_timeout: 10s
//	  max_concurrency: 16
package config
