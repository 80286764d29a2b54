package common

// RequestIDHeaderName carries the per-request correlation id on HTTP
// requests and responses.
const RequestIDHeaderName = "X-Request-Id"

// AdminTokenHeaderName carries the shared admin token for administrative
// endpoints (user upsert, backfill).
const AdminTokenHeaderName = "X-Admin-Token"

// DefaultCurrency is used for gateway orders when none is configured.
const DefaultCurrency = "INR"
