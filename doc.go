// Package authcore provides the authentication and one-time-passcode core for
// an educational platform: login with email step-up MFA, OTP-verified
// registration, two-phase password reset, and authenticated password change,
// all backed by a Redis OTP ledger and Argon2id password hashing.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (LoginResult, OTPChallengeInfo, AuditEvent, MetricsSnapshot). Credential storage is the
// caller's responsibility via [UserProvider]; outbound mail via [Notifier]; audit delivery
// via [AuditSink]. The Redis OTP ledger and its record encoding are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, ledger keys, or encoding details in its public API.
//   - Issue session or access tokens; authentication results carry no token.
//   - Block a primary flow on audit delivery — audit emission is best-effort.
//
// # Performance contract
//
// Issue and verify are the hot paths. Each is allowed a bounded number of Redis
// round-trips per call (one for cooldown and ledger writes on issue, one
// optimistic transaction on verify). The Notifier call is the only
// network-bound external dependency on the issue path.
package authcore
