// Package auth provides the passwordless, email-based authentication core of
// the Crittr API: single-use sign-in tokens ("magic links"), first-touch user
// provisioning, and the admin-grant check that gates privileged operations.
//
// The flow is the following:
//
//  1. A user provides their email. RequestMagicLinkHandler stores a single-use
//     SignInToken and hands the magic link to the Mailer collaborator.
//  2. The user follows the link; VerifyMagicLinkHandler consumes the token
//     with an atomic check-and-mark, so exactly one of any number of
//     concurrent redemptions succeeds.
//  3. On success the verified email is resolved to a User (created on first
//     sign-in), and the HTTP controller mints a short-lived session token.
//
// Privileged callers are vetted separately: PrivilegeVerifier checks the
// email-keyed admin allow-list and records an audit trail (last access,
// access count) as part of the same atomic update, failing closed when the
// audit write cannot be committed.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the command
//     handlers and the privilege verifier to describe sign-in and admin
//     access events. Sinks run best-effort (errors are logged) so you can
//     forward to a database or queue without blocking authentication.
package auth
