// ABOUTME: Package identity resolves who is making a request and signs users in with GitHub
// ABOUTME: Session tokens are HS256 JWTs; provider tokens live in the store

// Package identity provides the two identity operations the bootstrap flow
// consumes: resolving the current credential and interactive sign-in.
//
// # Credentials
//
// A Credential is the signed-in user plus the provider access tokens that
// were stored for them. A session token whose user has no stored GitHub token
// resolves to no credential: the user is treated as logged out.
//
// # Sign-in
//
// Interactive sign-in is the OAuth authorization-code exchange. The browser
// completes the GitHub popup and hands the resulting code to the gateway.
// Failures are returned as *SignInError carrying a provider code:
//
//   - popup-closed-by-user: no code, or the user denied access
//   - network-request-failed: the exchange or user lookup never got a response
//   - internal-error: anything else
//
// # Context
//
// WithCredential and FromContext carry the resolved credential through HTTP
// handlers, and RequireCredential is the middleware that populates it.
package identity
