// Package auth provides authentication for Roomcall Core.
//
// It implements the account and session primitives behind the HTTP API:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Registration password policy (letters + digits, minimum length 8)
//   - Stateless JWT access/refresh token pairs (HS256)
//   - SQLite-backed user accounts
//
// Tokens are bearer credentials: the server keeps no session table, so a
// token is valid purely as a function of its signature and expiry. Logout
// is client-side cookie deletion; an already-captured token stays usable
// until its natural expiry.
package auth
