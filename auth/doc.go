// Package auth implements accounts, secrets and sessions for blogbox.
//
// Secrets are never stored. A submitted secret is first mixed with a
// server-side pepper using HMAC-SHA256 and then stretched with Argon2id
// using a random per-account salt. Only the encoded Argon2id output reaches
// the journal, so a copy of the database alone is not enough to start an
// offline guessing attack.
//
// Sessions are opaque random tokens handed to the browser as a cookie. The
// server keeps the token, the account it belongs to and when it expires.
// Expiry is passive: stores report expired tokens as missing and the request
// is treated as anonymous.
//
// Validation and persistence are separate steps. ValidateRegistration and
// ValidateLogin never write anything; Register and StartSession do.
package auth
