// Package auth provides authentication and authorisation for the portal.
//
// It implements a two-role model (student, faculty) with:
//   - Argon2id password hashing, with bcrypt verification for imported digests
//   - Opaque server-side sessions (SQLite or Redis), keyed by SHA-256 of the
//     cookie token so a leaked database cannot be replayed
//   - Per-portal login: a correct password at the wrong role's login page is
//     reported as WrongPortal, never as a successful login
//   - Static role-permission mapping (compile-time, no database lookup)
//
// Identity resolution is fail-closed: any failure to load a session or its
// user yields the anonymous identity.
package auth
