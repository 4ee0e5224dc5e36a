// Package auth implements credential verification and the JWT token
// lifecycle for organizations and branches.
//
// Both subject kinds authenticate with a slug + password pair and
// receive an access/refresh token pair. Tokens are HS256 JWTs carrying
// the subject kind, the subject slug, and a unique token ID (jti).
// Refresh tokens are single-use: consuming one blacklists its jti and
// issues a fresh pair for the same subject. Logout blacklists the
// refresh token only; outstanding access tokens ride out their TTL.
//
// Passwords are hashed with Argon2id and stored in PHC string format.
// Credential failures are deliberately indistinguishable: an unknown
// slug and a wrong password both return ErrInvalidCredentials, and the
// unknown-slug path still burns one KDF run against a decoy hash.
package auth
