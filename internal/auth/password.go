package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. Both organization and branch passwords go
// through the same KDF, so login cost is uniform across subject kinds.
const (
	kdfIterations  = 3
	kdfMemoryKiB   = 64 * 1024 // 64 MiB
	kdfParallelism = 1
	kdfKeyLen      = 32
	kdfSaltLen     = 16
)

// HashPassword derives an Argon2id hash for an organization or branch
// password and encodes it as a PHC string
// ($argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>), the form stored in
// the tenant tables.
func HashPassword(password string) (string, error) {
	salt := make([]byte, kdfSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, kdfIterations, kdfMemoryKiB, kdfParallelism, kdfKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		kdfMemoryKiB, kdfIterations, kdfParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword re-derives the candidate password with the parameters
// encoded in the stored PHC string and compares in constant time. The
// stored parameters win over the package constants, so hashes survive a
// future cost bump.
func VerifyPassword(password, stored string) (bool, error) {
	ph, err := parsePHC(stored)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), ph.salt, ph.iterations, ph.memoryKiB, ph.parallelism, uint32(len(ph.key))) //nolint:gosec // G115: key length always fits uint32

	return subtle.ConstantTimeCompare(ph.key, candidate) == 1, nil
}

// phcHash is one decoded PHC credential string.
type phcHash struct {
	iterations  uint32
	memoryKiB   uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// parsePHC splits a $-delimited Argon2id PHC string into its fields.
// Only argon2id is accepted; anything else in the store is a bug.
func parsePHC(stored string) (*phcHash, error) {
	fields := strings.Split(stored, "$")
	if len(fields) != 6 { //nolint:mnd // PHC strings have exactly 6 $-delimited fields
		return nil, fmt.Errorf("malformed credential hash")
	}
	if fields[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported credential algorithm %q", fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return nil, fmt.Errorf("parsing hash version: %w", err)
	}

	var ph phcHash
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &ph.memoryKiB, &ph.iterations, &ph.parallelism); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return nil, fmt.Errorf("parsing hash parameters: %w", err)
	}

	var err error
	if ph.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return nil, fmt.Errorf("decoding salt: %w", err)
	}
	if ph.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return nil, fmt.Errorf("decoding hash: %w", err)
	}

	return &ph, nil
}
