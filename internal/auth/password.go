package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusvoice/portal/internal/infrastructure/config"
)

// Argon2id defaults, OWASP 2025 recommendation.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

// PasswordHasher hashes and verifies credentials.
//
// New digests are Argon2id in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
// Verify also accepts bcrypt digests ($2a$, $2b$, $2y$) carried over from
// accounts created before the switch to Argon2id.
type PasswordHasher struct {
	time    uint32
	memory  uint32
	threads uint8
}

// NewPasswordHasher builds a hasher from configured cost parameters.
// Zero values fall back to the defaults.
func NewPasswordHasher(cfg config.PasswordConfig) *PasswordHasher {
	h := DefaultPasswordHasher()
	if cfg.Iterations > 0 {
		h.time = uint32(cfg.Iterations) //nolint:gosec // G115: validated positive by config
	}
	if cfg.MemoryKiB > 0 {
		h.memory = uint32(cfg.MemoryKiB) //nolint:gosec // G115: validated positive by config
	}
	if cfg.Threads > 0 {
		h.threads = uint8(cfg.Threads) //nolint:gosec // G115: small config value
	}
	return h
}

// DefaultPasswordHasher returns a hasher with the default Argon2id parameters.
func DefaultPasswordHasher() *PasswordHasher {
	return &PasswordHasher{time: argonTime, memory: argonMemory, threads: argonThreads}
}

// Hash returns a salted Argon2id digest of plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(plaintext), salt, h.time, h.memory, h.threads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify reports whether plaintext matches digest. A malformed or
// unsupported digest yields false.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	if isBcryptDigest(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	}

	salt, hash, params, err := decodePHC(digest)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, params.time, params.memory, params.threads, uint32(len(hash))) //nolint:gosec // G115: hash length always fits uint32

	return subtle.ConstantTimeCompare(hash, candidate) == 1
}

func isBcryptDigest(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

// decodePHC parses an Argon2id PHC string into its components.
func decodePHC(encoded string) (salt, hash []byte, params argonParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 { //nolint:mnd // PHC format has exactly 6 $-delimited parts
		return nil, nil, params, fmt.Errorf("invalid PHC hash format")
	}

	if parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil { //nolint:govet // shadow
		return nil, nil, params, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, params, fmt.Errorf("unsupported argon2 version: %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil { //nolint:govet // shadow
		return nil, nil, params, fmt.Errorf("parsing parameters: %w", err)
	}
	if params.time == 0 || params.threads == 0 {
		return nil, nil, params, fmt.Errorf("invalid argon2 parameters")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding salt: %w", err)
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding hash: %w", err)
	}
	if len(hash) == 0 {
		return nil, nil, params, fmt.Errorf("empty hash")
	}

	return salt, hash, params, nil
}
