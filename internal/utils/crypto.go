package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2Prefix = "$argon2id$"

// SecretHashConfig holds the argon2id parameters for admin secrets
type SecretHashConfig struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultSecretHashConfig returns the parameters used by HashSecret
func DefaultSecretHashConfig() *SecretHashConfig {
	return &SecretHashConfig{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// HashSecret hashes a secret using Argon2id
func HashSecret(secret string) (string, error) {
	config := DefaultSecretHashConfig()

	salt := make([]byte, config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(secret), salt, config.Iterations, config.Memory, config.Parallelism, config.KeyLength)

	// Format: $argon2id$v=19$m=65536,t=3,p=2$salt$hash
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		config.Memory, config.Iterations, config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// IsHashed reports whether stored looks like an argon2id hash
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, argon2Prefix)
}

// VerifySecret compares a candidate against a stored secret, which may be
// plaintext or an argon2id hash. Both paths compare in constant time.
func VerifySecret(candidate, stored string) bool {
	if candidate == "" || stored == "" {
		return false
	}
	if !IsHashed(stored) {
		return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1
	}

	config, salt, want, err := parseHash(stored)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(candidate), salt, config.Iterations, config.Memory, config.Parallelism, config.KeyLength)
	return subtle.ConstantTimeCompare(want, got) == 1
}

// MatchAnySecret reports whether candidate matches one of the stored secrets.
// Every entry is checked so the timing does not reveal which one matched.
func MatchAnySecret(candidate string, stored []string) bool {
	matched := false
	for _, s := range stored {
		if VerifySecret(candidate, s) {
			matched = true
		}
	}
	return matched
}

// parseHash parses an Argon2id hash string
func parseHash(hash string) (*SecretHashConfig, []byte, []byte, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return nil, nil, nil, fmt.Errorf("invalid hash format: expected 6 parts, got %d", len(parts))
	}

	// ["", "argon2id", "v=19", "m=memory,t=iterations,p=parallelism", "salt", "hash"]
	if parts[1] != "argon2id" || parts[2] != "v=19" {
		return nil, nil, nil, fmt.Errorf("invalid hash format: incorrect prefix")
	}

	var memory, iterations uint32
	var parallelism uint8
	n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil || n != 3 {
		return nil, nil, nil, fmt.Errorf("invalid hash format: failed to parse parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	hashBytes, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode hash: %w", err)
	}

	config := &SecretHashConfig{
		Memory:      memory,
		Iterations:  iterations,
		Parallelism: parallelism,
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(hashBytes)),
	}

	return config, salt, hashBytes, nil
}

// GenerateSecureToken generates a cryptographically secure random token
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
