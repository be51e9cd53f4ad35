package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 14
)

var (
	passwordPattern = regexp.MustCompile(`^[A-Za-z0-9]{8,14}$`)

	passwordClasses = []string{
		"abcdefghijklmnopqrstuvwxyz",
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		"0123456789",
	}
)

// Password generates, validates and stores the unlock password.
// Only the SHA-256 hex digest is persisted.
type Password struct {
	store  model.PreferenceStore
	logger *logger.Logger
	intN   func(n int) int
}

func NewPassword(store model.PreferenceStore, logger *logger.Logger) *Password {
	return &Password{
		store:  store,
		logger: logger,
		intN:   rand.IntN,
	}
}

// Generate returns a random password that satisfies IsValid. Every
// character first picks a class uniformly, then a symbol within it.
func (s *Password) Generate() string {
	length := PasswordMinLength + s.intN(PasswordMaxLength-PasswordMinLength+1)

	var b strings.Builder
	b.Grow(length)
	for range length {
		class := passwordClasses[s.intN(len(passwordClasses))]
		b.WriteByte(class[s.intN(len(class))])
	}

	return b.String()
}

// IsValid reports whether password is 8 to 14 ASCII letters or digits.
func (s *Password) IsValid(password string) bool {
	return passwordPattern.MatchString(password)
}

// StoreHashed persists the digest of password.
func (s *Password) StoreHashed(ctx context.Context, password string) error {
	if err := s.store.Set(ctx, model.KeyPassword, HashPassword(password)); err != nil {
		s.logger.Error("Password service: failed to store password", "error", err.Error())
		return model.NewDataStoreFailure(model.ContextPassword, err)
	}

	return nil
}

// IsMatch compares password with the stored digest. With no stored
// digest every candidate matches.
func (s *Password) IsMatch(password string) bool {
	stored, ok := s.store.Get(model.KeyPassword)
	if !ok {
		return true
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(HashPassword(password))) == 1
}

// HashPassword returns the lowercase hex SHA-256 of the UTF-8 password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
