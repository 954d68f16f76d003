package utils

import (
	cryptorand "crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

// VerifyPassword compares a plain password with its stored hash.
func VerifyPassword(password string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// GenerateTransactionReference returns prefix-yyyymmddhhmmss + six random digits.
func GenerateTransactionReference(prefix string, now time.Time) string {
	identifier := mathrand.Intn(1000000)
	return fmt.Sprintf("%s-%s%06d", prefix, now.UTC().Format("20060102150405"), identifier)
}

// GenerateShareToken returns 20 lowercase hex characters from crypto/rand.
func GenerateShareToken() (string, error) {
	randomBytes := make([]byte, 10)
	if _, err := cryptorand.Read(randomBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(randomBytes), nil
}

// GenerateVerificationCode returns a six digit numeric code.
func GenerateVerificationCode() (string, error) {
	n, err := cryptorand.Int(cryptorand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// NormalizeEmail lowercases and trims; emails are unique case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
