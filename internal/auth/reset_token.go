package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ResetTokenTTL - срок жизни токена сброса пароля
const ResetTokenTTL = 10 * time.Minute

const resetTokenBytes = 32

// ResetToken - открытое значение уходит пользователю письмом,
// в БД хранится только Hash.
type ResetToken struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

func NewResetToken(now time.Time) (*ResetToken, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	plain := hex.EncodeToString(buf)
	return &ResetToken{
		Plain:     plain,
		Hash:      HashResetToken(plain),
		ExpiresAt: now.Add(ResetTokenTTL),
	}, nil
}

// HashResetToken - sha256 в hex
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
