package auth

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssuedAtPrecision - точность iat и exp в токенах. Меньше секунды, чтобы
// токен, выданный за мгновение до смены пароля, отличался от выданного после.
const IssuedAtPrecision = time.Millisecond

func init() {
	jwt.TimePrecision = IssuedAtPrecision
}

// Claims - в токене только subject (id пользователя), iat и exp
type Claims struct {
	jwt.RegisteredClaims
}

// UnmarshalJSON читает iat из десятичной записи: jwt разбирает его через
// float64 и может потерять миллисекунду.
func (c *Claims) UnmarshalJSON(b []byte) error {
	type plain Claims
	if err := json.Unmarshal(b, (*plain)(c)); err != nil {
		return err
	}
	var raw struct {
		IssuedAt json.Number `json:"iat"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		// iat не число: остается значение, разобранное jwt
		return nil
	}
	if t, ok := parseMillis(raw.IssuedAt.String()); ok {
		c.IssuedAt = &jwt.NumericDate{Time: t}
	}
	return nil
}

// parseMillis - "1709294400.123" -> время с точностью до миллисекунды
func parseMillis(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	whole, frac, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || sec < 0 {
		return time.Time{}, false
	}
	if len(frac) > 3 {
		frac = frac[:3]
	}
	frac += strings.Repeat("0", 3-len(frac))
	ms, err := strconv.Atoi(frac)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, int64(ms)*int64(time.Millisecond)), true
}

func (c *Claims) UserID() string {
	return c.Subject
}

// IssuedAtTime - нулевое время, если iat отсутствует
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// TokenManager выпускает и проверяет HS256 токены сессии
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock подменяет часы (для тестов)
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *TokenManager) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: empty subject")
	}
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse проверяет подпись и срок. Ошибки - ошибки jwt (ErrTokenExpired и др.),
// в операционные их переводит apperrors.Translate.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
