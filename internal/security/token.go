package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"farmmarket/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified identity carried by a bearer token. Role and status
// are snapshots taken at issuance and are not re-read from the store.
type Claims struct {
	UserID string            `json:"id"`
	Role   models.UserRole   `json:"role"`
	Status models.UserStatus `json:"status"`
	Name   string            `json:"name"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Issue(user models.User) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("token secret not configured")
	}

	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		Status: user.Status,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func (s *TokenService) Verify(tokenStr string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.UserID == "" || !claims.Role.Valid() || !claims.Status.Valid() {
		return Claims{}, fmt.Errorf("%w: malformed claims", ErrInvalidToken)
	}
	return claims, nil
}
