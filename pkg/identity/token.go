package identity

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/config"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService emite y valida tokens de sesión ligados a un user_id
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
	issuer    string
	now       func() time.Time
}

// NewTokenServiceFromConfig returns nil when signing is disabled.
func NewTokenServiceFromConfig(cfg *config.SessionConfig) *TokenService {
	if !cfg.TokensEnabled() {
		return nil
	}
	return NewTokenService(cfg.SigningKey, cfg.TokenTTL, cfg.Issuer)
}

func NewTokenService(secret string, ttl time.Duration, issuer string) *TokenService {
	return &TokenService{
		secretKey: []byte(secret),
		ttl:       ttl,
		issuer:    issuer,
		now:       time.Now,
	}
}

// SessionClaims son los claims del token de sesión
type SessionClaims struct {
	UserID kernel.UserID `json:"user_id"`
	jwt.RegisteredClaims
}

// Issue firma un token para userID
func (s *TokenService) Issue(userID kernel.UserID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, ErrTokenIssue().WithCause(err)
	}

	return signed, expiresAt, nil
}

// Verify valida el token y devuelve el user_id que contiene
func (s *TokenService) Verify(tokenString string) (kernel.UserID, error) {
	if tokenString == "" {
		return "", ErrTokenRequired()
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", ErrTokenInvalid().WithDetail("error", err.Error())
	}
	if !token.Valid || claims.Subject == "" || claims.Subject != claims.UserID.String() {
		return "", ErrTokenInvalid().WithDetail("error", "invalid claims")
	}

	return claims.UserID, nil
}

// Authorize checks that tokenString was issued to userID
func (s *TokenService) Authorize(tokenString string, userID kernel.UserID) error {
	subject, err := s.Verify(tokenString)
	if err != nil {
		return err
	}
	if subject != userID {
		return ErrSubjectMismatch().
			WithDetail("user_id", userID.String())
	}
	return nil
}
