// internal/auth/token.go
package auth

import (
	"errors"
	"time"

	"airtel-ipn-service/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("invalid API credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims carried by gateway-issued bearer tokens.
type Claims struct {
	SwitchID   string `json:"sid"`
	SwitchName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenService exchanges switch API credentials for short-lived bearer
// tokens and verifies them on IPN routes.
type TokenService struct {
	cfg *config.Config
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{cfg: cfg}
}

// Issue authenticates the API key/secret pair against the configured
// switches and returns a signed token plus its expiry.
func (s *TokenService) Issue(apiKey, apiSecret string) (string, time.Time, error) {
	sw, err := s.cfg.FindSwitchByAPIKey(apiKey)
	if err != nil || sw.APISecret != apiSecret {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.Auth.TokenTTL)

	claims := Claims{
		SwitchID:   sw.ID,
		SwitchName: sw.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Auth.Issuer,
			Subject:   sw.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Verify parses and validates a bearer token, returning its claims.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	}, jwt.WithIssuer(s.cfg.Auth.Issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.SwitchID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
