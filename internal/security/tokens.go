package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aq2208/growcery-api/configs"
	domain "github.com/aq2208/growcery-api/internal/entity"
)

const (
	defaultTokenTTL = 24 * time.Hour
	clockSkew       = 30 * time.Second
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"userType"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the bearer tokens carried by clients.
type TokenService struct {
	keys     SigningKeys
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenService(keys SigningKeys, issuer, audience string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{keys: keys, issuer: issuer, audience: audience, ttl: ttl, now: time.Now}
}

func NewTokenServiceFromConfig(cfg configs.Config) (*TokenService, error) {
	keys, err := LoadSigningKeys(cfg)
	if err != nil {
		return nil, err
	}
	return NewTokenService(keys, cfg.Security.Issuer, cfg.Security.Audience, cfg.Security.TTL), nil
}

func (s *TokenService) method() jwt.SigningMethod {
	if s.keys.Method == "RS256" {
		return jwt.SigningMethodRS256
	}
	return jwt.SigningMethodHS256
}

func (s *TokenService) Issue(id domain.Identity) (string, error) {
	now := s.now()
	claims := Claims{
		ID:    id.UserID,
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	if s.issuer != "" {
		claims.Issuer = s.issuer
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	var key any = s.keys.Secret
	if s.keys.Method == "RS256" {
		key = s.keys.RSAPri
	}
	signed, err := jwt.NewWithClaims(s.method(), claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, expiry, issuer and audience and returns the caller identity.
func (s *TokenService) Parse(raw string) (domain.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method().Alg()}),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if s.keys.Method == "RS256" {
			return s.keys.RSAPub, nil
		}
		return s.keys.Secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" || claims.Role == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}
	return domain.Identity{
		UserID: claims.ID,
		Email:  claims.Email,
		Role:   domain.Role(claims.Role),
	}, nil
}
