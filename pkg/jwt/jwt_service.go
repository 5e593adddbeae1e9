package jwt

import (
	"Pantry-Ledger/domain"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const DefaultTokenTTL = 24 * time.Hour

type (
	JWTService interface {
		GenerateToken(subject string, ttl time.Duration) (string, time.Time, error)
		ValidateToken(token string) (*jwt.Token, error)
		GetSubjectByToken(token string) (string, error)
	}

	serviceClaim struct {
		Scope string `json:"scope"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
		now       func() time.Time
	}
)

var ErrMissingSecret = errors.New("jwt secret is not configured")

// NewJWTService signs API tokens with HS256. An empty secret is rejected so
// the API never accepts tokens signed with an empty key.
func NewJWTService(secretKey string) (JWTService, error) {
	if secretKey == "" {
		return nil, ErrMissingSecret
	}
	return &jwtService{
		secretKey: secretKey,
		issuer:    "PANTRY-LEDGER",
		now:       time.Now,
	}, nil
}

func (j *jwtService) GenerateToken(subject string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := j.now()
	expiresAt := now.Add(ttl)

	claims := serviceClaim{
		Scope: "inventory",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (j *jwtService) parseToken(t_ *jwt.Token) (any, error) {
	if _, ok := t_.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t_.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) ValidateToken(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &serviceClaim{}, j.parseToken)
}

func (j *jwtService) GetSubjectByToken(token string) (string, error) {
	t_Token, err := j.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrTokenInvalid
	}
	if !t_Token.Valid {
		return "", domain.ErrTokenInvalid
	}

	claims, ok := t_Token.Claims.(*serviceClaim)
	if !ok || claims.Issuer != j.issuer || claims.Subject == "" {
		return "", domain.ErrTokenInvalid
	}
	return claims.Subject, nil
}
