// Package jwt signs and validates the stateless bearer tokens handed out
// after a successful code confirmation.
package jwt

import (
	"errors"
	"time"

	"github.com/askaruly/shop-auth/internal/domain"
	gojwt "github.com/golang-jwt/jwt/v5"
)

// Issuer encodes the owner's phone number into an HS256-signed token with an
// absolute expiry, and decodes it back on protected requests.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source. Tests use it to step past expiry.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Encode(phone string) (string, error) {
	now := i.now()
	claims := gojwt.MapClaims{
		"user": phone,
		"iat":  now.Unix(),
		"exp":  now.Add(i.ttl).Unix(),
	}
	t := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Decode verifies the signature and expiry and returns the owner's phone
// number. Failures map onto the domain taxonomy so callers never see
// library internals.
func (i *Issuer) Decode(signed string) (string, error) {
	token, err := gojwt.Parse(signed, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidSignature
		}
		return i.secret, nil
	}, gojwt.WithTimeFunc(i.now))
	if err != nil {
		switch {
		case errors.Is(err, gojwt.ErrTokenExpired):
			return "", domain.ErrTokenExpired
		case errors.Is(err, gojwt.ErrTokenSignatureInvalid), errors.Is(err, domain.ErrInvalidSignature):
			return "", domain.ErrInvalidSignature
		default:
			return "", domain.ErrMalformedToken
		}
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return "", domain.ErrMalformedToken
	}
	phone, ok := claims["user"].(string)
	if !ok || phone == "" {
		return "", domain.ErrMalformedToken
	}
	return phone, nil
}
