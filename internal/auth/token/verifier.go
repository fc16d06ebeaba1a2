package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMisconfiguredSecret means the process has no signing secret. It is
	// an operational fault, checked before any token content is examined.
	ErrMisconfiguredSecret = errors.New("misconfigured_secret")
	// ErrInvalidCredential covers structural, signature and expiry failures.
	ErrInvalidCredential = errors.New("invalid_credential")
	// ErrMalformedClaim means the token verified but carries no usable
	// identity field.
	ErrMalformedClaim = errors.New("malformed_claim")
)

// Claims is the decoded credential payload. The identity lives in the
// email claim, with the registered subject as fallback.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Identity returns the email-like identity claim, or "" when absent.
func (c *Claims) Identity() string {
	if email := strings.TrimSpace(c.Email); email != "" {
		return email
	}
	return strings.TrimSpace(c.Subject)
}

// Verifier validates bearer credentials against a shared HS256 secret.
// It performs no I/O; the secret is fixed at construction so rotation and
// misconfiguration are testable without touching process environment.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &Verifier{}
	}
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates rawToken, returning its claims.
func (v *Verifier) Verify(rawToken string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, ErrMisconfiguredSecret
	}

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrInvalidCredential
	}

	parsed, err := jwt.ParseWithClaims(rawToken, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredential, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.Identity() == "" {
		return nil, ErrMalformedClaim
	}
	return claims, nil
}
