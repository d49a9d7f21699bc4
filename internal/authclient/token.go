package authclient

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is a decoded, unverified access token. Signature verification is the
// backend's job; the frontend only reads claims to adapt its UI.
type Token struct {
	Raw    string
	Claims jwt.MapClaims
}

// DecodeToken parses raw without verifying its signature.
func DecodeToken(raw string) (*Token, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &Token{Raw: raw, Claims: claims}, nil
}

// Permissions returns the RBAC permissions claim.
func (t *Token) Permissions() []string {
	raw, ok := t.Claims["permissions"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if s, ok := p.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Can reports whether the token grants permission.
func (t *Token) Can(permission string) bool {
	return slices.Contains(t.Permissions(), permission)
}

// HasAudience reports whether aud is among the token audiences.
func (t *Token) HasAudience(aud string) bool {
	auds, err := t.Claims.GetAudience()
	if err != nil {
		return false
	}
	return slices.Contains(auds, aud)
}

// Subject returns the sub claim.
func (t *Token) Subject() string {
	sub, _ := t.Claims.GetSubject()
	return sub
}

// Expired reports whether the exp claim lies before now. Tokens without exp
// never expire.
func (t *Token) Expired(now time.Time) bool {
	exp, err := t.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}
