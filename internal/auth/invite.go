package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// InviteClaims is the payload of a signed household invite link.
type InviteClaims struct {
	HouseholdID int64  `json:"household_id"`
	Role        string `json:"role"`
	Code        string `json:"code"`
	jwt.RegisteredClaims
}

// SignInvite mints a signed invite token embedding the household, role, and
// the invite code used to look up (and burn) the stored invite row.
func SignInvite(secret []byte, householdID int64, role, code string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := InviteClaims{
		HouseholdID: householdID,
		Role:        role,
		Code:        code,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign invite: %w", err)
	}
	return signed, nil
}

// VerifyInvite parses and validates an invite token.
func VerifyInvite(secret []byte, tokenString string) (*InviteClaims, error) {
	var claims InviteClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse invite: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid invite token")
	}
	return &claims, nil
}
