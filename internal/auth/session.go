package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the typed client session identity. The web client persists
// it as the legacy colon-joined token, so Encode/Parse own that format —
// nothing else in the codebase splits the string by hand.
type Credential struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// Encode renders the legacy "userId:email:role" session token.
func (c Credential) Encode() string {
	return fmt.Sprintf("%s:%s:%s", c.UserID, c.Email, c.Role)
}

// ParseCredential parses the legacy colon-joined session token. The email
// part may itself never contain a colon, so a strict 3-way split is safe.
func ParseCredential(token string) (Credential, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Credential{}, ErrInvalidToken
	}
	cred := Credential{
		UserID: parts[0],
		Email:  strings.ToLower(parts[1]),
		Role:   Role(parts[2]),
	}
	if !cred.Role.IsValid() {
		return Credential{}, ErrInvalidToken
	}
	return cred, nil
}

// sessionClaims are the JWT claims issued at login.
type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HMAC JWT carrying the credential triplet.
func IssueToken(secret string, cred Credential, expiry time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("auth: jwt secret not configured")
	}
	now := time.Now()
	claims := sessionClaims{
		Email: cred.Email,
		Role:  string(cred.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session JWT and returns the embedded credential.
func ParseToken(secret, tokenString string) (Credential, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Credential{}, ErrInvalidToken
	}
	cred := Credential{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   Role(claims.Role),
	}
	if cred.UserID == "" || !cred.Role.IsValid() {
		return Credential{}, ErrInvalidToken
	}
	return cred, nil
}
