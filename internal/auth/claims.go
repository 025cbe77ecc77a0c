package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// Identity verification is delegated to the upstream provider at login; these
// tokens only carry the resolved identity between requests.
type Claims struct {
	jwt.RegisteredClaims

	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
