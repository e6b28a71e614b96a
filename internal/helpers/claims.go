package helpers

import (
	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the verified token payload attached to every authenticated
// request. Subject carries the user id.
type AuthClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Helper methods for role checking
func (ac *AuthClaims) IsAdmin() bool {
	return ac.Role == "admin"
}

func (ac *AuthClaims) IsCustomer() bool {
	return ac.Role == "customer"
}

func (ac *AuthClaims) IsContractor() bool {
	return ac.Role == "contractor"
}

func (ac *AuthClaims) HasRole(role string) bool {
	return ac.Role == role
}

func (ac *AuthClaims) IsOwner(userID string) bool {
	return ac.Subject == userID
}
