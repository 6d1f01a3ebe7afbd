package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// ContractorID is set for contractor users and empty for operators.
type Claims struct {
	jwt.RegisteredClaims

	UserID       string    `json:"user_id"`
	ContractorID string    `json:"contractor_id,omitempty"`
	Role         string    `json:"role"`
	TokenType    TokenType `json:"token_type"`
}
