package jwtutil

import (
	"github.com/golang-jwt/jwt/v5"

	"events-service/internal/domain"
)

// Claims is the token payload issued by the auth service.
type Claims struct {
	UserID   int64  `json:"uid"`
	Role     int    `json:"role"`
	TempleID *int64 `json:"temple_id,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the caller identity.
func (c *Claims) Principal() (domain.Principal, error) {
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{ID: c.UserID, Role: role, TempleID: c.TempleID}, nil
}

type JWTConfig struct {
	PubPath  string
	Issuer   string
	Audience string
	// KeyPaths maps a kid to a PEM file, for tokens signed by rotated keys.
	KeyPaths map[string]string
}
