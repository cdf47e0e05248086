package jwtutil

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"events-service/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

type Verifier struct {
	pubKeys  map[string]*rsa.PublicKey // kid -> pub
	defPub   *rsa.PublicKey
	issuer   string
	audience string
}

func NewVerifier(def *rsa.PublicKey, issuer, audience string) *Verifier {
	return &Verifier{
		pubKeys:  map[string]*rsa.PublicKey{},
		defPub:   def,
		issuer:   issuer,
		audience: audience,
	}
}

// LoadVerifier reads the PEM key named in cfg.
func LoadVerifier(cfg JWTConfig) (*Verifier, error) {
	pub, err := LoadRSAPublicKeyFromPEM(cfg.PubPath)
	if err != nil {
		return nil, fmt.Errorf("load public key from %s: %w", cfg.PubPath, err)
	}
	v := NewVerifier(pub, cfg.Issuer, cfg.Audience)
	for kid, path := range cfg.KeyPaths {
		k, err := LoadRSAPublicKeyFromPEM(path)
		if err != nil {
			return nil, fmt.Errorf("load key %q from %s: %w", kid, path, err)
		}
		v.AddKey(kid, k)
	}
	return v, nil
}

// AddKey registers pub for tokens whose header names kid. Tokens without a
// known kid are checked against the default key.
func (v *Verifier) AddKey(kid string, pub *rsa.PublicKey) {
	v.pubKeys[kid] = pub
}

func (v *Verifier) ParseAndValidate(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	parser := jwt.NewParser(
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)

	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid != "" {
			if k, ok := v.pubKeys[kid]; ok {
				return k, nil
			}
		}
		return v.defPub, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resolve verifies the token and returns the caller it names.
func (v *Verifier) Resolve(tokenStr string) (domain.Principal, error) {
	claims, err := v.ParseAndValidate(tokenStr)
	if err != nil {
		return domain.Principal{}, err
	}
	p, err := claims.Principal()
	if err != nil {
		return domain.Principal{}, ErrInvalidToken
	}
	return p, nil
}
