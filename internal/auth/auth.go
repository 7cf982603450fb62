package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const ClaimsKey ctxKey = 1

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Keys verifies tokens issued by the storefront backend.
type Keys struct {
	publicKey *rsa.PublicKey
}

func NewKeys(publicKey *rsa.PublicKey) (*Keys, error) {
	if publicKey == nil {
		return nil, errors.New("public key cannot be nil")
	}
	return &Keys{publicKey: publicKey}, nil
}

// LoadKeys reads a PEM encoded RSA public key from path.
func LoadKeys(path string) (*Keys, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	return NewKeys(publicKey)
}

func (k *Keys) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return k.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
