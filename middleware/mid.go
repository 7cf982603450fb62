package middleware

import (
	"errors"

	"storefront-service/internal/auth"
)

type Mid struct {
	keys *auth.Keys
}

func NewMid(keys *auth.Keys) (*Mid, error) {
	if keys == nil {
		return nil, errors.New("auth keys cannot be nil")
	}
	return &Mid{keys: keys}, nil
}
