package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrNotFound     = errors.New("not_found")
)

// Service resolves identity claims to user records. Absence is reported
// as ErrNotFound, never as a panic or a nil-with-nil pair.
type Service interface {
	ResolveByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
