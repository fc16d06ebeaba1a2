package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not_found")

type Service interface {
	GetByID(ctx context.Context, id string) (*Consultation, error)
}
