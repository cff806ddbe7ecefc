package domain

import (
	"context"
	"errors"
)

type CreateRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Sede, error)
	// Ensure returns the sede with the slug of name, creating it when absent.
	Ensure(ctx context.Context, req CreateRequest) (Sede, error)
	Get(ctx context.Context, id string) (Sede, error)
	List(ctx context.Context, activeOnly bool) ([]Sede, error)
}

var (
	ErrInvalidID   = errors.New("invalid_id")
	ErrInvalidName = errors.New("invalid_name")
	ErrNotFound    = errors.New("sede_not_found")
	ErrCodeTaken   = errors.New("sede_code_taken")
)
