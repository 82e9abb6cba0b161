package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateClientRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	TaxID       string `json:"taxId"`
	IsTaxExempt bool   `json:"isTaxExempt"`
}

type UpdateClientRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	TaxID       *string `json:"taxId"`
	IsTaxExempt *bool   `json:"isTaxExempt"`
}

type Service interface {
	Create(ctx context.Context, owner snowflake.ID, req CreateClientRequest) (Client, error)
	List(ctx context.Context, owner snowflake.ID) ([]Client, error)
	GetByID(ctx context.Context, owner, id snowflake.ID) (Client, error)
	Update(ctx context.Context, owner, id snowflake.ID, req UpdateClientRequest) (Client, error)
	Delete(ctx context.Context, owner, id snowflake.ID) error
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrNotFound     = errors.New("not_found")
	ErrForbidden    = errors.New("forbidden")
)
