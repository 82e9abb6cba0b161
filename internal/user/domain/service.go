package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name            *string          `json:"name"`
	CompanyName     *string          `json:"companyName"`
	CompanyLogo     *string          `json:"companyLogo"`
	CompanyAddress  *string          `json:"companyAddress"`
	CompanyEmail    *string          `json:"companyEmail"`
	CompanyPhone    *string          `json:"companyPhone"`
	CompanyTaxID    *string          `json:"companyTaxId"`
	InvoiceDefaults *InvoiceDefaults `json:"invoiceDefaults"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (User, error)
	Authenticate(ctx context.Context, email, password string) (User, error)
	GetByID(ctx context.Context, id snowflake.ID) (User, error)
	UpdateProfile(ctx context.Context, id snowflake.ID, req UpdateProfileRequest) (User, error)
}

var (
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidTaxRate     = errors.New("invalid_tax_rate")
)
