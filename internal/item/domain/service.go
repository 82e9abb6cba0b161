package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

type UpdateItemRequest struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	Price       *float64 `json:"price"`
}

type Service interface {
	Create(ctx context.Context, owner snowflake.ID, req CreateItemRequest) (Item, error)
	List(ctx context.Context, owner snowflake.ID) ([]Item, error)
	GetByID(ctx context.Context, owner, id snowflake.ID) (Item, error)
	Update(ctx context.Context, owner, id snowflake.ID, req UpdateItemRequest) (Item, error)
	Delete(ctx context.Context, owner, id snowflake.ID) error
}

var (
	ErrInvalidDescription = errors.New("invalid_description")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrNotFound           = errors.New("not_found")
	ErrForbidden          = errors.New("forbidden")
)
