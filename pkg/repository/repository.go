// Package repository implements a generic gorm-backed store shared by all
// domain services.
package repository

import (
	"context"

	"github.com/invoicestudio/backend/pkg/db/option"
	"gorm.io/gorm"
)

type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Save(ctx context.Context, resource *T) error
	Delete(ctx context.Context, resourceID any) error
	Count(ctx context.Context, query *T) (int64, error)
}
