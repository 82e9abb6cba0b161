package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invoicestudio/backend/internal/invoice/money"
	"github.com/invoicestudio/backend/internal/item/domain"
	"github.com/invoicestudio/backend/pkg/db/option"
	"github.com/invoicestudio/backend/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[domain.Item]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("item.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.Item](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, owner snowflake.ID, req domain.CreateItemRequest) (domain.Item, error) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return domain.Item{}, domain.ErrInvalidDescription
	}
	if err := money.ValidateAmount(req.Quantity); err != nil {
		return domain.Item{}, domain.ErrInvalidQuantity
	}
	if err := money.ValidateAmount(req.Price); err != nil {
		return domain.Item{}, domain.ErrInvalidPrice
	}

	now := time.Now().UTC()
	item := domain.Item{
		ID:          s.genID.Generate(),
		UserID:      owner,
		Description: desc,
		Quantity:    req.Quantity,
		Price:       req.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, &item); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, owner snowflake.ID) ([]domain.Item, error) {
	rows, err := s.repo.Find(ctx, &domain.Item{UserID: owner}, option.WithOrder("created_at DESC"))
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		items = append(items, *row)
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, owner, id snowflake.ID) (domain.Item, error) {
	item, err := s.load(ctx, owner, id)
	if err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, owner, id snowflake.ID, req domain.UpdateItemRequest) (domain.Item, error) {
	item, err := s.load(ctx, owner, id)
	if err != nil {
		return domain.Item{}, err
	}

	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if desc == "" {
			return domain.Item{}, domain.ErrInvalidDescription
		}
		item.Description = desc
	}
	if req.Quantity != nil {
		if err := money.ValidateAmount(*req.Quantity); err != nil {
			return domain.Item{}, domain.ErrInvalidQuantity
		}
		item.Quantity = *req.Quantity
	}
	if req.Price != nil {
		if err := money.ValidateAmount(*req.Price); err != nil {
			return domain.Item{}, domain.ErrInvalidPrice
		}
		item.Price = *req.Price
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, item); err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

func (s *Service) Delete(ctx context.Context, owner, id snowflake.ID) error {
	if _, err := s.load(ctx, owner, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) load(ctx context.Context, owner, id snowflake.ID) (*domain.Item, error) {
	item, err := s.repo.FindOne(ctx, &domain.Item{ID: id})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if item.UserID != owner {
		return nil, domain.ErrForbidden
	}
	return item, nil
}
