package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invoicestudio/backend/internal/client/domain"
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
	repo  repository.Repository[domain.Client]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.Client](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, owner snowflake.ID, req domain.CreateClientRequest) (domain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Client{}, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Client{}, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	client := domain.Client{
		ID:          s.genID.Generate(),
		UserID:      owner,
		Name:        name,
		Email:       email,
		Address:     strings.TrimSpace(req.Address),
		Phone:       strings.TrimSpace(req.Phone),
		TaxID:       strings.TrimSpace(req.TaxID),
		IsTaxExempt: req.IsTaxExempt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, &client); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

func (s *Service) List(ctx context.Context, owner snowflake.ID) ([]domain.Client, error) {
	rows, err := s.repo.Find(ctx, &domain.Client{UserID: owner}, option.WithOrder("created_at DESC"))
	if err != nil {
		return nil, err
	}

	clients := make([]domain.Client, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		clients = append(clients, *row)
	}
	return clients, nil
}

func (s *Service) GetByID(ctx context.Context, owner, id snowflake.ID) (domain.Client, error) {
	client, err := s.load(ctx, owner, id)
	if err != nil {
		return domain.Client{}, err
	}
	return *client, nil
}

func (s *Service) Update(ctx context.Context, owner, id snowflake.ID, req domain.UpdateClientRequest) (domain.Client, error) {
	client, err := s.load(ctx, owner, id)
	if err != nil {
		return domain.Client{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Client{}, domain.ErrInvalidName
		}
		client.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" || !strings.Contains(email, "@") {
			return domain.Client{}, domain.ErrInvalidEmail
		}
		client.Email = email
	}
	if req.Address != nil {
		client.Address = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		client.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.TaxID != nil {
		client.TaxID = strings.TrimSpace(*req.TaxID)
	}
	if req.IsTaxExempt != nil {
		client.IsTaxExempt = *req.IsTaxExempt
	}

	client.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, client); err != nil {
		return domain.Client{}, err
	}
	return *client, nil
}

func (s *Service) Delete(ctx context.Context, owner, id snowflake.ID) error {
	if _, err := s.load(ctx, owner, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// load fetches by id and enforces ownership; a foreign row is Forbidden, a
// missing one NotFound.
func (s *Service) load(ctx context.Context, owner, id snowflake.ID) (*domain.Client, error) {
	client, err := s.repo.FindOne(ctx, &domain.Client{ID: id})
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	if client.UserID != owner {
		return nil, domain.ErrForbidden
	}
	return client, nil
}
