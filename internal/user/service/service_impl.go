package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invoicestudio/backend/internal/invoice/money"
	"github.com/invoicestudio/backend/internal/user/domain"
	"github.com/invoicestudio/backend/pkg/db"
	"github.com/invoicestudio/backend/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
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
	repo  repository.Repository[domain.User]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.User](p.DB),
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.User{}, domain.ErrInvalidName
	}

	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, domain.ErrInvalidEmail
	}

	if len(req.Password) < 6 {
		return domain.User{}, domain.ErrInvalidPassword
	}

	existing, err := s.repo.FindOne(ctx, &domain.User{Email: email})
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, domain.ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:       s.genID.Generate(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		InvoiceDefaults: datatypes.NewJSONType(domain.InvoiceDefaults{
			DefaultTaxName: "GST",
			TaxMode:        "invoice",
		}),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		// The unique index can still fire between the lookup and the insert.
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, err
	}

	s.log.Info("account registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindOne(ctx, &domain.User{Email: normalizeEmail(email)})
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	return *user, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.User, error) {
	user, err := s.repo.FindOne(ctx, &domain.User{ID: id})
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id snowflake.ID, req domain.UpdateProfileRequest) (domain.User, error) {
	user, err := s.repo.FindOne(ctx, &domain.User{ID: id})
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.User{}, domain.ErrInvalidName
		}
		user.Name = name
	}
	if req.CompanyName != nil {
		user.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.CompanyLogo != nil {
		user.CompanyLogo = strings.TrimSpace(*req.CompanyLogo)
	}
	if req.CompanyAddress != nil {
		user.CompanyAddress = strings.TrimSpace(*req.CompanyAddress)
	}
	if req.CompanyEmail != nil {
		user.CompanyEmail = strings.TrimSpace(*req.CompanyEmail)
	}
	if req.CompanyPhone != nil {
		user.CompanyPhone = strings.TrimSpace(*req.CompanyPhone)
	}
	if req.CompanyTaxID != nil {
		user.CompanyTaxID = strings.TrimSpace(*req.CompanyTaxID)
	}
	if req.InvoiceDefaults != nil {
		defaults := *req.InvoiceDefaults
		if err := money.ValidateRate(defaults.DefaultTaxRate); err != nil {
			return domain.User{}, domain.ErrInvalidTaxRate
		}
		defaults.DefaultTaxName = strings.TrimSpace(defaults.DefaultTaxName)
		user.InvoiceDefaults = datatypes.NewJSONType(defaults)
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, user); err != nil {
		return domain.User{}, err
	}

	return *user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
