package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service resolves and mutates the effective cart of a request.
type Service interface {
	Identify(ctx context.Context, sessionToken string) (Identity, error)
	Recognize(ctx context.Context, sessionToken string) (Identity, error)
	Resolve(ctx context.Context, ident Identity) (*CartView, error)
	AddLine(ctx context.Context, ident Identity, productID uuid.UUID, qty int) (*LineView, error)
	UpdateLine(ctx context.Context, ident Identity, productID uuid.UUID, qty int) (*LineView, error)
	RemoveLine(ctx context.Context, ident Identity, productID uuid.UUID) error
	FindLine(ctx context.Context, ident Identity, productID uuid.UUID) (*LineView, error)
	MergeOnLogin(ctx context.Context, sessionToken string, userID uuid.UUID) (int, error)
}

// ProductReader loads catalog products for cart validation.
type ProductReader interface {
	GetProduct(ctx context.Context, id uuid.UUID, mode visibility.Mode) (*models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Repo     Repository
	Products ProductReader
	Sessions SessionStore
	Metrics  *metrics.CommerceMetrics
}

type service struct {
	logg     *logger.Logger
	tx       txRunner
	repo     Repository
	products ProductReader
	sessions SessionStore
	metrics  *metrics.CommerceMetrics
}

// NewService validates params and returns the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &service{
		logg:     params.Logger,
		tx:       params.DB,
		repo:     params.Repo,
		products: params.Products,
		sessions: params.Sessions,
		metrics:  params.Metrics,
	}, nil
}

// Recognize resolves an anonymous caller without minting. An absent or
// unknown token yields a pending identity.
func (s *service) Recognize(ctx context.Context, sessionToken string) (Identity, error) {
	if sessionToken == "" {
		return PendingSession(), nil
	}
	sessionID, ok, err := s.sessions.Lookup(ctx, sessionToken)
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cart session")
	}
	if !ok {
		return PendingSession(), nil
	}
	return Anonymous(sessionToken, sessionID), nil
}

// Identify resolves an anonymous caller, minting a new session when the token
// is absent or no longer known.
func (s *service) Identify(ctx context.Context, sessionToken string) (Identity, error) {
	ident, err := s.Recognize(ctx, sessionToken)
	if err != nil || !ident.IsPending() {
		return ident, err
	}

	token, sessionID, err := s.sessions.Mint(ctx)
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mint cart session")
	}
	s.logg.Info(s.logg.WithCartSession(ctx, sessionID), "cart.session.minted")
	return Anonymous(token, sessionID), nil
}

func (s *service) Resolve(ctx context.Context, ident Identity) (*CartView, error) {
	if ident.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity required")
	}
	if ident.IsPending() {
		return toCartView(nil), nil
	}
	lines, err := s.repo.ListActive(ctx, ident)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}
	return toCartView(lines), nil
}

func (s *service) AddLine(ctx context.Context, ident Identity, productID uuid.UUID, qty int) (*LineView, error) {
	if ident.IsZero() || ident.IsPending() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than 0")
	}
	if _, err := s.products.GetProduct(ctx, productID, visibility.Live); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if err := s.repo.Accumulate(ctx, ident, productID, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert cart line")
	}
	s.metrics.IncLineAdded(ownerLabel(ident))

	line, err := s.repo.FindActive(ctx, ident, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart line")
	}
	view := toLineView(*line)
	return &view, nil
}

func (s *service) UpdateLine(ctx context.Context, ident Identity, productID uuid.UUID, qty int) (*LineView, error) {
	if ident.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than 0")
	}
	if ident.IsPending() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	affected, err := s.repo.SetQuantity(ctx, ident, productID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return &LineView{ProductID: productID, Quantity: qty}, nil
}

func (s *service) RemoveLine(ctx context.Context, ident Identity, productID uuid.UUID) error {
	if ident.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity required")
	}
	if ident.IsPending() {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if _, err := s.repo.FindActive(ctx, ident, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	product, err := s.products.GetProduct(ctx, productID, visibility.History)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product != nil && product.IsProtected {
		return pkgerrors.New(pkgerrors.CodeValidation, "product cannot be removed from the cart")
	}

	affected, err := s.repo.SoftDelete(ctx, ident, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return nil
}

// FindLine returns nil without error when the identity has no active line for productID.
func (s *service) FindLine(ctx context.Context, ident Identity, productID uuid.UUID) (*LineView, error) {
	if ident.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity required")
	}
	if ident.IsPending() {
		return nil, nil
	}
	line, err := s.repo.FindActive(ctx, ident, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	view := toLineView(*line)
	return &view, nil
}

func ownerLabel(ident Identity) string {
	if ident.IsAuthenticated() {
		return metrics.OwnerUser
	}
	return metrics.OwnerSession
}
