package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the purchases service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, input ListInput) (*ListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, userID, visibility.ModeFor(input.IncludeDeleted), input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}

	dtos := make([]PurchaseDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ToDTO(row))
	}
	page := pagination.Build(dtos, input.Pagination.Limit, func(p PurchaseDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})

	total := decimal.Zero
	for _, item := range page.Items {
		total = total.Add(item.Total)
	}
	return &ListResult{Page: page, PageTotal: total}, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*PurchaseDTO, error) {
	purchase, err := s.repo.GetForUser(ctx, userID, id, visibility.Live)
	if err != nil {
		return nil, notFoundOr(err, "load purchase")
	}
	dto := ToDTO(*purchase)
	return &dto, nil
}

func (s *service) GetAny(ctx context.Context, id uuid.UUID, includeDeleted bool) (*PurchaseDTO, error) {
	purchase, err := s.repo.Get(ctx, id, visibility.ModeFor(includeDeleted))
	if err != nil {
		return nil, notFoundOr(err, "load purchase")
	}
	dto := ToDTO(*purchase)
	return &dto, nil
}

// UpdateStatus applies one order status transition. COMPLETED also marks the
// purchase paid.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*PurchaseDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", next)
	}

	var result PurchaseDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.Get(ctx, id, visibility.Live)
		if err != nil {
			return notFoundOr(err, "load purchase")
		}
		if !current.OrderStatus.CanTransitionTo(next) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "purchase cannot move from %s to %s", current.OrderStatus, next)
		}
		affected, err := repo.TransitionOrderStatus(ctx, id, current.OrderStatus, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase was modified concurrently")
		}
		updated, err := repo.Get(ctx, id, visibility.Live)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload purchase")
		}
		result = ToDTO(*updated)
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(err, pkgerrors.CodeInternal, "update purchase status")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"purchase_id":  id.String(),
		"order_status": next.String(),
	})
	s.logg.Info(logCtx, "purchase.status.updated")
	return &result, nil
}

// ConfirmPayment marks a purchase paid. Paying twice is a no-op; cancelled
// purchases cannot be paid.
func (s *service) ConfirmPayment(ctx context.Context, id uuid.UUID) (*PurchaseDTO, error) {
	current, err := s.repo.Get(ctx, id, visibility.Live)
	if err != nil {
		return nil, notFoundOr(err, "load purchase")
	}
	if current.PaymentStatus {
		dto := ToDTO(*current)
		return &dto, nil
	}
	if current.OrderStatus == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled purchases cannot be paid")
	}
	if _, err := s.repo.MarkPaid(ctx, id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark purchase paid")
	}
	current.PaymentStatus = true
	dto := ToDTO(*current)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete purchase")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	return nil
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
