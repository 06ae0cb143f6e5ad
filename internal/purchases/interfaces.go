package purchases

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the purchases table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.Purchase) error
	Get(ctx context.Context, id uuid.UUID, mode visibility.Mode) (*models.Purchase, error)
	GetForUser(ctx context.Context, userID, id uuid.UUID, mode visibility.Mode) (*models.Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID, mode visibility.Mode, params pagination.Params) ([]models.Purchase, error)
	TransitionOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service exposes purchase reads for buyers and status management for admins.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, input ListInput) (*ListResult, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*PurchaseDTO, error)
	GetAny(ctx context.Context, id uuid.UUID, includeDeleted bool) (*PurchaseDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*PurchaseDTO, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID) (*PurchaseDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
