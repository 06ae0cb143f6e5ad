package purchases

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchases repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID, mode visibility.Mode) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		Scopes(visibility.Scope(mode)).
		Where("id = ?", id).
		Take(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) GetForUser(ctx context.Context, userID, id uuid.UUID, mode visibility.Mode) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		Scopes(visibility.Scope(mode)).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, mode visibility.Mode, params pagination.Params) ([]models.Purchase, error) {
	page, err := pagination.Apply("purchases", params)
	if err != nil {
		return nil, err
	}
	var rows []models.Purchase
	err = r.db.WithContext(ctx).
		Scopes(visibility.Scope(mode), page).
		Where("user_id = ?", userID).
		Find(&rows).Error
	return rows, err
}

// TransitionOrderStatus moves an active purchase from one order status to the
// next. Zero rows affected means the purchase changed underneath the caller.
// Completing a purchase always marks it paid.
func (r *repository) TransitionOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	updates := map[string]any{
		"order_status": to,
		"updated_at":   time.Now().UTC(),
	}
	if to == enums.OrderStatusCompleted {
		updates["payment_status"] = true
	}
	res := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Scopes(db.Active).
		Where("id = ? AND order_status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Scopes(db.Active).
		Where("id = ? AND order_status <> ?", id, enums.OrderStatusCancelled).
		Updates(map[string]any{
			"payment_status": true,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) (int64, error) {
	return db.SoftDelete(r.db.WithContext(ctx), &models.Purchase{}, "id = ?", id)
}
