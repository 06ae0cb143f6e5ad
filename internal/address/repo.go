package address

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes user-scoped address persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, address *models.Address) error
	Get(ctx context.Context, userID, id uuid.UUID, mode visibility.Mode) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID, mode visibility.Mode) ([]models.Address, error)
	Update(ctx context.Context, address *models.Address) error
	SoftDelete(ctx context.Context, userID, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the address repository to conn.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *repository) Get(ctx context.Context, userID, id uuid.UUID, mode visibility.Mode) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).
		Scopes(visibility.Scope(mode)).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) List(ctx context.Context, userID uuid.UUID, mode visibility.Mode) ([]models.Address, error) {
	var addresses []models.Address
	err := r.db.WithContext(ctx).
		Scopes(visibility.Scope(mode)).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&addresses).Error
	return addresses, err
}

func (r *repository) Update(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Save(address).Error
}

func (r *repository) SoftDelete(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	return db.SoftDelete(r.db.WithContext(ctx), &models.Address{}, "id = ? AND user_id = ?", id, userID)
}
