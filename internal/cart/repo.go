package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeLineIndexPredicate must match the WHERE clause of the partial unique
// indexes on cart_lines so ON CONFLICT can infer them.
const activeLineIndexPredicate = "status = 1"

// Repository persists cart lines for users and anonymous sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context, owner Identity) ([]models.CartLine, error)
	FindActive(ctx context.Context, owner Identity, productID uuid.UUID) (*models.CartLine, error)
	Accumulate(ctx context.Context, owner Identity, productID uuid.UUID, qty int) error
	SetQuantity(ctx context.Context, owner Identity, productID uuid.UUID, qty int) (int64, error)
	SoftDelete(ctx context.Context, owner Identity, productID uuid.UUID) (int64, error)
	SoftDeleteByID(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the cart repository to conn.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func ownedBy(owner Identity) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if owner.IsAuthenticated() {
			return tx.Where("user_id = ?", owner.UserID())
		}
		return tx.Where("session_id = ?", owner.SessionID())
	}
}

func (r *repository) ListActive(ctx context.Context, owner Identity) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Scopes(ownedBy(owner), db.Active).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).Error
	return lines, err
}

func (r *repository) FindActive(ctx context.Context, owner Identity, productID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.db.WithContext(ctx).
		Scopes(ownedBy(owner), db.Active).
		Where("product_id = ?", productID).
		Take(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// Accumulate inserts a fresh active line or adds qty to the existing one in a
// single statement.
func (r *repository) Accumulate(ctx context.Context, owner Identity, productID uuid.UUID, qty int) error {
	line := models.CartLine{
		ProductID: productID,
		Quantity:  qty,
		Status:    enums.StatusActive,
	}
	ownerColumn := "session_id"
	if owner.IsAuthenticated() {
		userID := owner.UserID()
		line.UserID = &userID
		ownerColumn = "user_id"
	} else {
		sessionID := owner.SessionID()
		line.SessionID = &sessionID
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: ownerColumn}, {Name: "product_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: activeLineIndexPredicate}}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_lines.quantity + excluded.quantity"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&line).Error
}

func (r *repository) SetQuantity(ctx context.Context, owner Identity, productID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Scopes(ownedBy(owner), db.Active).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"quantity":   qty,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) SoftDelete(ctx context.Context, owner Identity, productID uuid.UUID) (int64, error) {
	return db.SoftDelete(
		r.db.WithContext(ctx).Scopes(ownedBy(owner), db.Active),
		&models.CartLine{},
		"product_id = ?", productID,
	)
}

func (r *repository) SoftDeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	return db.SoftDelete(r.db.WithContext(ctx), &models.CartLine{}, "id = ?", id)
}

// DeleteSession hard-deletes every row keyed by sessionID, whatever its status.
func (r *repository) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}
