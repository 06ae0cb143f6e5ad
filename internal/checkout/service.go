package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/purchases"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts carts or single products into purchases.
type Service interface {
	PurchaseCart(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID) (*Result, error)
	PurchaseProduct(ctx context.Context, userID uuid.UUID, input ProductInput) (*Result, error)
}

// ProductInput describes a direct buy that bypasses the cart.
type ProductInput struct {
	ProductID uuid.UUID
	Quantity  int
	AddressID *uuid.UUID
}

// Result lists the purchases created by one checkout and their combined total.
type Result struct {
	Purchases []purchases.PurchaseDTO `json:"purchases"`
	Total     decimal.Decimal         `json:"total"`
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Cart      cart.Repository
	Products  product.Repository
	Purchases purchases.Repository
	Addresses address.Repository
	Metrics   *metrics.CommerceMetrics
}

type service struct {
	logg      *logger.Logger
	tx        txRunner
	cart      cart.Repository
	products  product.Repository
	purchases purchases.Repository
	addresses address.Repository
	metrics   *metrics.CommerceMetrics
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Purchases == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{
		logg:      params.Logger,
		tx:        params.DB,
		cart:      params.Cart,
		products:  params.Products,
		purchases: params.Purchases,
		addresses: params.Addresses,
		metrics:   params.Metrics,
		now:       time.Now,
	}, nil
}

// repos is the set of repositories bound to one checkout transaction.
type repos struct {
	cart      cart.Repository
	products  product.Repository
	purchases purchases.Repository
	addresses address.Repository
}

func (s *service) bind(tx *gorm.DB) repos {
	return repos{
		cart:      s.cart.WithTx(tx),
		products:  s.products.WithTx(tx),
		purchases: s.purchases.WithTx(tx),
		addresses: s.addresses.WithTx(tx),
	}
}

// PurchaseCart turns every active line of the user's cart into a paid
// purchase. Either every line converts or nothing changes.
func (s *service) PurchaseCart(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	ctx = s.logg.WithUserID(ctx, userID.String())
	started := s.now()

	var created []models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.bind(tx)
		lines, err := r.cart.ListActive(ctx, cart.Authenticated(userID))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		snapshot, err := shippingSnapshot(ctx, r.addresses, userID, addressID)
		if err != nil {
			return err
		}

		created = make([]models.Purchase, 0, len(lines))
		for _, line := range lines {
			p, err := r.products.GetProduct(ctx, line.ProductID, visibility.Live)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Newf(pkgerrors.CodeValidation, "product %s is no longer available", line.ProductID)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if err := decrementStock(ctx, r.products, p.ID, line.Quantity); err != nil {
				return err
			}

			purchase := models.Purchase{
				UserID:           userID,
				ProductID:        p.ID,
				AddressID:        addressID,
				Quantity:         line.Quantity,
				ProductPrice:     p.OfferPrice,
				PaymentStatus:    true,
				OrderStatus:      enums.OrderStatusOrdered,
				ShippingSnapshot: snapshot,
				Status:           enums.StatusActive,
			}
			if err := r.purchases.Create(ctx, &purchase); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
			}
			if _, err := r.cart.SoftDeleteByID(ctx, line.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
			}
			created = append(created, purchase)
		}
		return nil
	})
	if err != nil {
		s.metrics.IncCheckoutFailure(metrics.PathCart)
		s.logg.WarnErr(ctx, "checkout.cart.failed", err)
		return nil, pkgerrors.Ensure(err, pkgerrors.CodeInternal, "checkout cart")
	}

	s.metrics.ObserveCheckout(metrics.PathCart, len(created), s.now().Sub(started))
	result := buildResult(created)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"purchases": len(created),
		"total":     result.Total.String(),
	}), "checkout.cart.completed")
	return result, nil
}

// PurchaseProduct buys one product directly. The purchase starts unpaid.
func (s *service) PurchaseProduct(ctx context.Context, userID uuid.UUID, input ProductInput) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than 0")
	}
	ctx = s.logg.WithUserID(ctx, userID.String())
	started := s.now()

	var purchase models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.bind(tx)
		p, err := r.products.GetProduct(ctx, input.ProductID, visibility.Live)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		snapshot, err := shippingSnapshot(ctx, r.addresses, userID, input.AddressID)
		if err != nil {
			return err
		}
		if err := decrementStock(ctx, r.products, p.ID, input.Quantity); err != nil {
			return err
		}

		purchase = models.Purchase{
			UserID:           userID,
			ProductID:        p.ID,
			AddressID:        input.AddressID,
			Quantity:         input.Quantity,
			ProductPrice:     p.OfferPrice,
			PaymentStatus:    false,
			OrderStatus:      enums.OrderStatusOrdered,
			ShippingSnapshot: snapshot,
			Status:           enums.StatusActive,
		}
		if err := r.purchases.Create(ctx, &purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncCheckoutFailure(metrics.PathProduct)
		s.logg.WarnErr(ctx, "checkout.product.failed", err)
		return nil, pkgerrors.Ensure(err, pkgerrors.CodeInternal, "checkout product")
	}

	s.metrics.ObserveCheckout(metrics.PathProduct, 1, s.now().Sub(started))
	s.logg.Info(s.logg.WithPurchaseID(ctx, purchase.ID.String()), "checkout.product.completed")
	return buildResult([]models.Purchase{purchase}), nil
}

func decrementStock(ctx context.Context, products product.Repository, productID uuid.UUID, qty int) error {
	ok, err := products.DecrementStock(ctx, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "insufficient stock for product %s", productID).
			WithDetails(map[string]any{"product_id": productID, "requested": qty})
	}
	return nil
}

// shippingSnapshot copies the chosen address so later edits do not rewrite
// where an order was sent.
func shippingSnapshot(ctx context.Context, addresses address.Repository, userID uuid.UUID, addressID *uuid.UUID) (datatypes.JSON, error) {
	if addressID == nil {
		return nil, nil
	}
	addr, err := addresses.Get(ctx, userID, *addressID, visibility.Live)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	payload, err := json.Marshal(snapshotOf(*addr))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode shipping snapshot")
	}
	return datatypes.JSON(payload), nil
}

type addressSnapshot struct {
	FullName   string  `json:"full_name"`
	Phone      *string `json:"phone,omitempty"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

func snapshotOf(a models.Address) addressSnapshot {
	return addressSnapshot{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func buildResult(rows []models.Purchase) *Result {
	result := &Result{
		Purchases: make([]purchases.PurchaseDTO, 0, len(rows)),
		Total:     decimal.Zero,
	}
	for _, row := range rows {
		dto := purchases.ToDTO(row)
		result.Purchases = append(result.Purchases, dto)
		result.Total = result.Total.Add(dto.Total)
	}
	return result
}
