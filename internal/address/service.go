package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input Input) (*AddressDTO, error)
	List(ctx context.Context, userID uuid.UUID, includeDeleted bool) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID, includeDeleted bool) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input Input) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*AddressDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	input = normalize(input)
	if err := validate(input); err != nil {
		return nil, err
	}

	address := &models.Address{UserID: userID, Status: enums.StatusActive}
	apply(address, input)
	if err := s.repo.Create(ctx, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	dto := toDTO(*address)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, includeDeleted bool) ([]AddressDTO, error) {
	rows, err := s.repo.List(ctx, userID, visibility.ModeFor(includeDeleted))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID, includeDeleted bool) (*AddressDTO, error) {
	address, err := s.load(ctx, userID, id, visibility.ModeFor(includeDeleted))
	if err != nil {
		return nil, err
	}
	dto := toDTO(*address)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input Input) (*AddressDTO, error) {
	input = normalize(input)
	if err := validate(input); err != nil {
		return nil, err
	}
	address, err := s.load(ctx, userID, id, visibility.Live)
	if err != nil {
		return nil, err
	}
	apply(address, input)
	if err := s.repo.Update(ctx, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	dto := toDTO(*address)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	affected, err := s.repo.SoftDelete(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, userID, id uuid.UUID, mode visibility.Mode) (*models.Address, error) {
	address, err := s.repo.Get(ctx, userID, id, mode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return address, nil
}

func apply(address *models.Address, input Input) {
	address.FullName = input.FullName
	address.Phone = input.Phone
	address.Line1 = input.Line1
	address.Line2 = input.Line2
	address.City = input.City
	address.State = input.State
	address.PostalCode = input.PostalCode
	address.Country = input.Country
}

func normalize(input Input) Input {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Line1 = strings.TrimSpace(input.Line1)
	input.City = strings.TrimSpace(input.City)
	input.State = strings.TrimSpace(input.State)
	input.PostalCode = strings.TrimSpace(input.PostalCode)
	input.Country = strings.ToUpper(strings.TrimSpace(input.Country))
	input.Phone = optional(input.Phone)
	input.Line2 = optional(input.Line2)
	return input
}

func optional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validate(input Input) error {
	required := []struct {
		field string
		value string
	}{
		{"full_name", input.FullName},
		{"line1", input.Line1},
		{"city", input.City},
		{"state", input.State},
		{"postal_code", input.PostalCode},
		{"country", input.Country},
	}
	missing := map[string]string{}
	for _, r := range required {
		if r.value == "" {
			missing[r.field] = "required"
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid address").WithDetails(missing)
	}
	return nil
}
