package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes admin user management.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID, includeDeleted bool) (*UserDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*UserDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListInput drives the admin user listing.
type ListInput struct {
	IncludeDeleted bool
	Pagination     pagination.Params
}

// UpdateInput holds optional admin edits.
type UpdateInput struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	RegionCode   *string
	Currency     *enums.Currency
	IsAdmin      *bool
	IsStaff      *bool
	IsSuperAdmin *bool
	Status       *enums.StatusCode
}

type service struct {
	repo *Repository
}

// NewService builds the admin users service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, visibility.ModeFor(input.IncludeDeleted), input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	dtos := make([]UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	page := pagination.Build(dtos, input.Pagination.Limit, func(u UserDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	})
	return &page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, includeDeleted bool) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id, visibility.ModeFor(includeDeleted))
	if err != nil {
		return nil, notFoundOr(err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id, visibility.History)
	if err != nil {
		return nil, notFoundOr(err, "load user")
	}
	if user.Status == enums.StatusDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.RegionCode != nil {
		user.RegionCode = input.RegionCode
	}
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid currency %q", *input.Currency)
		}
		user.Currency = *input.Currency
	}
	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}
	if input.IsSuperAdmin != nil {
		user.IsSuperAdmin = *input.IsSuperAdmin
	}
	if input.Status != nil {
		if err := visibility.EnsureTransition(user.Status, *input.Status, "user"); err != nil {
			return nil, err
		}
		user.Status = *input.Status
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
