package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/config"
	"github.com/floraweave/floraweave-backend/pkg/db"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/pagination"
	"github.com/floraweave/floraweave-backend/pkg/security"
)

const minPasswordLength = 8

// Service manages accounts for storefront customers and back-office staff.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserDTO, error)
	CreateUser(ctx context.Context, actorID uuid.UUID, input CreateInput) (*UserDTO, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	ListUsers(ctx context.Context, input ListInput) (*ListResultDTO, error)
	UpdateUser(ctx context.Context, actorID, userID uuid.UUID, input UpdateInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
}

// RegisterInput is the public storefront signup payload.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    *string
}

// CreateInput is the back-office variant; it may assign any role.
type CreateInput struct {
	Email    string
	Password string
	FullName string
	Phone    *string
	Role     enums.UserRole
}

// UpdateInput mutates profile fields, active flag, or role.
type UpdateInput struct {
	FullName *string
	Phone    *string
	IsActive *bool
	Role     *enums.UserRole
}

// ListInput filters and paginates the account listing.
type ListInput struct {
	Role   *enums.UserRole
	Limit  int
	Cursor string
}

// UserDTO is the account as exposed over the API; never the hash.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ListResultDTO is one cursor page of accounts.
type ListResultDTO struct {
	Users      []UserDTO `json:"users"`
	NextCursor *string   `json:"next_cursor,omitempty"`
}

type auditWriter interface {
	Record(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail *string) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	audit    auditWriter
	password config.PasswordConfig
	logg     *logger.Logger
}

// NewService constructs a user service instance.
func NewService(repo *Repository, dbClient *db.Client, audit auditWriter, password config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit writer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, audit: audit, password: password, logg: logg}, nil
}

// Register creates a customer account from the storefront signup form.
func (s *service) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	user, err := s.createAccount(ctx, input.Email, input.Password, input.FullName, input.Phone, enums.UserRoleCustomer)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "user_id", user.ID.String()), "customer registered")
	dto := toDTO(user)
	return &dto, nil
}

// CreateUser creates an account with an explicit role; back-office use.
func (s *service) CreateUser(ctx context.Context, actorID uuid.UUID, input CreateInput) (*UserDTO, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	user, err := s.createAccount(ctx, input.Email, input.Password, input.FullName, input.Phone, input.Role)
	if err != nil {
		return nil, err
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.audit.Record(ctx, tx, actorID, "user.create", "user", user.ID, nil)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording audit entry")
	}

	dto := toDTO(user)
	return &dto, nil
}

func (s *service) createAccount(ctx context.Context, email, password, fullName string, phone *string, role enums.UserRole) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)
	if err := validateAccount(email, password, fullName); err != nil {
		return nil, err
	}

	taken, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking email")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	}

	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Phone:        phone,
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating user")
	}
	return user, nil
}

// GetUser loads one account.
func (s *service) GetUser(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOrInternal(err, "user not found", "loading user")
	}
	dto := toDTO(user)
	return &dto, nil
}

// ListUsers returns one cursor page of accounts.
func (s *service) ListUsers(ctx context.Context, input ListInput) (*ListResultDTO, error) {
	if input.Role != nil && !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}
	rows, err := s.repo.List(ctx, input.Role, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing users")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &ListResultDTO{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	result.Users = make([]UserDTO, len(rows))
	for i := range rows {
		result.Users[i] = toDTO(&rows[i])
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result, nil
}

// UpdateUser mutates profile fields, the active flag, or the role. Actors
// cannot deactivate or demote themselves.
func (s *service) UpdateUser(ctx context.Context, actorID, userID uuid.UUID, input UpdateInput) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOrInternal(err, "user not found", "loading user")
	}

	if actorID == userID {
		if input.IsActive != nil && !*input.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "you cannot deactivate your own account")
		}
		if input.Role != nil && *input.Role != user.Role {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "you cannot change your own role")
		}
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
		}
		user.FullName = name
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		user.Role = *input.Role
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating user")
		}
		return s.audit.Record(ctx, tx, actorID, "user.update", "user", user.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	dto := toDTO(user)
	return &dto, nil
}

// ChangePassword swaps the hash after verifying the current password.
func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return notFoundOrInternal(err, "user not found", "loading user")
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(next, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}
	user.PasswordHash = hash

	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating user")
	}
	return nil
}

// VerifyCredentials authenticates an email/password pair and returns the
// account when it is active. The auth layer builds tokens on top of this.
func (s *service) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
	}
	return user, nil
}

func validateAccount(email, password, fullName string) error {
	errs := map[string]string{}
	if email == "" {
		errs["email"] = "email is required"
	} else if !strings.Contains(email, "@") {
		errs["email"] = "email is invalid"
	}
	if len(password) < minPasswordLength {
		errs["password"] = fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	}
	if fullName == "" {
		errs["fullName"] = "full name is required"
	}
	if len(errs) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "account failed validation").WithDetails(errs)
	}
	return nil
}

func toDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Phone:     user.Phone,
		Role:      user.Role.String(),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

func notFoundOrInternal(err error, notFoundMsg, internalMsg string) error {
	if IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, internalMsg)
}
