package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/durianworks/backoffice/internal/expenses"
	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/shared"
)

// StorePort describes the persistence the service depends on.
type StorePort interface {
	Create(ctx context.Context, a Admin) (Admin, error)
	FindByLoginID(ctx context.Context, loginID string) (Admin, error)
	FindByID(ctx context.Context, id int64) (Admin, error)
	RecordSalaryAdvance(ctx context.Context, adminID int64, amount decimal.Decimal, at time.Time, remark string) (expenses.Expense, error)
}

// RefreshStore tracks live refresh tokens.
type RefreshStore interface {
	SaveRefresh(ctx context.Context, jti string, adminID int64, ttl time.Duration) error
	ValidRefresh(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error
}

// Service implements login, account management and salary advances.
type Service struct {
	store    StorePort
	tokens   *TokenManager
	refresh  RefreshStore
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the service. A nil clock falls back to time.Now.
func NewService(store StorePort, tokens *TokenManager, refresh RefreshStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    store,
		tokens:   tokens,
		refresh:  refresh,
		validate: validator.New(),
		now:      now,
	}
}

// LoginInput is the login request body.
type LoginInput struct {
	LoginID  string `json:"loginId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the login response payload.
type LoginResult struct {
	TokenPair
	Admin Admin `json:"admin"`
}

// Login verifies credentials and issues a token pair. Unknown accounts and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}

	admin, err := s.store.FindByLoginID(ctx, in.LoginID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: invalid credentials: %w", httpx.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(in.Password)); err != nil {
		return LoginResult{}, fmt.Errorf("auth: invalid credentials: %w", httpx.ErrUnauthorized)
	}

	pair, jti, err := s.tokens.Issue(admin)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.refresh.SaveRefresh(ctx, jti, admin.ID, s.tokens.RefreshTTL()); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{TokenPair: pair, Admin: admin}, nil
}

// RefreshInput is the refresh-token request body.
type RefreshInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Refresh rotates a refresh token: the old jti is revoked and a new pair is
// issued.
func (s *Service) Refresh(ctx context.Context, in RefreshInput) (TokenPair, error) {
	if err := s.validate.Struct(in); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}

	identity, jti, err := s.tokens.Parse(in.RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	live, err := s.refresh.ValidRefresh(ctx, jti)
	if err != nil {
		return TokenPair{}, err
	}
	if !live {
		return TokenPair{}, fmt.Errorf("auth: refresh token revoked: %w", httpx.ErrUnauthorized)
	}

	admin, err := s.store.FindByID(ctx, identity.AdminID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: invalid credentials: %w", httpx.ErrUnauthorized)
	}
	if err := s.refresh.Revoke(ctx, jti); err != nil {
		return TokenPair{}, err
	}

	pair, newJTI, err := s.tokens.Issue(admin)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.refresh.SaveRefresh(ctx, newJTI, admin.ID, s.tokens.RefreshTTL()); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// CreateAccountInput is the create-account request body.
type CreateAccountInput struct {
	Username string `json:"username" validate:"required"`
	LoginID  string `json:"loginId" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN SUPERADMIN"`
	Salary   string `json:"salary"`
}

// CreateAccount registers a new admin. Role defaults to ADMIN.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (Admin, error) {
	if err := s.validate.Struct(in); err != nil {
		return Admin{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}

	salary := decimal.Zero
	if in.Salary != "" {
		var err error
		salary, err = decimal.NewFromString(in.Salary)
		if err != nil {
			return Admin{}, fmt.Errorf("%w: invalid salary %q", httpx.ErrValidation, in.Salary)
		}
	}
	role := in.Role
	if role == "" {
		role = RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Admin{}, fmt.Errorf("auth: hash password: %w", err)
	}

	return s.store.Create(ctx, Admin{
		Username:     in.Username,
		LoginID:      in.LoginID,
		PasswordHash: string(hash),
		Role:         role,
		Salary:       salary,
	})
}

// SalaryAdvanceInput is the request-advanced-salary request body.
type SalaryAdvanceInput struct {
	Amount string `json:"amount" validate:"required"`
}

// RequestSalaryAdvance records an advance for the calling admin and books
// the matching SALARY expense.
func (s *Service) RequestSalaryAdvance(ctx context.Context, identity shared.Identity, in SalaryAdvanceInput) (expenses.Expense, error) {
	if err := s.validate.Struct(in); err != nil {
		return expenses.Expense{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	amount, err := decimal.NewFromString(in.Amount)
	if err != nil || !amount.IsPositive() {
		return expenses.Expense{}, fmt.Errorf("%w: amount must be a positive number", httpx.ErrValidation)
	}

	admin, err := s.store.FindByID(ctx, identity.AdminID)
	if err != nil {
		return expenses.Expense{}, err
	}
	if admin.Salary.IsPositive() && amount.GreaterThan(admin.Salary) {
		return expenses.Expense{}, fmt.Errorf("%w: advance exceeds monthly salary", httpx.ErrValidation)
	}

	remark := fmt.Sprintf("Salary advance for %s", admin.Username)
	return s.store.RecordSalaryAdvance(ctx, admin.ID, amount, s.now(), remark)
}
