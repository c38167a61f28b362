package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durianworks/backoffice/internal/expenses"
	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/shared"
)

// memAdminStore keeps accounts in memory.
type memAdminStore struct {
	admins   map[string]Admin
	nextID   int64
	advances []decimal.Decimal
}

func newMemAdminStore() *memAdminStore {
	return &memAdminStore{admins: map[string]Admin{}}
}

func (s *memAdminStore) Create(_ context.Context, a Admin) (Admin, error) {
	if _, taken := s.admins[a.LoginID]; taken {
		return Admin{}, httpx.ErrDuplicate
	}
	s.nextID++
	a.ID = s.nextID
	s.admins[a.LoginID] = a
	return a, nil
}

func (s *memAdminStore) FindByLoginID(_ context.Context, loginID string) (Admin, error) {
	a, ok := s.admins[loginID]
	if !ok {
		return Admin{}, httpx.ErrNotFound
	}
	return a, nil
}

func (s *memAdminStore) FindByID(_ context.Context, id int64) (Admin, error) {
	for _, a := range s.admins {
		if a.ID == id {
			return a, nil
		}
	}
	return Admin{}, httpx.ErrNotFound
}

func (s *memAdminStore) RecordSalaryAdvance(_ context.Context, adminID int64, amount decimal.Decimal, at time.Time, remark string) (expenses.Expense, error) {
	s.advances = append(s.advances, amount)
	return expenses.Expense{
		ID:             int64(len(s.advances)),
		ExpensesType:   "SALARY",
		ExpensesAmount: amount,
		Date:           at,
		Remark:         remark,
	}, nil
}

func newTestService(t *testing.T) (*Service, *memAdminStore, *TokenManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	tokens := NewTokenManager("test-secret", time.Hour, 8*time.Hour, nil)
	store := newMemAdminStore()
	svc := NewService(store, tokens, NewTokenStore(rdb), nil)
	return svc, store, tokens
}

func createAccount(t *testing.T, svc *Service, loginID, password, role string, salary string) Admin {
	t.Helper()
	admin, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Username: "Tan " + loginID,
		LoginID:  loginID,
		Password: password,
		Role:     role,
		Salary:   salary,
	})
	require.NoError(t, err)
	return admin
}

func TestCreateAccount(t *testing.T) {
	svc, store, _ := newTestService(t)

	admin := createAccount(t, svc, "tan01", "secret-password", "", "3000")
	assert.Equal(t, RoleAdmin, admin.Role)
	assert.True(t, admin.Salary.Equal(decimal.RequireFromString("3000")))

	stored := store.admins["tan01"]
	assert.NotEqual(t, "secret-password", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestCreateAccountDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	createAccount(t, svc, "tan01", "secret-password", "", "")

	_, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Username: "Other",
		LoginID:  "tan01",
		Password: "another-secret",
	})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestCreateAccountValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Username: "Tan",
		LoginID:  "tan01",
		Password: "short",
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateAccount(context.Background(), CreateAccountInput{
		Username: "Tan",
		LoginID:  "tan01",
		Password: "secret-password",
		Role:     "ROOT",
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestLogin(t *testing.T) {
	svc, _, tokens := newTestService(t)
	createAccount(t, svc, "tan01", "secret-password", RoleSuperAdmin, "")

	result, err := svc.Login(context.Background(), LoginInput{LoginID: "tan01", Password: "secret-password"})
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	identity, _, err := tokens.Parse(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tan01", identity.LoginID)
	assert.True(t, identity.IsSuperAdmin())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	createAccount(t, svc, "tan01", "secret-password", "", "")

	_, err := svc.Login(context.Background(), LoginInput{LoginID: "tan01", Password: "wrong"})
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	_, err = svc.Login(context.Background(), LoginInput{LoginID: "ghost", Password: "secret-password"})
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	createAccount(t, svc, "tan01", "secret-password", "", "")

	login, err := svc.Login(context.Background(), LoginInput{LoginID: "tan01", Password: "secret-password"})
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), RefreshInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	// The old refresh token is revoked on rotation.
	_, err = svc.Refresh(context.Background(), RefreshInput{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	_, err = svc.Refresh(context.Background(), RefreshInput{RefreshToken: pair.RefreshToken})
	assert.NoError(t, err)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Refresh(context.Background(), RefreshInput{RefreshToken: "not-a-token"})
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestRequestSalaryAdvance(t *testing.T) {
	svc, store, _ := newTestService(t)
	admin := createAccount(t, svc, "tan01", "secret-password", "", "3000")
	identity := shared.Identity{AdminID: admin.ID, LoginID: admin.LoginID, Role: admin.Role}

	recorded, err := svc.RequestSalaryAdvance(context.Background(), identity, SalaryAdvanceInput{Amount: "500"})
	require.NoError(t, err)
	assert.Equal(t, "SALARY", recorded.ExpensesType)
	assert.True(t, recorded.ExpensesAmount.Equal(decimal.RequireFromString("500")))
	assert.Contains(t, recorded.Remark, "Tan tan01")
	require.Len(t, store.advances, 1)
}

func TestRequestSalaryAdvanceValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	admin := createAccount(t, svc, "tan01", "secret-password", "", "3000")
	identity := shared.Identity{AdminID: admin.ID, LoginID: admin.LoginID, Role: admin.Role}

	_, err := svc.RequestSalaryAdvance(context.Background(), identity, SalaryAdvanceInput{Amount: "-10"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.RequestSalaryAdvance(context.Background(), identity, SalaryAdvanceInput{Amount: "5000"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.RequestSalaryAdvance(context.Background(), identity, SalaryAdvanceInput{})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
