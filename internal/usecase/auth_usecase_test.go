package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type AuthUserRepoMock struct{ mock.Mock }

func (m *AuthUserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *AuthUserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *AuthUserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *AuthUserRepoMock) UpdateShippingAddress(ctx context.Context, userID int64, addr model.User) error {
	args := m.Called(ctx, userID, addr)
	return args.Error(0)
}

func (m *AuthUserRepoMock) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func authTestConfig() config.Config {
	return config.Config{JWTSecret: "unit-test-secret"}
}

func TestAuthUsecase_Register(t *testing.T) {
	users := new(AuthUserRepoMock)
	uc := usecase.NewAuthUsecase(authTestConfig(), users)

	users.On("FindByEmail", mock.Anything, "new@example.com").Return(model.User{}, repo.ErrNotFound)
	users.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.Register(context.Background(), usecase.RegisterInput{
		Name: "New User", Email: "New@Example.com", Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), out.ID)
	//メールは小文字で保存される
	assert.Equal(t, "new@example.com", out.Email)
	assert.Equal(t, "USER", out.Role)

	//ハッシュ化されたパスワードが渡っていること
	users.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		if u.PasswordHash == "password123" || u.PasswordHash == "" {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
	}))
}

func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	users := new(AuthUserRepoMock)
	uc := usecase.NewAuthUsecase(authTestConfig(), users)

	users.On("FindByEmail", mock.Anything, "taken@example.com").Return(model.User{ID: 7}, nil)

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Name: "X", Email: "taken@example.com", Password: "password123",
	})

	assertHTTPErr(t, err, http.StatusConflict, usecase.KindConflict)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Register_ShortPassword(t *testing.T) {
	uc := usecase.NewAuthUsecase(authTestConfig(), new(AuthUserRepoMock))

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Name: "X", Email: "x@example.com", Password: "short",
	})
	assertHTTPErr(t, err, http.StatusBadRequest, usecase.KindValidation)
}

func TestAuthUsecase_Login(t *testing.T) {
	users := new(AuthUserRepoMock)
	uc := usecase.NewAuthUsecase(authTestConfig(), users)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	users.On("FindByEmail", mock.Anything, "user@example.com").Return(model.User{
		ID: 42, Email: "user@example.com", PasswordHash: string(hash), Role: model.RoleAdmin,
	}, nil)

	out, err := uc.Login(context.Background(), usecase.LoginInput{
		Email: "user@example.com", Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), out.User.ID)
	assert.NotEmpty(t, out.Token)

	//発行されたtokenが自分のsecretで検証できて、claimsが正しいこと
	token, err := jwt.Parse(out.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("unit-test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, "ADMIN", claims["role"])
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	users := new(AuthUserRepoMock)
	uc := usecase.NewAuthUsecase(authTestConfig(), users)

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	users.On("FindByEmail", mock.Anything, "user@example.com").Return(model.User{
		ID: 42, PasswordHash: string(hash),
	}, nil)

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email: "user@example.com", Password: "wrong-password",
	})
	assertHTTPErr(t, err, http.StatusUnauthorized, usecase.KindValidation)
}

func TestAuthUsecase_Login_UnknownEmail(t *testing.T) {
	users := new(AuthUserRepoMock)
	uc := usecase.NewAuthUsecase(authTestConfig(), users)

	users.On("FindByEmail", mock.Anything, "no@example.com").Return(model.User{}, repo.ErrNotFound)

	//メールの存在は漏らさない（パスワード違いと同じ401）
	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email: "no@example.com", Password: "whatever1",
	})
	assertHTTPErr(t, err, http.StatusUnauthorized, usecase.KindValidation)
}
