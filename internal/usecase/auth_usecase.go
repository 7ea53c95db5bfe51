package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"
)

// access tokenの有効期限
const accessTokenTTL = 24 * time.Hour

type AuthUsecase struct {
	cfg   config.Config
	users repo.UserRepository
}

func NewAuthUsecase(cfg config.Config, users repo.UserRepository) *AuthUsecase {
	return &AuthUsecase{cfg: cfg, users: users}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserOutput struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginOutput struct {
	User      UserOutput `json:"user"`
	Token     string     `json:"token"`
	ExpiresIn int        `json:"expires_in"`
}

// ユーザー登録。メール重複はconflict。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return UserOutput{}, newValidationError("invalid email")
	}
	if len(in.Password) < 8 {
		return UserOutput{}, newValidationError("password must be at least 8 characters")
	}
	if strings.TrimSpace(in.Name) == "" {
		return UserOutput{}, newValidationError("name is required")
	}

	//重複チェック（unique制約もあるが先に弾いてメッセージを安定させる）
	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return UserOutput{}, newConflictError("email already registered")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return UserOutput{}, newPersistenceError()
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserOutput{}, newPersistenceError()
	}

	user := &model.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return UserOutput{}, newConflictError("email already registered")
	}

	return toUserOutput(*user), nil
}

// ログイン。失敗理由は区別せず401。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return LoginOutput{}, newValidationError("email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return LoginOutput{}, newUnauthorizedError()
	}
	if err != nil {
		return LoginOutput{}, newPersistenceError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return LoginOutput{}, newUnauthorizedError()
	}

	token, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return LoginOutput{}, newPersistenceError()
	}

	return LoginOutput{
		User:      toUserOutput(user),
		Token:     token,
		ExpiresIn: expiresIn,
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserOutput, error) {
	if userID <= 0 {
		return UserOutput{}, newUnauthorizedError()
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return UserOutput{}, newUnauthorizedError()
	}
	if err != nil {
		return UserOutput{}, newPersistenceError()
	}
	return toUserOutput(user), nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user model.User) (string, int, error) {
	now := time.Now()
	exp := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}
	return signed, int(accessTokenTTL.Seconds()), nil
}

func toUserOutput(u model.User) UserOutput {
	return UserOutput{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}
