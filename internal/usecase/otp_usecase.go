package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"app/internal/domain/model"
	"app/internal/notifier"
	repo "app/internal/repository"
)

// コードの有効期限
const otpTTL = 10 * time.Minute

type OtpUsecase struct {
	users      repo.UserRepository
	otps       repo.OtpRepository
	dispatcher *notifier.Dispatcher
}

func NewOtpUsecase(users repo.UserRepository, otps repo.OtpRepository, dispatcher *notifier.Dispatcher) *OtpUsecase {
	return &OtpUsecase{users: users, otps: otps, dispatcher: dispatcher}
}

type ForgotPasswordInput struct {
	Email string `json:"email"`
}

type VerifyOtpInput struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

type ResetPasswordInput struct {
	Email       string `json:"email"`
	Otp         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// パスワード再設定コードを発行してメール送信。
// 未登録メールでも成功を返す（存在の漏洩防止）。
func (u *OtpUsecase) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return newValidationError("email is required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return newPersistenceError()
	}

	code, err := generateOtpCode()
	if err != nil {
		return newPersistenceError()
	}

	//古いコードは捨ててから発行
	if err := u.otps.DeleteByUser(ctx, user.ID, model.OtpPurposePasswordReset); err != nil {
		return newPersistenceError()
	}
	otp := model.Otp{
		UserID:    user.ID,
		Code:      code,
		Purpose:   model.OtpPurposePasswordReset,
		ExpiresAt: time.Now().Add(otpTTL),
	}
	if err := u.otps.Create(ctx, otp); err != nil {
		return newPersistenceError()
	}

	body := fmt.Sprintf("Your password reset code is %s.\nIt expires in %d minutes.", code, int(otpTTL.Minutes()))
	u.dispatcher.DispatchMail(user.Email, "Password Reset Code", body)

	return nil
}

// コード検証。成功したらverifiedを立てる。
// ResetPasswordはverified済みのコードしか受け付けない。
func (u *OtpUsecase) VerifyOtp(ctx context.Context, in VerifyOtpInput) error {
	otp, _, err := u.findValidOtp(ctx, in.Email, in.Otp, false)
	if err != nil {
		return err
	}
	if err := u.otps.MarkVerified(ctx, otp.ID); err != nil {
		return newPersistenceError()
	}
	return nil
}

// コード付きでパスワードを更新。VerifyOtp済みのコードのみ有効。
// 成功後はコードを全て破棄する。
func (u *OtpUsecase) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if len(in.NewPassword) < 8 {
		return newValidationError("password must be at least 8 characters")
	}

	_, user, err := u.findValidOtp(ctx, in.Email, in.Otp, true)
	if err != nil {
		return err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return newPersistenceError()
	}
	if err := u.users.UpdatePasswordHash(ctx, user.ID, string(pwHash)); err != nil {
		return newPersistenceError()
	}

	//単回使用
	if err := u.otps.DeleteByUser(ctx, user.ID, model.OtpPurposePasswordReset); err != nil {
		return newPersistenceError()
	}
	return nil
}

// メール＋コードから有効なOTPを引く。不正・期限切れは同じエラーにする。
// verifiedは検証ステップならfalse、リセットステップならtrue。
func (u *OtpUsecase) findValidOtp(ctx context.Context, email string, code string, verified bool) (model.Otp, model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return model.Otp{}, model.User{}, newValidationError("email and otp are required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Otp{}, model.User{}, newValidationError("invalid or expired otp")
	}
	if err != nil {
		return model.Otp{}, model.User{}, newPersistenceError()
	}

	otp, err := u.otps.FindLatest(ctx, user.ID, model.OtpPurposePasswordReset, verified)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Otp{}, model.User{}, newValidationError("invalid or expired otp")
	}
	if err != nil {
		return model.Otp{}, model.User{}, newPersistenceError()
	}

	if otp.Code != code {
		return model.Otp{}, model.User{}, newValidationError("invalid or expired otp")
	}
	if time.Now().After(otp.ExpiresAt) {
		//期限切れの行はその場で掃除する
		_ = u.otps.DeleteByID(ctx, otp.ID)
		return model.Otp{}, model.User{}, newValidationError("invalid or expired otp")
	}
	return otp, user, nil
}

// 6桁の数字コード
func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
