package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/notifier"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type OtpRepoMock struct{ mock.Mock }

func (m *OtpRepoMock) Create(ctx context.Context, otp model.Otp) error {
	args := m.Called(ctx, otp)
	return args.Error(0)
}

func (m *OtpRepoMock) FindLatest(ctx context.Context, userID int64, purpose model.OtpPurpose, verifiedOnly bool) (model.Otp, error) {
	args := m.Called(ctx, userID, purpose, verifiedOnly)
	o, _ := args.Get(0).(model.Otp)
	return o, args.Error(1)
}

func (m *OtpRepoMock) MarkVerified(ctx context.Context, otpID int64) error {
	args := m.Called(ctx, otpID)
	return args.Error(0)
}

func (m *OtpRepoMock) DeleteByID(ctx context.Context, otpID int64) error {
	args := m.Called(ctx, otpID)
	return args.Error(0)
}

func (m *OtpRepoMock) DeleteByUser(ctx context.Context, userID int64, purpose model.OtpPurpose) error {
	args := m.Called(ctx, userID, purpose)
	return args.Error(0)
}

type otpFixture struct {
	users *AuthUserRepoMock
	otps  *OtpRepoMock
	notif *recordingNotifier
	uc    *usecase.OtpUsecase
}

func newOtpFixture() *otpFixture {
	f := &otpFixture{
		users: new(AuthUserRepoMock),
		otps:  new(OtpRepoMock),
		notif: &recordingNotifier{},
	}
	dispatcher := notifier.NewDispatcher(f.notif, discardLogger())
	f.uc = usecase.NewOtpUsecase(f.users, f.otps, dispatcher)
	return f
}

func TestOtpUsecase_ForgotPassword_SendsCode(t *testing.T) {
	f := newOtpFixture()

	f.users.On("FindByEmail", mock.Anything, "user@example.com").Return(model.User{
		ID: 1, Email: "user@example.com",
	}, nil)
	f.otps.On("DeleteByUser", mock.Anything, int64(1), model.OtpPurposePasswordReset).Return(nil)
	f.otps.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := f.uc.ForgotPassword(context.Background(), usecase.ForgotPasswordInput{Email: "user@example.com"})

	assert.NoError(t, err)
	//6桁の数字コードで、期限は未来
	f.otps.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(o model.Otp) bool {
		if len(o.Code) != 6 {
			return false
		}
		for _, ch := range o.Code {
			if ch < '0' || ch > '9' {
				return false
			}
		}
		return o.UserID == 1 && o.Purpose == model.OtpPurposePasswordReset && o.ExpiresAt.After(time.Now())
	}))
	assert.Eventually(t, func() bool { return f.notif.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestOtpUsecase_ForgotPassword_UnknownEmailStillSucceeds(t *testing.T) {
	f := newOtpFixture()

	f.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(model.User{}, repo.ErrNotFound)

	//登録の有無を漏らさないため成功を返す
	err := f.uc.ForgotPassword(context.Background(), usecase.ForgotPasswordInput{Email: "ghost@example.com"})

	assert.NoError(t, err)
	f.otps.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.notif.count())
}

// 発行→検証→再設定の一連の流れ
func TestOtpUsecase_VerifyThenResetPassword(t *testing.T) {
	f := newOtpFixture()

	f.users.On("FindByEmail", mock.Anything, "user@example.com").Return(model.User{ID: 1, Email: "user@example.com"}, nil)
	//検証前は未検証の行が見える
	f.otps.On("FindLatest", mock.Anything, int64(1), model.OtpPurposePasswordReset, false).Return(model.Otp{
		ID: 5, UserID: 1, Code: "123456", Purpose: model.OtpPurposePasswordReset,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}, nil)
	f.otps.On("MarkVerified", mock.Anything, int64(5)).Return(nil)
	//検証後はverified側の検索で同じ行が見える
	f.otps.On("FindLatest", mock.Anything, int64(1), model.OtpPurposePasswordReset, true).Return(model.Otp{
		ID: 5, UserID: 1, Code: "123456", Purpose: model.OtpPurposePasswordReset,
		ExpiresAt: time.Now().Add(5 * time.Minute), Verified: true,
	}, nil)
	f.users.On("UpdatePasswordHash", mock.Anything, int64(1), mock.AnythingOfType("string")).Return(nil)
	f.otps.On("DeleteByUser", mock.Anything, int64(1), model.OtpPurposePasswordReset).Return(nil)

	err := f.uc.VerifyOtp(context.Background(), usecase.VerifyOtpInput{Email: "user@example.com", Otp: "123456"})
	assert.NoError(t, err)

	err = f.uc.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Email: "user@example.com", Otp: "123456", NewPassword: "newpassword1",
	})

	assert.NoError(t, err)
	f.users.AssertCalled(t, "UpdatePasswordHash", mock.Anything, int64(1), mock.AnythingOfType("string"))
	//単回使用。成功後にコードは破棄
	f.otps.AssertCalled(t, "DeleteByUser", mock.Anything, int64(1), model.OtpPurposePasswordReset)
}

// 検証を飛ばした再設定は通さない
func TestOtpUsecase_ResetPassword_WithoutVerify(t *testing.T) {
	f := newOtpFixture()

	f.users.On("FindByEmail", mock.Anything, "user@example.com").Return(model.User{ID: 1}, nil)
	f.otps.On("FindLatest", mock.Anything, int64(1), model.OtpPurposePasswordReset, true).Return(model.Otp{}, repo.ErrNotFound)

	err := f.uc.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Email: "user@example.com", Otp: "123456", NewPassword: "newpassword1",
	})

	assertHTTPErr(t, err, http.StatusBadRequest, usecase.KindValidation)
	f.users.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
}

func TestOtpUsecase_ResetPassword_WrongCode(t *testing.T) {
	f := newOtpFixture()

	f.users.On("FindByEmail", mock.Anything, "user@example.com").Return(model.User{ID: 1}, nil)
	f.otps.On("FindLatest", mock.Anything, int64(1), model.OtpPurposePasswordReset, true).Return(model.Otp{
		ID: 5, UserID: 1, Code: "123456", Verified: true,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}, nil)

	err := f.uc.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Email: "user@example.com", Otp: "654321", NewPassword: "newpassword1",
	})

	assertHTTPErr(t, err, http.StatusBadRequest, usecase.KindValidation)
	f.users.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
}

func TestOtpUsecase_ResetPassword_ExpiredCode(t *testing.T) {
	f := newOtpFixture()

	f.users.On("FindByEmail", mock.Anything, "user@example.com").Return(model.User{ID: 1}, nil)
	f.otps.On("FindLatest", mock.Anything, int64(1), model.OtpPurposePasswordReset, true).Return(model.Otp{
		ID: 5, UserID: 1, Code: "123456", Verified: true,
		ExpiresAt: time.Now().Add(-time.Minute),
	}, nil)
	f.otps.On("DeleteByID", mock.Anything, int64(5)).Return(nil)

	err := f.uc.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Email: "user@example.com", Otp: "123456", NewPassword: "newpassword1",
	})

	assertHTTPErr(t, err, http.StatusBadRequest, usecase.KindValidation)
	//期限切れの行はその場で消される
	f.otps.AssertCalled(t, "DeleteByID", mock.Anything, int64(5))
}

func TestOtpUsecase_VerifyOtp(t *testing.T) {
	f := newOtpFixture()

	f.users.On("FindByEmail", mock.Anything, "user@example.com").Return(model.User{ID: 1}, nil)
	f.otps.On("FindLatest", mock.Anything, int64(1), model.OtpPurposePasswordReset, false).Return(model.Otp{
		ID: 5, UserID: 1, Code: "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}, nil)
	f.otps.On("MarkVerified", mock.Anything, int64(5)).Return(nil)

	err := f.uc.VerifyOtp(context.Background(), usecase.VerifyOtpInput{Email: "user@example.com", Otp: "123456"})

	assert.NoError(t, err)
	f.otps.AssertCalled(t, "MarkVerified", mock.Anything, int64(5))
}
