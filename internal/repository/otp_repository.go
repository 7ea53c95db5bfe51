package repository

import (
	"context"

	"app/internal/domain/model"
)

type OtpRepository interface {
	Create(ctx context.Context, otp model.Otp) error
	//未使用の最新コードを1件
	FindLatest(ctx context.Context, userID int64, purpose model.OtpPurpose, verifiedOnly bool) (model.Otp, error)
	MarkVerified(ctx context.Context, otpID int64) error
	DeleteByID(ctx context.Context, otpID int64) error
	//使い終わったら全部消す
	DeleteByUser(ctx context.Context, userID int64, purpose model.OtpPurpose) error
}
