package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type OtpGormRepository struct {
	db *gorm.DB
}

func NewOtpGormRepository(db *gorm.DB) *OtpGormRepository {
	return &OtpGormRepository{db: db}
}

func (r *OtpGormRepository) Create(ctx context.Context, otp model.Otp) error {
	if err := r.db.WithContext(ctx).Create(&otp).Error; err != nil {
		return err
	}
	return nil
}

func (r *OtpGormRepository) FindLatest(ctx context.Context, userID int64, purpose model.OtpPurpose, verifiedOnly bool) (model.Otp, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose)

	if verifiedOnly {
		q = q.Where("verified = ?", true)
	} else {
		q = q.Where("verified = ?", false)
	}

	var otp model.Otp
	err := q.Order("id desc").First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Otp{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Otp{}, err
	}
	return otp, nil
}

func (r *OtpGormRepository) MarkVerified(ctx context.Context, otpID int64) error {
	res := r.db.WithContext(ctx).Model(&model.Otp{}).
		Where("id = ?", otpID).
		Update("verified", true)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OtpGormRepository) DeleteByID(ctx context.Context, otpID int64) error {
	return r.db.WithContext(ctx).Delete(&model.Otp{}, otpID).Error
}

func (r *OtpGormRepository) DeleteByUser(ctx context.Context, userID int64, purpose model.OtpPurpose) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Delete(&model.Otp{}).Error
}
