package model

import "time"

type OtpPurpose string

const (
	OtpPurposePasswordReset OtpPurpose = "password_reset"
)

// ワンタイムコード。単回使用・期限付き。
type Otp struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	Code      string     `gorm:"type:varchar(10);not null" json:"-"`
	Purpose   OtpPurpose `gorm:"type:varchar(20);not null" json:"purpose"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	Verified  bool       `gorm:"not null;default:false" json:"verified"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}
