package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Name         string `gorm:"type:varchar(255)" json:"name"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`

	// 配送先（注文時にordersへスナップショットされる）
	ShippingName       string `gorm:"type:varchar(255)" json:"shipping_name"`
	ShippingMobile     string `gorm:"type:varchar(30)" json:"shipping_mobile"`
	ShippingLine1      string `gorm:"type:varchar(255)" json:"shipping_line1"`
	ShippingLine2      string `gorm:"type:varchar(255)" json:"shipping_line2"`
	ShippingCity       string `gorm:"type:varchar(100)" json:"shipping_city"`
	ShippingState      string `gorm:"type:varchar(100)" json:"shipping_state"`
	ShippingPostalCode string `gorm:"type:varchar(20)" json:"shipping_postal_code"`
	ShippingCountry    string `gorm:"type:varchar(100)" json:"shipping_country"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文に必要な配送先が全て埋まっているか（line2だけ任意）
func (u User) HasCompleteShippingAddress() bool {
	required := []string{
		u.ShippingName,
		u.ShippingMobile,
		u.ShippingLine1,
		u.ShippingCity,
		u.ShippingState,
		u.ShippingPostalCode,
		u.ShippingCountry,
	}
	for _, v := range required {
		if v == "" {
			return false
		}
	}
	return true
}
