package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

// cancelled/failed/deliveredは終端。
// CODはpaidを経由せずpending→shipped→deliveredで進む。
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusFailed, OrderStatusDelivered:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCOD PaymentMethod = "cod"
	PaymentMethodUPI PaymentMethod = "upi"
)

type CancelActor string

const (
	CancelActorUser  CancelActor = "user"
	CancelActorAdmin CancelActor = "admin"
)

type Order struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64         `gorm:"not null;index" json:"user_id"`
	Subtotal      int64         `gorm:"not null" json:"subtotal"`
	Shipping      int64         `gorm:"not null;default:0" json:"shipping"`
	Total         int64         `gorm:"not null" json:"total"`
	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(10);not null" json:"payment_method"`
	CancelledBy   CancelActor   `gorm:"type:varchar(10)" json:"cancelled_by,omitempty"`

	// ゲートウェイ照合キー（UPIのみ）
	GatewayOrderID   string `gorm:"type:varchar(100);index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string `gorm:"type:varchar(100)" json:"gateway_payment_id,omitempty"`

	// 注文時点の配送先の凍結コピー。以後のプロフィール変更に追随しない。
	ShippingName       string `gorm:"type:varchar(255);not null" json:"shipping_name"`
	ShippingMobile     string `gorm:"type:varchar(30);not null" json:"shipping_mobile"`
	ShippingLine1      string `gorm:"type:varchar(255);not null" json:"shipping_line1"`
	ShippingLine2      string `gorm:"type:varchar(255)" json:"shipping_line2"`
	ShippingCity       string `gorm:"type:varchar(100);not null" json:"shipping_city"`
	ShippingState      string `gorm:"type:varchar(100);not null" json:"shipping_state"`
	ShippingPostalCode string `gorm:"type:varchar(20);not null" json:"shipping_postal_code"`
	ShippingCountry    string `gorm:"type:varchar(100);not null" json:"shipping_country"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// userの配送先を注文へコピーする
func (o *Order) SnapshotShippingAddress(u User) {
	o.ShippingName = u.ShippingName
	o.ShippingMobile = u.ShippingMobile
	o.ShippingLine1 = u.ShippingLine1
	o.ShippingLine2 = u.ShippingLine2
	o.ShippingCity = u.ShippingCity
	o.ShippingState = u.ShippingState
	o.ShippingPostalCode = u.ShippingPostalCode
	o.ShippingCountry = u.ShippingCountry
}
