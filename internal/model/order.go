package model

import "time"

// PaymentStatus 支付子记录状态
type PaymentStatus string

const (
	PaymentStatusPending         PaymentStatus = "pending"
	PaymentStatusCreated         PaymentStatus = "created" // 网关订单已创建，等待支付
	PaymentStatusCaptured        PaymentStatus = "captured"
	PaymentStatusFailed          PaymentStatus = "failed"
	PaymentStatusRefundInitiated PaymentStatus = "refund_initiated"
	PaymentStatusRefunded        PaymentStatus = "refunded"
)

// Payment 嵌入订单的支付信息，金额为最小货币单位
type Payment struct {
	GatewayOrderID   string        `json:"gateway_order_id" gorm:"type:varchar(64);index:idx_orders_gateway_order"`
	GatewayPaymentID string        `json:"gateway_payment_id" gorm:"type:varchar(64)"`
	Signature        string        `json:"-" gorm:"type:varchar(256)"`
	Status           PaymentStatus `json:"status" gorm:"type:varchar(24);not null"`
	Method           string        `json:"method" gorm:"type:varchar(24)"`
	Amount           int64         `json:"amount" gorm:"not null"`
	Currency         string        `json:"currency" gorm:"type:varchar(8)"`
	PaidAt           *time.Time    `json:"paid_at"`
	RefundID         string        `json:"refund_id" gorm:"type:varchar(64)"`
	RefundedAt       *time.Time    `json:"refunded_at"`
}

// StatusChange 状态流转审计记录
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	ChangedAt time.Time   `json:"changed_at"`
	ChangedBy string      `json:"changed_by,omitempty"`
	Note      string      `json:"note,omitempty"`
}

// StatusHistory 只追加
type StatusHistory []StatusChange

type DeliveryType string

const (
	DeliveryPickup DeliveryType = "pickup"
	DeliveryHostel DeliveryType = "hostel-delivery"
)

// Hostels 可配送宿舍
var Hostels = []string{"kanhar", "Gopad", "Indravati", "Shivnath"}

type DeliveryDetails struct {
	Hostel         string `json:"hostel,omitempty" gorm:"type:varchar(32)"`
	RoomNo         string `json:"room_no,omitempty" gorm:"type:varchar(16)"`
	PickupSlot     string `json:"pickup_slot,omitempty" gorm:"type:varchar(64)"`
	PickupLocation string `json:"pickup_location,omitempty" gorm:"type:varchar(128)"`
}

type BuyerSnapshot struct {
	Name  string `json:"name,omitempty" gorm:"type:varchar(100)"`
	Email string `json:"email,omitempty" gorm:"type:varchar(150)"`
	Phone string `json:"phone,omitempty" gorm:"type:varchar(20)"`
}

// Order 社团商城订单，只通过状态机变更，不删除
type Order struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber    string          `json:"order_number" gorm:"type:varchar(32);not null;uniqueIndex:ux_orders_number"`
	ClubID         string          `json:"club_id" gorm:"type:varchar(36);not null;index:idx_orders_club_status,priority:1"`
	BuyerID        string          `json:"buyer_id" gorm:"type:varchar(36);not null;index:idx_orders_buyer_status,priority:1"`
	Items          []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalAmount    int64           `json:"total_amount" gorm:"not null"`
	Payment        Payment         `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
	IdempotencyKey string          `json:"-" gorm:"type:varchar(128);not null;uniqueIndex:ux_orders_idempotency"`
	Status         OrderStatus     `json:"status" gorm:"type:varchar(24);not null;index:idx_orders_expiry,priority:1;index:idx_orders_buyer_status,priority:2;index:idx_orders_club_status,priority:2"`
	StatusHistory  StatusHistory   `json:"status_history" gorm:"type:text;serializer:json"`
	ReservedUntil  time.Time       `json:"reserved_until" gorm:"not null;index:idx_orders_expiry,priority:3"`
	StockRestored  bool            `json:"stock_restored" gorm:"not null;index:idx_orders_expiry,priority:2"`
	DeliveryType   DeliveryType    `json:"delivery_type" gorm:"type:varchar(24)"`
	Delivery       DeliveryDetails `json:"delivery_details" gorm:"embedded;embeddedPrefix:delivery_"`
	Buyer          BuyerSnapshot   `json:"buyer_snapshot" gorm:"embedded;embeddedPrefix:buyer_"`
	BuyerNote      string          `json:"buyer_note" gorm:"type:varchar(500)"`
	AdminNote      string          `json:"admin_note" gorm:"type:varchar(500)"`
	CancelledAt    *time.Time      `json:"cancelled_at"`
	CancelReason   string          `json:"cancel_reason" gorm:"type:varchar(300)"`
	CancelledBy    string          `json:"cancelled_by" gorm:"type:varchar(36)"`
	Version        int64           `json:"version" gorm:"not null"`
	CreatedAt      time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 下单时冻结的商品快照，之后商品修改不影响
type OrderItem struct {
	ID              string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID         string `json:"order_id" gorm:"type:varchar(36);not null;index"`
	ProductID       string `json:"product_id" gorm:"type:varchar(36);not null;index"`
	VariantOptionID string `json:"variant_option_id,omitempty" gorm:"type:varchar(36)"`
	VariantLabel    string `json:"variant_label,omitempty" gorm:"type:varchar(100)"`
	Quantity        int    `json:"quantity" gorm:"not null"`
	UnitPrice       int64  `json:"unit_price" gorm:"not null"`
	TotalPrice      int64  `json:"total_price" gorm:"not null"`
	SnapshotName    string `json:"snapshot_name" gorm:"type:varchar(150);not null"`
	SnapshotImage   string `json:"snapshot_image,omitempty" gorm:"type:varchar(512)"`
}

func (OrderItem) TableName() string { return "order_items" }

func (o *Order) IsPaid() bool { return o.Payment.Status == PaymentStatusCaptured }

// IsExpired 待支付且预占已过期
func (o *Order) IsExpired(now time.Time) bool {
	return o.Status == OrderStatusPaymentPending && now.After(o.ReservedUntil)
}

func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
