package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderEvent 订单通知事件，只用于下游通知，不用于重建订单状态
type OrderEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ClubID      string    `json:"club_id"`
	BuyerID     string    `json:"buyer_id"`
	From        string    `json:"from,omitempty"`
	Status      string    `json:"status"`
	Actor       string    `json:"actor,omitempty"`
	TotalAmount int64     `json:"total_amount"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewOrderEvent(eventType string) OrderEvent {
	return OrderEvent{ID: uuid.New().String(), Type: eventType, OccurredAt: time.Now().UTC()}
}

func (e OrderEvent) Marshal() ([]byte, error) { return json.Marshal(e) }

// Message 投递单元；Key 为订单ID，保证同一订单的事件进入同一分区
type Message struct {
	Key     string
	Type    string
	Payload []byte
}

// Publisher 事件投递
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}
