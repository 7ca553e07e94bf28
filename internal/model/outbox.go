package model

import "time"

const (
	OutboxStatusPending    = "pending"
	OutboxStatusProcessing = "processing"
	OutboxStatusDone       = "done"
)

// Outbox 订单事件外发盒，与状态变更同事务写入，由 relay 异步投递
type Outbox struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	AggregateID string    `gorm:"type:varchar(36);index:idx_outbox_aggregate"`
	EventType   string    `gorm:"type:varchar(48);not null"`
	Payload     string    `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(16);index:idx_outbox_status_created,priority:1"` // pending, processing, done
	Attempts    int       `gorm:"not null"`
	LastError   string    `gorm:"type:varchar(512)"`
	CreatedAt   time.Time `gorm:"index:idx_outbox_status_created,priority:2"`
	ClaimedAt   *time.Time
	ProcessedAt *time.Time
}

func (Outbox) TableName() string { return "outbox" }

// All 需要迁移的模型
func All() []interface{} {
	return []interface{}{&Product{}, &Order{}, &OrderItem{}, &Counter{}, &Outbox{}}
}
