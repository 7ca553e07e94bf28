package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/club-store/internal/model"
)

const maxLastErrorLen = 500

// OutboxRepository 事件外发盒
type OutboxRepository interface {
	Add(ctx context.Context, evt *model.Outbox) error
	// Claim 领取一批待投递事件；processing 超过 staleAfter 的视为上次领取者已退出，重新领取
	Claim(ctx context.Context, limit int, staleAfter time.Duration) ([]model.Outbox, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause error) error
	CountPending(ctx context.Context) (int64, error)
	WithTx(tx *gorm.DB) OutboxRepository
}

type outboxRepository struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) OutboxRepository { return &outboxRepository{db: db} }

func (r *outboxRepository) WithTx(tx *gorm.DB) OutboxRepository { return &outboxRepository{db: tx} }

func (r *outboxRepository) Add(ctx context.Context, evt *model.Outbox) error {
	if evt.Status == "" {
		evt.Status = model.OutboxStatusPending
	}
	return r.db.WithContext(ctx).Create(evt).Error
}

func (r *outboxRepository) Claim(ctx context.Context, limit int, staleAfter time.Duration) ([]model.Outbox, error) {
	var batch []model.Outbox
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// postgres 下为 FOR UPDATE SKIP LOCKED；sqlite 驱动会忽略行锁子句
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? OR (status = ? AND claimed_at < ?)",
				model.OutboxStatusPending, model.OutboxStatusProcessing, now.Add(-staleAfter)).
			Order("created_at").
			Limit(limit).
			Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, b := range batch {
			ids[i] = b.ID
		}
		return tx.Model(&model.Outbox{}).Where("id IN ?", ids).
			Updates(map[string]interface{}{"status": model.OutboxStatusProcessing, "claimed_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *outboxRepository) MarkDone(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.Outbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": model.OutboxStatusDone, "processed_at": now}).Error
}

// MarkFailed 退回 pending 等待下一轮
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if len(msg) > maxLastErrorLen {
		msg = msg[:maxLastErrorLen]
	}
	return r.db.WithContext(ctx).Model(&model.Outbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.OutboxStatusPending,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": msg,
			"claimed_at": nil,
		}).Error
}

func (r *outboxRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Outbox{}).
		Where("status <> ?", model.OutboxStatusDone).
		Count(&n).Error
	return n, err
}
