package service

import (
	"context"

	"github.com/d60-Lab/club-store/internal/event"
	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/repository"
)

// addOrderEvent 与订单变更在同一事务内写入 outbox
func addOrderEvent(ctx context.Context, outbox repository.OutboxRepository, o *model.Order, eventType string, from model.OrderStatus, actor string) error {
	evt := event.NewOrderEvent(eventType)
	evt.OrderID = o.ID
	evt.OrderNumber = o.OrderNumber
	evt.ClubID = o.ClubID
	evt.BuyerID = o.BuyerID
	evt.From = string(from)
	evt.Status = string(o.Status)
	evt.Actor = actor
	evt.TotalAmount = o.TotalAmount

	payload, err := evt.Marshal()
	if err != nil {
		return err
	}
	return outbox.Add(ctx, &model.Outbox{
		ID:          evt.ID,
		AggregateID: o.ID,
		EventType:   eventType,
		Payload:     string(payload),
		Status:      model.OutboxStatusPending,
		CreatedAt:   evt.OccurredAt,
	})
}
