package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/casino-settlement-poc/internal/shared/kafka"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/events"
)

// KafkaPublisher emite o ciclo de vida das apostas e os reembolsos da mesa.
type KafkaPublisher struct {
	Placed    *kafka.Writer
	Resolved  *kafka.Writer
	Transfers *kafka.Writer // reembolsos emitidos direto pela mesa
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, ev events.BetPlaced) error {
	ev.TsUnixMs = time.Now().UnixMilli()
	val, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, p.Placed, ev.Bettor, val)
}

func (p *KafkaPublisher) PublishBetResolved(ctx context.Context, ev events.BetResolved) error {
	ev.TsUnixMs = time.Now().UnixMilli()
	val, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, p.Resolved, ev.Bettor, val)
}

func (p *KafkaPublisher) PublishNativeTransfer(ctx context.Context, ev events.NativeTransfer) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.Ts = time.Now().UTC()
	val, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, p.Transfers, ev.Recipient, val)
}
