package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/radieske/casino-settlement-poc/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de liquidação da casa.
type KafkaPublisher struct {
	PlayResults *kafka.Writer
	Transfers   *kafka.Writer
}

func NewKafkaPublisher(playResults, transfers *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{PlayResults: playResults, Transfers: transfers}
}

func (p *KafkaPublisher) PublishPlayResult(ctx context.Context, e events.PlayResult) error {
	e.ID = uuid.NewString()
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return p.PlayResults.WriteMessages(ctx, kafka.Message{Key: []byte(e.Winner), Value: b})
}

func (p *KafkaPublisher) PublishNativeTransfer(ctx context.Context, e events.NativeTransfer) error {
	e.ID = uuid.NewString()
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return p.Transfers.WriteMessages(ctx, kafka.Message{Key: []byte(e.Recipient), Value: b})
}
