package events

import "time"

// Evento publicado no tópico "block_heads" pelo chain-simulator.
type BlockHead struct {
	ChainID    string    `json:"chain_id"`
	Height     uint64    `json:"height"`
	Time       int64     `json:"time"`
	TimeNanos  uint64    `json:"time_nanos"`
	ProducedAt time.Time `json:"produced_at"`
}
