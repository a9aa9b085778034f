package events

import "time"

// Evento publicado pelo house-service após aplicar um resultado de jogo na pool.
type PlayResult struct {
	ID           string    `json:"id"`
	GameContract string    `json:"game_contract"`
	Winner       string    `json:"winner"`
	Won          bool      `json:"won"`
	BetAmount    string    `json:"bet_amount"`
	PrizeAmount  string    `json:"prize_amount"`
	Ts           time.Time `json:"ts"`
}

// Intent de transferência nativa já emitida por um dos contratos; o banco
// (colaborador externo) é quem efetiva a transferência.
type NativeTransfer struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Denom     string    `json:"denom"`
	Amount    string    `json:"amount"`
	Reason    string    `json:"reason"` // withdraw | prize | refund
	Ts        time.Time `json:"ts"`
}
