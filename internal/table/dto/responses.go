package dto

type TransferDTO struct {
	To     string `json:"to"`
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// PlaceBetResponse devolve o payout potencial calculado no momento da aposta.
type PlaceBetResponse struct {
	Bettor     string `json:"bettor"`
	Prediction uint8  `json:"prediction"`
	Over       bool   `json:"over"`
	Stake      string `json:"stake"`
	Payout     string `json:"payout"`
	Height     uint64 `json:"height"`
}

// ResolveBetResponse espelha o desfecho: RESOLVED_WIN, RESOLVED_LOSE ou REFUNDED.
type ResolveBetResponse struct {
	Bettor    string        `json:"bettor"`
	Status    string        `json:"status"`
	Outcome   *uint8        `json:"outcome,omitempty"` // ausente em reembolso
	Stake     string        `json:"stake"`
	Payout    string        `json:"payout"`
	Transfers []TransferDTO `json:"transfers,omitempty"`
}

type TableConfigResponse struct {
	Owner         string `json:"owner"`
	HouseContract string `json:"house_contract"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	MinBet        string `json:"min_bet"`
	MaxBet        string `json:"max_bet"`
	MaxBetRate    uint64 `json:"max_bet_rate"`
	HouseFee      uint64 `json:"house_fee"`
	Cumulative    string `json:"cumulative_bet_amount"`
}

type BetResponse struct {
	Bettor     string `json:"bettor"`
	Stake      string `json:"stake"`
	Prediction uint8  `json:"prediction"`
	Over       bool   `json:"over"`
	Payout     string `json:"payout"`
	Height     uint64 `json:"height"`
}
