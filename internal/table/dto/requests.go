package dto

// PlaceBetRequest abre uma aposta na mesa. Amount em string decimal
// da denominação nativa; Over escolhe o lado da faixa.
type PlaceBetRequest struct {
	Sender     string `json:"sender"`
	Amount     string `json:"amount"`
	Prediction uint8  `json:"prediction"`
	Over       bool   `json:"over"`
}

// ResolveBetRequest fecha (ou reembolsa) a aposta aberta do sender.
type ResolveBetRequest struct {
	Sender string `json:"sender"`
}

type UpdateOwnerRequest struct {
	Sender string `json:"sender"`
	Owner  string `json:"owner"`
}

type UpdateContractRequest struct {
	Sender   string `json:"sender"`
	Contract string `json:"contract"`
}

type UpdateTextRequest struct {
	Sender string `json:"sender"`
	Value  string `json:"value"`
}

// UpdateAmountRequest cobre min_bet e max_bet (string decimal).
type UpdateAmountRequest struct {
	Sender string `json:"sender"`
	Amount string `json:"amount"`
}

// UpdateRateRequest cobre max_bet_rate e house_fee.
type UpdateRateRequest struct {
	Sender string `json:"sender"`
	Rate   uint64 `json:"rate"`
}
