package dto

// Todos os montantes são strings decimais na menor unidade nativa;
// nada de ponto flutuante no caminho de liquidação.

type DepositRequest struct {
	Sender string `json:"sender"`
	Amount string `json:"amount"`
}

// WithdrawRequest é o callback do contrato do token de cota: o token transfere
// cotas pra pool com a instrução de saque anexada. Sender precisa ser o
// contrato do token registrado.
type WithdrawRequest struct {
	Sender      string `json:"sender"`
	From        string `json:"from"`
	ShareAmount string `json:"share_amount"`
}

type PlayResultRequest struct {
	Sender      string `json:"sender"`
	Won         bool   `json:"won"`
	BetAmount   string `json:"bet_amount"`
	PrizeAmount string `json:"prize_amount"`
	Winner      string `json:"winner"`
}

type UpdateOwnerRequest struct {
	Sender string `json:"sender"`
	Owner  string `json:"owner"`
}

type UpdateContractRequest struct {
	Sender   string `json:"sender"`
	Contract string `json:"contract"`
}
