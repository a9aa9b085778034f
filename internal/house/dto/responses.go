package dto

// TransferDTO é uma intent de transferência nativa emitida pela chamada;
// o despachante externo (banco) é quem efetiva.
type TransferDTO struct {
	To     string `json:"to"`
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type DepositResponse struct {
	Sender       string `json:"sender"`
	MintedShares string `json:"minted_shares"`
}

type WithdrawResponse struct {
	From      string        `json:"from"`
	Paid      string        `json:"paid"`
	Transfers []TransferDTO `json:"transfers"`
}

type PlayResultResponse struct {
	Applied   bool          `json:"applied"`
	Transfers []TransferDTO `json:"transfers"`
}

type ConfigResponse struct {
	Owner         string   `json:"owner"`
	Reserve       string   `json:"reserve"`
	GameContracts []string `json:"game_contracts"`
}

type TokenInfoResponse struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"total_supply"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}
