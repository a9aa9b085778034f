package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Account: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type    string `json:"type"`    // subscribe | unsubscribe | ping
	Account string `json:"account"` // requerido em subscribe/unsubscribe
}

// SettlementUpdate é a notificação de liquidação enviada pra quem acompanha
// a conta: resultado de aposta aplicado, transferência emitida, etc.
type SettlementUpdate struct {
	Account string      `json:"account"`
	Kind    string      `json:"kind"` // play_result | native_transfer
	Payload interface{} `json:"payload"`
}
