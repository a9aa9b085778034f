package wire

import "github.com/holiman/uint256"

// Coin representa um montante na menor unidade do token nativo.
// Amount usa uint256 para manter a semântica de inteiro largo sem ponto flutuante.
type Coin struct {
	Denom  string       `json:"denom"`
	Amount *uint256.Int `json:"amount"`
}

// MsgInfo identifica quem chamou o handler e quais fundos vieram anexados.
// A canonicalização de endereços é responsabilidade do transporte, não do core.
type MsgInfo struct {
	Sender string `json:"sender"`
	Funds  []Coin `json:"funds,omitempty"`
}

// FindFund retorna o coin anexado no denom pedido, se houver.
func (m MsgInfo) FindFund(denom string) (Coin, bool) {
	for _, c := range m.Funds {
		if c.Denom == denom {
			return c, true
		}
	}
	return Coin{}, false
}

// BlockEnv é o contexto de bloco fornecido pelo host (ou pelo chain-simulator).
type BlockEnv struct {
	ChainID   string `json:"chain_id"`
	Height    uint64 `json:"height"`
	Time      int64  `json:"time"`       // unix seconds
	TimeNanos uint64 `json:"time_nanos"` // componente sub-segundo
}

// Attribute é um registro de observabilidade emitido por um handler.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func Attr(key, value string) Attribute { return Attribute{Key: key, Value: value} }

// Intent é uma mensagem de saída que o core emite mas nunca envia diretamente;
// quem despacha é o serviço que hospeda o engine.
type Intent interface {
	isIntent()
}

// NativeTransfer pede uma transferência de token nativo para fora do contrato.
type NativeTransfer struct {
	To     string       `json:"to"`
	Denom  string       `json:"denom"`
	Amount *uint256.Int `json:"amount"`
}

func (NativeTransfer) isIntent() {}

// ReportPlayResult pede a notificação de resultado ao contrato da casa,
// encaminhando a aposta original junto com a mensagem.
type ReportPlayResult struct {
	Contract    string       `json:"contract"`
	Won         bool         `json:"won"`
	BetAmount   *uint256.Int `json:"bet_amount"`
	PrizeAmount *uint256.Int `json:"prize_amount"`
	Winner      string       `json:"winner"`
	Funds       []Coin       `json:"funds,omitempty"`
}

func (ReportPlayResult) isIntent() {}

// Response agrega atributos e intents de um handler; estado só persiste se o
// chamador fizer commit da transação do ledger após o retorno sem erro.
type Response struct {
	Attributes []Attribute
	Intents    []Intent
}
