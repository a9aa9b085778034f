package events

// Status possíveis de uma aposta resolvida.
const (
	BetStatusWin      = "RESOLVED_WIN"
	BetStatusLose     = "RESOLVED_LOSE"
	BetStatusRefunded = "REFUNDED"
)

type BetPlaced struct {
	Table      string `json:"table"`
	Bettor     string `json:"bettor"`
	Stake      string `json:"stake"` // decimal string na menor unidade
	Prediction uint8  `json:"prediction"`
	Over       bool   `json:"over"`
	Payout     string `json:"payout"` // payout travado no momento da aposta
	Height     uint64 `json:"height"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}

// Evento emitido pelo table-service após resolver (ou estornar) uma aposta.
type BetResolved struct {
	Table    string `json:"table"`
	Bettor   string `json:"bettor"`
	Status   string `json:"status"` // RESOLVED_WIN | RESOLVED_LOSE | REFUNDED
	Outcome  uint8  `json:"outcome"`
	Stake    string `json:"stake"`
	Payout   string `json:"payout"`
	Height   uint64 `json:"height"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
