package topics

const (
	// Chain
	BlockHeads = "block_heads"

	// Table
	BetPlaced   = "bet_placed"
	BetResolved = "bet_resolved"

	// Settlement
	PlayResults     = "play_results"
	NativeTransfers = "native_transfers"

	// DLQs
	PlayResultsDLQ = "play_results_dlq"
)
