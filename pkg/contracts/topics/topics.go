package topics

const (
	// Projeção dos mercados (fase Display do sync)
	MarketSnapshots = "market_snapshots"

	// Transições do ledger (create/resolve/claim/retire)
	SettlementEvents = "settlement_events"
)
