package sdk

import "time"

// BlockInfo is the block-info oracle snapshot for the current call.
type BlockInfo struct {
	Height  uint64
	Time    time.Time
	ChainID string
}

// Env is everything the host tells us about the running transaction.
type Env struct {
	Block    BlockInfo
	Sender   Address
	Contract Address
	TxID     string
}

// WithSender copies the env for a different caller, handy for tests and the cli host.
// Example payload: env.WithSender(sdk.Address("juno1voter"))
func (e Env) WithSender(sender Address) Env {
	e.Sender = sender
	return e
}

// AtHeight copies the env with another block height and time.
// Example payload: env.AtHeight(120, time.Unix(1700000000, 0))
func (e Env) AtHeight(height uint64, t time.Time) Env {
	e.Block.Height = height
	e.Block.Time = t
	return e
}
