package ports

import "context"

// AssetLedger is the authoritative, synchronous mover of staked value.
// A false result means the ledger refused the movement (insufficient balance
// or authorization) and the enclosing operation must abort; a non-nil error
// means the ledger itself could not be reached.
type AssetLedger interface {
	TransferFrom(ctx context.Context, from, to string, amount int64) (bool, error)
	Transfer(ctx context.Context, to string, amount int64) (bool, error)
}

// ContentRegistry resolves opaque content references. Only existence is
// consumed; producing refs is an upstream concern.
type ContentRegistry interface {
	Exists(ctx context.Context, contentRef string) (bool, error)
}
