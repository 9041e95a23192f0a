package ledger

import (
	"context"
	"sync"
)

// MemoryLedger is a balance-and-allowance ledger used by local runs and
// tests. Refused movements (insufficient balance or allowance) come back as
// a false result, never an error, matching the platform ledger contract.
type MemoryLedger struct {
	mu            sync.Mutex
	escrowAccount string
	balances      map[string]int64
	allowances    map[string]map[string]int64
}

func NewMemoryLedger(escrowAccount string) *MemoryLedger {
	return &MemoryLedger{
		escrowAccount: escrowAccount,
		balances:      map[string]int64{},
		allowances:    map[string]map[string]int64{},
	}
}

// Credit mints balance into an account.
func (l *MemoryLedger) Credit(account string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// Approve lets spender pull up to amount from owner via TransferFrom.
func (l *MemoryLedger) Approve(owner, spender string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = map[string]int64{}
	}
	l.allowances[owner][spender] = amount
}

func (l *MemoryLedger) Balance(account string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

func (l *MemoryLedger) TransferFrom(_ context.Context, from, to string, amount int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount <= 0 {
		return false, nil
	}
	allowance := l.allowances[from][to]
	if allowance < amount || l.balances[from] < amount {
		return false, nil
	}
	l.allowances[from][to] = allowance - amount
	l.balances[from] -= amount
	l.balances[to] += amount
	return true, nil
}

// Transfer moves value out of the escrow account.
func (l *MemoryLedger) Transfer(_ context.Context, to string, amount int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount <= 0 {
		return false, nil
	}
	if l.balances[l.escrowAccount] < amount {
		return false, nil
	}
	l.balances[l.escrowAccount] -= amount
	l.balances[to] += amount
	return true, nil
}
