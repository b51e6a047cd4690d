package payment

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Ledger is the native-value custody backing the engine. External account
// balances and the engine custody pot are tracked in the smallest currency
// unit; a batch either applies in full or not at all.
type Ledger struct {
	mtx       sync.Mutex
	balances  map[string]uint64
	custody   uint64
	rejecting map[string]bool
}

func NewLedger() *Ledger {
	return &Ledger{
		balances:  make(map[string]uint64),
		rejecting: make(map[string]bool),
	}
}

func (l *Ledger) NewBatch() *Batch {
	return NewBatch(l)
}

// Deposit credits an external account. Test and bootstrap entry point; the
// engine itself only moves value through batches.
func (l *Ledger) Deposit(account string, amount uint64) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	l.balances[account] += amount
}

func (l *Ledger) Balance(account string) uint64 {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	return l.balances[account]
}

func (l *Ledger) Custody() uint64 {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	return l.custody
}

// SetRejecting marks an account as refusing incoming value, which fails any
// batch paying it.
func (l *Ledger) SetRejecting(account string, rejecting bool) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	l.rejecting[account] = rejecting
}

func (l *Ledger) Check(instructions []Instruction) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	return l.simulate(instructions)
}

func (l *Ledger) Apply(instructions []Instruction) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if err := l.simulate(instructions); err != nil {
		zap.L().With(zap.Error(err)).Warn("Ledger: Batch rejected")
		return err
	}

	for _, ins := range instructions {
		if ins.Kind == Collect {
			l.balances[ins.Account] -= ins.Amount
			l.custody += ins.Amount
		} else {
			l.custody -= ins.Amount
			l.balances[ins.Account] += ins.Amount
		}
	}

	return nil
}

// simulate walks the instructions in order against scratch balances. Order
// matters: an auction bid refunds the previous leader before collecting the
// new one, so custody never carries two bids even transiently.
func (l *Ledger) simulate(instructions []Instruction) error {
	credits := make(map[string]uint64)
	debits := make(map[string]uint64)
	custody := l.custody

	for _, ins := range instructions {
		switch ins.Kind {
		case Collect:
			available := l.balances[ins.Account] + credits[ins.Account] - debits[ins.Account]
			if available < ins.Amount {
				return fmt.Errorf("collect %d from %s: %w", ins.Amount, ins.Account, ErrInsufficientFunds)
			}
			debits[ins.Account] += ins.Amount
			custody += ins.Amount
		case Pay:
			if l.rejecting[ins.Account] {
				return fmt.Errorf("pay %d to %s: %w", ins.Amount, ins.Account, ErrPaymentRejected)
			}
			if custody < ins.Amount {
				return fmt.Errorf("pay %d to %s: %w", ins.Amount, ins.Account, ErrInsufficientCustody)
			}
			custody -= ins.Amount
			credits[ins.Account] += ins.Amount
		}
	}

	return nil
}
