package ledger

import (
	"sync"

	"cosmossdk.io/errors"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance   = errors.Register("ledger", 1, "insufficient balance")
	ErrInsufficientAllowance = errors.Register("ledger", 2, "insufficient allowance")
	ErrSupplyOverflow        = errors.Register("ledger", 3, "total supply overflow")
)

// Ledger tracks fungible balances for accounts outside the pool. Amounts are
// raw fixed-point integers in the token's native decimals.
type Ledger struct {
	symbol string

	mu         sync.RWMutex
	balances   map[string]*uint256.Int
	allowances map[string]map[string]*uint256.Int
	total      *uint256.Int
}

func New(symbol string) *Ledger {
	return &Ledger{
		symbol:     symbol,
		balances:   make(map[string]*uint256.Int),
		allowances: make(map[string]map[string]*uint256.Int),
		total:      uint256.NewInt(0),
	}
}

// Symbol returns the token symbol this ledger tracks.
func (l *Ledger) Symbol() string {
	return l.symbol
}

// BalanceOf returns the balance of an account. Unknown accounts hold zero.
func (l *Ledger) BalanceOf(account string) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bal, ok := l.balances[account]
	if !ok {
		return uint256.NewInt(0)
	}
	return bal.Clone()
}

// TotalSupply returns the sum of all account balances.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total.Clone()
}

// Mint credits an account, growing total supply.
func (l *Ledger) Mint(account string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	newTotal, overflow := new(uint256.Int).AddOverflow(l.total, amount)
	if overflow {
		return ErrSupplyOverflow.Wrapf("%s mint %s", l.symbol, amount.Dec())
	}

	l.credit(account, amount)
	l.total = newTotal
	return nil
}

// Burn debits an account, shrinking total supply.
func (l *Ledger) Burn(account string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.debit(account, amount); err != nil {
		return err
	}
	l.total = new(uint256.Int).Sub(l.total, amount)
	return nil
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.debit(from, amount); err != nil {
		return err
	}
	l.credit(to, amount)
	return nil
}

// Approve sets the amount a spender may move on the owner's behalf.
func (l *Ledger) Approve(owner, spender string, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	byOwner, ok := l.allowances[owner]
	if !ok {
		byOwner = make(map[string]*uint256.Int)
		l.allowances[owner] = byOwner
	}
	byOwner[spender] = amount.Clone()
}

// Allowance returns the remaining amount a spender may move for an owner.
func (l *Ledger) Allowance(owner, spender string) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	byOwner, ok := l.allowances[owner]
	if !ok {
		return uint256.NewInt(0)
	}
	allowed, ok := byOwner[spender]
	if !ok {
		return uint256.NewInt(0)
	}
	return allowed.Clone()
}

// TransferFrom moves amount from owner to recipient using the spender's
// allowance.
func (l *Ledger) TransferFrom(spender, owner, to string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowances[owner][spender]
	if allowed == nil || allowed.Lt(amount) {
		return ErrInsufficientAllowance.Wrapf("%s: %s spending for %s", l.symbol, spender, owner)
	}

	if err := l.debit(owner, amount); err != nil {
		return err
	}
	l.credit(to, amount)
	l.allowances[owner][spender] = new(uint256.Int).Sub(allowed, amount)
	return nil
}

func (l *Ledger) credit(account string, amount *uint256.Int) {
	bal, ok := l.balances[account]
	if !ok {
		l.balances[account] = amount.Clone()
		return
	}
	bal.Add(bal, amount)
}

func (l *Ledger) debit(account string, amount *uint256.Int) error {
	bal, ok := l.balances[account]
	if !ok || bal.Lt(amount) {
		return ErrInsufficientBalance.Wrapf("%s: account %s", l.symbol, account)
	}
	bal.Sub(bal, amount)
	return nil
}
