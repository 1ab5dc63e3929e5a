// Package rails provides the payment rail clients: in-process simulations
// of the two rails for development and tests, and an HTTP price-feed
// client for the oracle.
package rails

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"namedeed/internal/registry/ports"
	id "namedeed/pkg/domain"
)

var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// SimToken is an in-process stablecoin rail. Transfer moves funds out of
// the holder's own account; TransferFrom spends a prior approval.
type SimToken struct {
	mu         sync.Mutex
	self       id.Account
	balances   map[id.Account]*big.Int
	allowances map[id.Account]map[id.Account]*big.Int
}

// NewSimToken builds a token rail acting on behalf of self.
func NewSimToken(self id.Account) *SimToken {
	return &SimToken{
		self:       self,
		balances:   make(map[id.Account]*big.Int),
		allowances: make(map[id.Account]map[id.Account]*big.Int),
	}
}

// Mint adds balance to an account. Test and bootstrap helper.
func (t *SimToken) Mint(account id.Account, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.add(account, amount)
}

// Approve lets spender pull up to amount from owner. The allowance is
// replaced, not accumulated.
func (t *SimToken) Approve(owner, spender id.Account, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[id.Account]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
}

func (t *SimToken) BalanceOf(_ context.Context, account id.Account) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance(account), nil
}

func (t *SimToken) Allowance(_ context.Context, owner, spender id.Account) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if granted, ok := t.allowances[owner][spender]; ok {
		return new(big.Int).Set(granted), nil
	}
	return new(big.Int), nil
}

func (t *SimToken) Transfer(_ context.Context, to id.Account, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(t.self, to, amount)
}

func (t *SimToken) TransferFrom(_ context.Context, from, to id.Account, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	granted := t.allowances[from][t.self]
	if granted == nil || granted.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	granted.Sub(granted, amount)
	return nil
}

func (t *SimToken) balance(account id.Account) *big.Int {
	if b, ok := t.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (t *SimToken) add(account id.Account, amount *big.Int) {
	if t.balances[account] == nil {
		t.balances[account] = new(big.Int)
	}
	t.balances[account].Add(t.balances[account], amount)
}

func (t *SimToken) move(from, to id.Account, amount *big.Int) error {
	b := t.balances[from]
	if b == nil || b.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	b.Sub(b, amount)
	t.add(to, amount)
	return nil
}

// SimNative is an in-process native-value rail. Receive pulls attached
// value from the payer into self's account; Send pays out of it.
type SimNative struct {
	mu       sync.Mutex
	self     id.Account
	balances map[id.Account]*big.Int
}

// NewSimNative builds a native rail acting on behalf of self.
func NewSimNative(self id.Account) *SimNative {
	return &SimNative{
		self:     self,
		balances: make(map[id.Account]*big.Int),
	}
}

// Mint adds balance to an account. Test and bootstrap helper.
func (n *SimNative) Mint(account id.Account, amount *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.balances[account] == nil {
		n.balances[account] = new(big.Int)
	}
	n.balances[account].Add(n.balances[account], amount)
}

func (n *SimNative) BalanceOf(_ context.Context, account id.Account) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if b, ok := n.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (n *SimNative) Receive(_ context.Context, from id.Account, amount *big.Int) error {
	return n.move(from, n.self, amount)
}

func (n *SimNative) Send(_ context.Context, to id.Account, amount *big.Int) error {
	return n.move(n.self, to, amount)
}

func (n *SimNative) move(from, to id.Account, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	b := n.balances[from]
	if b == nil || b.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	b.Sub(b, amount)
	if n.balances[to] == nil {
		n.balances[to] = new(big.Int)
	}
	n.balances[to].Add(n.balances[to], amount)
	return nil
}

// StaticOracle reports a fixed rate. Development and test helper.
type StaticOracle struct {
	mu     sync.Mutex
	answer *big.Int
}

// NewStaticOracle builds an oracle pinned to answer.
func NewStaticOracle(answer *big.Int) *StaticOracle {
	return &StaticOracle{answer: new(big.Int).Set(answer)}
}

// SetAnswer repins the rate.
func (o *StaticOracle) SetAnswer(answer *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.answer = new(big.Int).Set(answer)
}

func (o *StaticOracle) LatestRate(_ context.Context) (ports.Rate, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return ports.Rate{
		Answer:    new(big.Int).Set(o.answer),
		UpdatedAt: time.Now().UTC(),
	}, nil
}
