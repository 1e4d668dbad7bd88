package ledger

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestMintBurnConservation(t *testing.T) {
	l := New("aBTC")

	if err := l.Mint("alice", uint256.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Mint("bob", uint256.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if got := l.TotalSupply().Uint64(); got != 1500 {
		t.Fatalf("total supply %d, want 1500", got)
	}

	if err := l.Burn("alice", uint256.NewInt(300)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := l.BalanceOf("alice").Uint64(); got != 700 {
		t.Fatalf("alice balance %d, want 700", got)
	}
	if got := l.TotalSupply().Uint64(); got != 1200 {
		t.Fatalf("total supply %d, want 1200", got)
	}
}

func TestBurnOverdraft(t *testing.T) {
	l := New("aBTC")
	if err := l.Mint("alice", uint256.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	err := l.Burn("alice", uint256.NewInt(11))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := l.BalanceOf("alice").Uint64(); got != 10 {
		t.Fatalf("balance mutated on failed burn: %d", got)
	}
}

func TestTransfer(t *testing.T) {
	l := New("USDT")
	if err := l.Mint("alice", uint256.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := l.Transfer("alice", "bob", uint256.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := l.BalanceOf("alice").Uint64(); got != 60 {
		t.Fatalf("alice balance %d, want 60", got)
	}
	if got := l.BalanceOf("bob").Uint64(); got != 40 {
		t.Fatalf("bob balance %d, want 40", got)
	}

	if err := l.Transfer("bob", "alice", uint256.NewInt(41)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestAllowance(t *testing.T) {
	l := New("USDT")
	if err := l.Mint("alice", uint256.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := l.TransferFrom("spender", "alice", "bob", uint256.NewInt(10)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	l.Approve("alice", "spender", uint256.NewInt(50))
	if got := l.Allowance("alice", "spender").Uint64(); got != 50 {
		t.Fatalf("allowance %d, want 50", got)
	}

	if err := l.TransferFrom("spender", "alice", "bob", uint256.NewInt(30)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	if got := l.Allowance("alice", "spender").Uint64(); got != 20 {
		t.Fatalf("allowance after spend %d, want 20", got)
	}
	if got := l.BalanceOf("bob").Uint64(); got != 30 {
		t.Fatalf("bob balance %d, want 30", got)
	}
}

func TestBalanceOfCopies(t *testing.T) {
	l := New("aBTC")
	if err := l.Mint("alice", uint256.NewInt(5)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	bal := l.BalanceOf("alice")
	bal.SetUint64(999)

	if got := l.BalanceOf("alice").Uint64(); got != 5 {
		t.Fatalf("internal balance mutated through returned value: %d", got)
	}
}
