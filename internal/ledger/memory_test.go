package ledger

import "testing"

func TestRegistry(t *testing.T) {
	t.Run("Mint And OwnerOf", func(t *testing.T) {
		r := NewRegistry("gallery")
		r.Mint("alice", "piece-1")

		owner, err := r.OwnerOf("piece-1")
		if err != nil {
			t.Fatalf("OwnerOf: %v", err)
		}
		if owner != "alice" {
			t.Errorf("owner = %s, want alice", owner)
		}
		if _, err := r.OwnerOf("piece-2"); err == nil {
			t.Error("expected error for unminted asset")
		}
	})

	t.Run("Duplicate Mint Panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		r := NewRegistry("gallery")
		r.Mint("alice", "piece-1")
		r.Mint("bob", "piece-1")
	})

	t.Run("Transfer Validates Holder", func(t *testing.T) {
		r := NewRegistry("gallery")
		r.Mint("alice", "piece-1")

		if err := r.Transfer("bob", "carol", "piece-1"); err == nil {
			t.Error("expected error transferring from non-holder")
		}
		if err := r.Transfer("alice", "bob", "piece-1"); err != nil {
			t.Fatalf("Transfer: %v", err)
		}
		owner, _ := r.OwnerOf("piece-1")
		if owner != "bob" {
			t.Errorf("owner = %s, want bob", owner)
		}
	})
}

func TestLedger(t *testing.T) {
	t.Run("Credit And Balance", func(t *testing.T) {
		l := NewLedger("NATIVE", "escrow")
		l.Credit("alice", 100)
		l.Credit("alice", 50)

		if got := l.BalanceOf("alice"); got != 150 {
			t.Errorf("balance = %d, want 150", got)
		}
		if got := l.BalanceOf("nobody"); got != 0 {
			t.Errorf("balance = %d, want 0", got)
		}
	})

	t.Run("TransferFrom Checks Funds", func(t *testing.T) {
		l := NewLedger("NATIVE", "escrow")
		l.Credit("alice", 100)

		if err := l.TransferFrom("alice", "bob", 101); err == nil {
			t.Error("expected insufficient balance error")
		}
		if err := l.TransferFrom("alice", "bob", -1); err == nil {
			t.Error("expected negative amount error")
		}
		if err := l.TransferFrom("alice", "bob", 60); err != nil {
			t.Fatalf("TransferFrom: %v", err)
		}
		if got := l.BalanceOf("alice"); got != 40 {
			t.Errorf("alice = %d, want 40", got)
		}
		if got := l.BalanceOf("bob"); got != 60 {
			t.Errorf("bob = %d, want 60", got)
		}
	})

	t.Run("Transfer Spends From Bound Account", func(t *testing.T) {
		l := NewLedger("NATIVE", "escrow")
		l.Credit("escrow", 30)

		if err := l.Transfer("alice", 30); err != nil {
			t.Fatalf("Transfer: %v", err)
		}
		if got := l.BalanceOf("escrow"); got != 0 {
			t.Errorf("escrow = %d, want 0", got)
		}
		if got := l.BalanceOf("alice"); got != 30 {
			t.Errorf("alice = %d, want 30", got)
		}
	})
}

func TestStaticRegistries(t *testing.T) {
	reg := NewRegistry("gallery")
	s := StaticRegistries{"gallery": reg}

	if got, ok := s.Registry("gallery"); !ok || got != reg {
		t.Error("expected gallery registry")
	}
	if _, ok := s.Registry("missing"); ok {
		t.Error("expected miss for unknown id")
	}
}
