package chain

import "testing"

func TestCoinbaseInherentRoundTrips(t *testing.T) {
	in := CoinbaseInherent{Shares: []CoinbaseShare{
		{Author: AccountID{1}, Difficulty: NewDifficulty(100)},
		{Author: AccountID{2}, Difficulty: NewDifficulty(250)},
	}}

	out, err := DecodeCoinbaseInherent(in.Encode())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Shares) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(out.Shares))
	}
	if out.Shares[0].Author != in.Shares[0].Author || out.Shares[0].Difficulty.Cmp(in.Shares[0].Difficulty) != 0 {
		t.Fatalf("share 0 mismatch: %+v", out.Shares[0])
	}
	if out.Shares[1].Author != in.Shares[1].Author || out.Shares[1].Difficulty.Cmp(in.Shares[1].Difficulty) != 0 {
		t.Fatalf("share 1 mismatch: %+v", out.Shares[1])
	}
}

func TestCoinbaseInherentEmpty(t *testing.T) {
	out, err := DecodeCoinbaseInherent(CoinbaseInherent{}.Encode())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Shares) != 0 {
		t.Fatalf("expected no shares, got %d", len(out.Shares))
	}
}

func TestDecodeCoinbaseInherentShortBuffer(t *testing.T) {
	if _, err := DecodeCoinbaseInherent([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error for a short buffer")
	}
}
