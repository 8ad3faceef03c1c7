package strategy

import "testing"

func TestFixedSizeDecide(t *testing.T) {
	policy := FixedSize{Coin: "ETH", Size: 0.0002}

	buy := policy.Decide(0.01)
	if buy.IsNone() {
		t.Fatal("positive forecast must trade")
	}
	intent := buy.Unwrap()
	if !intent.IsBuy || intent.Coin != "ETH" || intent.Size != 0.0002 {
		t.Fatalf("unexpected buy intent: %+v", intent)
	}

	sell := policy.Decide(-0.01)
	if sell.IsNone() {
		t.Fatal("negative forecast must trade")
	}
	if sell.Unwrap().IsBuy {
		t.Fatal("negative forecast must sell")
	}
}

func TestFixedSizeZeroForecastMeansNoTrade(t *testing.T) {
	policy := FixedSize{Coin: "ETH", Size: 0.0002}
	if decided := policy.Decide(0); decided.IsSome() {
		t.Fatalf("zero forecast must not trade, got %+v", decided.Unwrap())
	}
}
