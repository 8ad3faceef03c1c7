package feature

import (
	"errors"
	"math"
	"testing"
)

func TestLogReturnWarmsUpThenComputes(t *testing.T) {
	lr := NewLogReturn()

	out, err := lr.OnTick(100)
	if err != nil {
		t.Fatalf("first tick error: %v", err)
	}
	if out.IsSome() {
		t.Fatalf("expected None before two prices, got %v", out.Unwrap())
	}
	if lr.Ready() {
		t.Fatal("feature should not be ready after one price")
	}

	out, err = lr.OnTick(110)
	if err != nil {
		t.Fatalf("second tick error: %v", err)
	}
	if out.IsNone() {
		t.Fatal("expected a value after two prices")
	}
	want := math.Log(110.0 / 100.0)
	if got := out.Unwrap(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("log return %v, want %v", got, want)
	}

	// the window slides: the next return is relative to 110
	out, err = lr.OnTick(121)
	if err != nil {
		t.Fatalf("third tick error: %v", err)
	}
	want = math.Log(121.0 / 110.0)
	if got := out.Unwrap(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("sliding log return %v, want %v", got, want)
	}
}

func TestLogReturnZeroPriceIsDomainError(t *testing.T) {
	lr := NewLogReturn()
	if _, err := lr.OnTick(100); err != nil {
		t.Fatalf("warmup tick error: %v", err)
	}
	out, err := lr.OnTick(0)
	if err == nil {
		t.Fatal("expected domain error for zero price")
	}
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain, got %v", err)
	}
	if out.IsSome() {
		t.Fatalf("errored tick must not yield a value, got %v", out.Unwrap())
	}

	// zero as the denominator on the following tick errors too
	out, err = lr.OnTick(50)
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain for zero denominator, got %v", err)
	}
	if out.IsSome() {
		t.Fatal("errored tick must not yield a value")
	}
}

func TestLogReturnNegativePriceIsDomainError(t *testing.T) {
	lr := NewLogReturn()
	lr.OnTick(100)
	if _, err := lr.OnTick(-5); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain for negative price, got %v", err)
	}
}
