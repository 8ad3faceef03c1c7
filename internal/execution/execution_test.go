package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type scriptedVenue struct {
	closeErr  error
	openErr   error
	closeFill Fill
	openFill  Fill
	calls     []string
}

func (v *scriptedVenue) MarketClose(ctx context.Context, coin string) (Fill, error) {
	v.calls = append(v.calls, "close")
	return v.closeFill, v.closeErr
}

func (v *scriptedVenue) MarketOpen(ctx context.Context, coin string, isBuy bool, size float64) (Fill, error) {
	v.calls = append(v.calls, "open")
	return v.openFill, v.openErr
}

func TestExecuteClosesBeforeOpening(t *testing.T) {
	venue := &scriptedVenue{
		closeFill: Fill{Coin: "ETH", Size: 0.0002, Price: 2500},
		openFill:  Fill{Coin: "ETH", IsBuy: true, Size: 0.0002, Price: 2501},
	}
	exec := NewExecutor(venue, zerolog.Nop())

	report := exec.Execute(context.Background(), Intent{Coin: "ETH", Size: 0.0002, IsBuy: true})
	if report.CloseErr != nil || report.OpenErr != nil {
		t.Fatalf("unexpected step errors: close=%v open=%v", report.CloseErr, report.OpenErr)
	}
	if len(venue.calls) != 2 || venue.calls[0] != "close" || venue.calls[1] != "open" {
		t.Fatalf("expected close then open, got %v", venue.calls)
	}
	if report.Open.Price != 2501 {
		t.Fatalf("open fill not propagated: %+v", report.Open)
	}
}

func TestExecuteOpensEvenWhenCloseFails(t *testing.T) {
	venue := &scriptedVenue{
		closeErr: errors.New("venue unavailable"),
		openFill: Fill{Coin: "ETH", Size: 0.0002, Price: 2400},
	}
	exec := NewExecutor(venue, zerolog.Nop())

	report := exec.Execute(context.Background(), Intent{Coin: "ETH", Size: 0.0002, IsBuy: false})
	if report.CloseErr == nil {
		t.Fatal("expected close error to be reported")
	}
	if report.OpenErr != nil {
		t.Fatalf("open should have succeeded: %v", report.OpenErr)
	}
	if len(venue.calls) != 2 {
		t.Fatalf("open must still be attempted after close failure, got calls %v", venue.calls)
	}
}

func TestExecuteReportsOpenFailureWithoutPanic(t *testing.T) {
	venue := &scriptedVenue{openErr: errors.New("rejected")}
	exec := NewExecutor(venue, zerolog.Nop())

	report := exec.Execute(context.Background(), Intent{Coin: "ETH", Size: 0.0002, IsBuy: true})
	if report.OpenErr == nil {
		t.Fatal("expected open error to be reported")
	}
	if report.CloseErr != nil {
		t.Fatalf("close should have succeeded: %v", report.CloseErr)
	}
}

func TestIntentSide(t *testing.T) {
	if (Intent{IsBuy: true}).Side() != "buy" || (Intent{}).Side() != "sell" {
		t.Fatal("unexpected side rendering")
	}
}
