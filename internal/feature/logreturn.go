package feature

import (
	"errors"
	"fmt"
	"math"

	"github.com/moznion/go-optional"
)

// ErrDomain flags feature input outside its mathematical domain, such as a
// log return over a zero or negative price.
var ErrDomain = errors.New("feature input out of domain")

// Ticker consumes one streamed value per call and yields the feature's
// current output, None while the feature is still warming up.
type Ticker[In, Out any] interface {
	OnTick(In) (optional.Option[Out], error)
}

var _ Ticker[float64, float64] = (*LogReturn)(nil)

// LogReturn yields ln(newest/oldest) over the two most recent prices.
type LogReturn struct {
	window *Window[float64]
}

// NewLogReturn builds a log-return feature with an empty two-price window.
func NewLogReturn() *LogReturn {
	return &LogReturn{window: NewWindow[float64](2)}
}

// OnTick records price. Until two prices are held it returns None; afterwards
// it returns the log return of the newest price over the oldest. A ratio that
// is not strictly positive and finite returns ErrDomain, never NaN or Inf.
func (l *LogReturn) OnTick(price float64) (optional.Option[float64], error) {
	l.window.Push(price)
	if !l.window.Full() {
		return optional.None[float64](), nil
	}
	values := l.window.Values()
	oldest, newest := values[0], values[1]
	if oldest == 0 {
		return optional.None[float64](), fmt.Errorf("%w: log return over zero price", ErrDomain)
	}
	r := math.Log(newest / oldest)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return optional.None[float64](), fmt.Errorf("%w: log return of %v over %v", ErrDomain, newest, oldest)
	}
	return optional.Some(r), nil
}

// Ready reports whether the feature has seen enough prices to produce values.
func (l *LogReturn) Ready() bool { return l.window.Full() }
