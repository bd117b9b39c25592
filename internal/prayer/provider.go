package prayer

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("prayer times unavailable")

// Day is one provider answer: the five timings plus the Hijri date as a
// display string ("1 Ramadan 1445").
type Day struct {
	Times     Times  `json:"times"`
	HijriDate string `json:"hijriDate"`
}

type Provider interface {
	Timings(ctx context.Context) (Day, error)
}

// Result is the outcome of one fetch. A failed fetch is an explicit
// unavailable value rather than a missing one.
type Result struct {
	Day Day
	Err error
}

func (r Result) Available() bool { return r.Err == nil }

// TimesOrNil hands the view model its input: nil while unavailable.
func (r Result) TimesOrNil() *Times {
	if !r.Available() {
		return nil
	}
	t := r.Day.Times
	return &t
}

// FetchAsync runs one fetch in the background and delivers exactly one
// Result. There is no retry.
func FetchAsync(ctx context.Context, p Provider) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		if p == nil {
			out <- Result{Err: ErrUnavailable}
			return
		}
		day, err := p.Timings(ctx)
		if err != nil {
			out <- Result{Err: errors.Join(ErrUnavailable, err)}
			return
		}
		out <- Result{Day: day}
	}()
	return out
}

// Static serves fixed timings; used offline and in tests.
type Static Day

func (s Static) Timings(context.Context) (Day, error) { return Day(s), nil }
