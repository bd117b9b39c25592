package dashboard

import (
	"context"
	"sync"

	rcron "github.com/robfig/cron/v3"

	"ramzan/internal/calendar"
	"ramzan/internal/logger"
	"ramzan/internal/model"
	"ramzan/internal/prayer"
)

// DefaultSpec refreshes the wall clock once per second.
const DefaultSpec = "@every 1s"

// Ticker re-renders the dashboard on a cron schedule. Prayer times are
// fetched once when the ticker starts; the task list is re-read on every
// tick.
type Ticker struct {
	Spec     string
	Clock    calendar.Clock
	Tasks    func(ctx context.Context) []model.Task
	Provider prayer.Provider
	Render   func(Snapshot)
	Log      *logger.Logger

	mu     sync.Mutex
	result prayer.Result
	cron   *rcron.Cron

	// renderMu keeps the fetch goroutine and cron jobs from rendering at once.
	renderMu sync.Mutex
}

// Start renders once immediately and then on every tick until ctx is done.
func (t *Ticker) Start(ctx context.Context) error {
	if t.Spec == "" {
		t.Spec = DefaultSpec
	}
	if t.Clock == nil {
		t.Clock = calendar.RealClock{}
	}
	if t.Log == nil {
		t.Log = logger.Discard()
	}

	t.setResult(prayer.Result{Err: prayer.ErrUnavailable})
	fetched := prayer.FetchAsync(ctx, t.Provider)
	go func() {
		select {
		case res := <-fetched:
			if !res.Available() {
				t.Log.WarnContext(ctx, "prayer times unavailable", "error", res.Err)
			}
			t.setResult(res)
			t.Tick(ctx)
		case <-ctx.Done():
		}
	}()

	t.cron = rcron.New(rcron.WithSeconds())
	if _, err := t.cron.AddFunc(t.Spec, func() { t.Tick(ctx) }); err != nil {
		return err
	}
	t.Tick(ctx)
	t.cron.Start()

	go func() {
		<-ctx.Done()
		t.Stop()
	}()
	return nil
}

func (t *Ticker) Stop() {
	t.mu.Lock()
	c := t.cron
	t.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Tick renders one snapshot. Concurrent calls render one at a time.
func (t *Ticker) Tick(ctx context.Context) {
	if t.Render == nil {
		return
	}
	t.renderMu.Lock()
	defer t.renderMu.Unlock()

	var tasks []model.Task
	if t.Tasks != nil {
		tasks = t.Tasks(ctx)
	}
	t.mu.Lock()
	res := t.result
	t.mu.Unlock()

	t.Render(Build(tasks, res, t.Clock.Now()))
}

func (t *Ticker) setResult(res prayer.Result) {
	t.mu.Lock()
	t.result = res
	t.mu.Unlock()
}
