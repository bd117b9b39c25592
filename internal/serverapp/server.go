package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"ramzan/internal/blob"
	"ramzan/internal/calendar"
	"ramzan/internal/config"
	"ramzan/internal/dashboard"
	"ramzan/internal/httpmw"
	"ramzan/internal/logger"
	"ramzan/internal/prayer"
	"ramzan/internal/task"
)

type Options struct {
	Config   *config.Config
	Store    blob.Store
	Provider prayer.Provider
	Clock    calendar.Clock
	Logger   *logger.Logger
}

func NewHandler(ctx context.Context, opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Clock == nil {
		opts.Clock = calendar.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Provider == nil {
		p := opts.Config.Prayer
		opts.Provider = prayer.NewAlAdhan(p.BaseURL, p.City, p.Country, p.Timeout)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "ramzan",
			"time":    opts.Clock.Now().UTC().Format(time.RFC3339),
		})
	})

	repo := task.NewRepo(opts.Store, opts.Logger)
	taskHandler := task.NewHandler(repo, opts.Clock)
	mux.HandleFunc("/api/tasks", taskHandler.TasksRoot)
	mux.HandleFunc("/api/tasks/", taskHandler.TasksSub)
	mux.HandleFunc("/api/calendar", taskHandler.Calendar)

	times := newPrayerState()
	times.watch(ctx, opts.Provider, opts.Logger)

	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		res, status := times.get()
		writeJSON(w, http.StatusOK, dashboardResponse{
			Snapshot:     dashboard.Build(repo.List(r.Context()), res, opts.Clock.Now()),
			PrayerStatus: status,
		})
	})

	return httpmw.Chain(
		mux,
		httpmw.WithRequestID,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRecover(opts.Logger),
	), nil
}

const (
	prayerLoading     = "loading"
	prayerReady       = "ready"
	prayerUnavailable = "unavailable"
)

type dashboardResponse struct {
	dashboard.Snapshot
	PrayerStatus string `json:"prayerStatus"`
}

// prayerState holds the single fetch made when the server starts.
type prayerState struct {
	mu     sync.RWMutex
	result prayer.Result
	status string
}

func newPrayerState() *prayerState {
	return &prayerState{
		result: prayer.Result{Err: prayer.ErrUnavailable},
		status: prayerLoading,
	}
}

func (s *prayerState) watch(ctx context.Context, p prayer.Provider, log *logger.Logger) {
	ch := prayer.FetchAsync(ctx, p)
	go func() {
		res, ok := <-ch
		if !ok {
			return
		}
		status := prayerReady
		if !res.Available() {
			status = prayerUnavailable
			log.WarnContext(ctx, "prayer times unavailable", "error", res.Err)
		}
		s.mu.Lock()
		s.result, s.status = res, status
		s.mu.Unlock()
	}()
}

func (s *prayerState) get() (prayer.Result, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.status
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
