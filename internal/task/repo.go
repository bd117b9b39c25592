package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"ramzan/internal/blob"
	"ramzan/internal/calendar"
	"ramzan/internal/logger"
	"ramzan/internal/model"
)

// StorageKey is the blob entry holding the serialized task list.
const StorageKey = "ramzan-tasks"

var (
	ErrNotFound    = errors.New("task not found")
	ErrNotEditable = errors.New("date is in the future")
)

// Append adds t to the end of the list without touching the input slice.
func Append(tasks []model.Task, t model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks)+1)
	out = append(out, tasks...)
	return append(out, t)
}

// Without drops every entry with the given id. Missing ids are not an error.
func Without(tasks []model.Task, id model.TaskID) []model.Task {
	return filter(tasks, func(t model.Task) bool { return t.ID != id })
}

// Repo is the single owner of the task list. The blob store is a mirror:
// every mutation reloads it, applies the change and overwrites the entry
// wholesale. Concurrent callers are serialized; across processes the last
// writer wins.
type Repo struct {
	mu    sync.Mutex
	store blob.Store
	log   *logger.Logger
}

func NewRepo(store blob.Store, log *logger.Logger) *Repo {
	if log == nil {
		log = logger.Discard()
	}
	return &Repo{store: store, log: log}
}

// Load never fails: an absent or unreadable entry is an empty list.
func (r *Repo) Load(ctx context.Context) []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(ctx)
}

func (r *Repo) loadLocked(ctx context.Context) []model.Task {
	b, ok, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		r.log.WarnContext(ctx, "task store read failed, starting empty", "error", err)
		return []model.Task{}
	}
	if !ok {
		return []model.Task{}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		r.log.WarnContext(ctx, "task store entry is malformed, starting empty", "error", err)
		return []model.Task{}
	}

	tasks := make([]model.Task, 0, len(entries))
	for i, raw := range entries {
		var t model.Task
		if err := t.UnmarshalJSON(raw); err != nil {
			r.log.WarnContextf(ctx, "task %d could not be read, skipping it: %v", i, err)
			continue
		}
		if t.ID == "" {
			r.log.WarnContextf(ctx, "task %d has no id, keeping it as stored", i)
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// Save overwrites the stored list with tasks.
func (r *Repo) Save(ctx context.Context, tasks []model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(ctx, tasks)
}

func (r *Repo) saveLocked(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := r.store.Put(ctx, StorageKey, b); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func (r *Repo) List(ctx context.Context) []model.Task {
	return r.Load(ctx)
}

func (r *Repo) Get(ctx context.Context, id model.TaskID) (model.Task, error) {
	for _, t := range r.Load(ctx) {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, ErrNotFound
}

func (r *Repo) Add(ctx context.Context, t model.Task) (model.Task, error) {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.CompletedDates == nil {
		t.CompletedDates = map[string]bool{}
	}
	err := r.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		return Append(tasks, t), nil
	})
	if err != nil {
		return model.Task{}, err
	}
	r.log.InfoContext(ctx, "task added", "task_id", t.ID, "type", t.Kind())
	return t, nil
}

// Remove deletes the task and with it all completion history.
func (r *Repo) Remove(ctx context.Context, id model.TaskID) error {
	err := r.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		return Without(tasks, id), nil
	})
	if err != nil {
		return err
	}
	r.log.InfoContext(ctx, "task removed", "task_id", id)
	return nil
}

// Update replaces the stored task with the same id.
func (r *Repo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	err := r.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		for i := range tasks {
			if tasks[i].ID == t.ID {
				tasks[i] = t
				return tasks, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// Toggle flips the completion flag of id on d. Future dates are rejected
// with ErrNotEditable and leave the store untouched.
func (r *Repo) Toggle(ctx context.Context, id model.TaskID, d, today calendar.Date) (model.Task, error) {
	if !IsEditable(d, today) {
		return model.Task{}, ErrNotEditable
	}

	var updated model.Task
	err := r.mutate(ctx, func(tasks []model.Task) ([]model.Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				updated = Toggle(tasks[i], d)
				tasks[i] = updated
				return tasks, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return model.Task{}, err
	}
	r.log.InfoContext(ctx, "task toggled", "task_id", id, "date", d.Key(), "completed", IsCompleted(updated, d))
	return updated, nil
}

func (r *Repo) mutate(ctx context.Context, fn func([]model.Task) ([]model.Task, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(r.loadLocked(ctx))
	if err != nil {
		return err
	}
	return r.saveLocked(ctx, next)
}
