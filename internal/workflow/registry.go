package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"splice/internal/services"
)

// TaskState is the lifecycle of a registered task. Disabled is terminal.
type TaskState string

const (
	TaskEnabled  TaskState = "enabled"
	TaskDisabled TaskState = "disabled"
)

// TaskFunc performs one pass of a task and returns a short summary of what it
// did.
type TaskFunc func(ctx context.Context) (string, error)

// TaskStatus is a point-in-time view of a registered task.
type TaskStatus struct {
	Name        string
	State       TaskState
	Runs        int
	LastRun     time.Time
	LastSummary string
	LastError   string
}

type task struct {
	name   string
	run    TaskFunc
	status TaskStatus
}

// Registry holds tasks in registration order.
type Registry struct {
	mu    sync.Mutex
	tasks []*task
	index map[string]*task
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*task)}
}

// Register adds an enabled task. Names are case-insensitive and must be
// unique.
func (r *Registry) Register(name string, fn TaskFunc) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return services.Wrap(services.ErrValidation, "workflow", "register task", "task name and function are required", nil)
	}
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.index[key]; exists {
		return services.Wrap(services.ErrValidation, "workflow", "register task", fmt.Sprintf("task %q already registered", name), nil)
	}
	t := &task{name: name, run: fn, status: TaskStatus{Name: name, State: TaskEnabled}}
	r.tasks = append(r.tasks, t)
	r.index[key] = t
	return nil
}

// Disable moves a task to the disabled state. It reports whether the task
// was enabled before the call.
func (r *Registry) Disable(name, reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok || t.status.State == TaskDisabled {
		return false
	}
	t.status.State = TaskDisabled
	if reason != "" {
		t.status.LastError = reason
	}
	return true
}

// Enabled lists the names of enabled tasks in registration order.
func (r *Registry) Enabled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tasks))
	for _, t := range r.tasks {
		if t.status.State == TaskEnabled {
			names = append(names, t.name)
		}
	}
	return names
}

// Snapshot returns the status of every task in registration order.
func (r *Registry) Snapshot() []TaskStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TaskStatus, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t.status)
	}
	return out
}

func (r *Registry) lookup(name string) (TaskFunc, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.index[strings.ToLower(name)]
	if !ok || t.status.State != TaskEnabled {
		return nil, false
	}
	return t.run, true
}

func (r *Registry) record(name string, at time.Time, summary string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.index[strings.ToLower(name)]
	if !ok {
		return
	}
	t.status.Runs++
	t.status.LastRun = at
	t.status.LastSummary = summary
	if err != nil {
		t.status.LastError = err.Error()
	}
}
