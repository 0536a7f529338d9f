package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
)

// TaskFilters narrows a task list fetch. Zero values are omitted from the
// query string.
type TaskFilters struct {
	Status   string
	Priority string
	Limit    int
	Offset   int
}

func (f TaskFilters) values() url.Values {
	params := url.Values{}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.Priority != "" {
		params.Set("priority", f.Priority)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}
	return params
}

// TaskStore maintains the local task collection and dispatches CRUD calls to
// the backend. Updates are optimistic: the local task is merged immediately
// and reconciled with the server copy afterwards, with a full refetch as the
// rollback path. Deletes are not optimistic; the task stays until the server
// confirms. Concurrent calls against the same id are not serialized, so the
// final local state is whichever response lands last.
type TaskStore struct {
	mu      sync.Mutex
	client  *Client
	tasks   []Task
	loading bool
	lastErr string
}

// NewTaskStore creates an empty store backed by the given client.
func NewTaskStore(client *Client) *TaskStore {
	return &TaskStore{client: client}
}

// Tasks returns a copy of the local task collection.
func (ts *TaskStore) Tasks() []Task {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]Task, len(ts.tasks))
	copy(out, ts.tasks)
	return out
}

// Loading reports whether a fetch is in flight.
func (ts *TaskStore) Loading() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.loading
}

// Err returns the last recorded error message, or "".
func (ts *TaskStore) Err() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.lastErr
}

// Fetch replaces the local collection wholesale with the server list. On
// failure the collection is left unchanged and the error recorded.
func (ts *TaskStore) Fetch(ctx context.Context, filters TaskFilters) error {
	ts.setLoading(true)

	data, err := ts.client.Get(ctx, "/api/v1/tasks/", filters.values())
	if err != nil {
		ts.fail("Failed to fetch tasks", err)
		return err
	}

	var env apiEnvelope
	if err := unmarshalEnvelope(data, &env); err != nil {
		ts.fail("Failed to fetch tasks", err)
		return err
	}
	var payload tasksData
	if err := unmarshalData(env.Data, &payload); err != nil {
		ts.fail("Failed to fetch tasks", err)
		return err
	}

	ts.mu.Lock()
	ts.tasks = payload.Tasks
	ts.loading = false
	ts.lastErr = ""
	ts.mu.Unlock()
	return nil
}

// Get fetches a single task by id. It does not touch the local collection.
func (ts *TaskStore) Get(ctx context.Context, id string) (*Task, error) {
	data, err := ts.client.Get(ctx, "/api/v1/tasks/"+id, nil)
	if err != nil {
		return nil, err
	}
	task, err := decodeTask(data)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Create sends a creation request and appends the server-returned task (with
// its server-assigned id) on success. There is no optimistic insert.
func (ts *TaskStore) Create(ctx context.Context, req TaskCreate) (*Task, error) {
	data, err := ts.client.Post(ctx, "/api/v1/tasks/", req)
	if err != nil {
		ts.fail("Failed to create task", err)
		return nil, err
	}
	task, err := decodeTask(data)
	if err != nil {
		ts.fail("Failed to create task", err)
		return nil, err
	}

	ts.mu.Lock()
	ts.tasks = append(ts.tasks, *task)
	ts.lastErr = ""
	ts.mu.Unlock()
	return task, nil
}

// Update performs a full update (PUT) with optimistic local merge.
func (ts *TaskStore) Update(ctx context.Context, id string, patch TaskPatch) error {
	return ts.mutate(ctx, id, patch, ts.client.Put)
}

// Patch performs a partial update (PATCH) with optimistic local merge.
func (ts *TaskStore) Patch(ctx context.Context, id string, patch TaskPatch) error {
	return ts.mutate(ctx, id, patch, ts.client.Patch)
}

type mutateFn func(ctx context.Context, path string, body interface{}) (json.RawMessage, error)

// mutate applies the patch locally first so callers see the change
// immediately, then reconciles with the authoritative server copy. On
// failure it records the error and refetches the full list, discarding the
// optimistic change.
func (ts *TaskStore) mutate(ctx context.Context, id string, patch TaskPatch, send mutateFn) error {
	ts.applyLocal(id, patch)

	data, err := send(ctx, "/api/v1/tasks/"+id, patch)
	if err != nil {
		ts.fail("Failed to update task", err)
		if fetchErr := ts.Fetch(ctx, TaskFilters{}); fetchErr != nil {
			LogWarn("Rollback refetch failed: %v", fetchErr)
		}
		return err
	}

	task, err := decodeTask(data)
	if err != nil {
		ts.fail("Failed to update task", err)
		return err
	}

	ts.replaceLocal(*task)
	return nil
}

// Delete removes the task from the local collection only after the server
// confirms the deletion.
func (ts *TaskStore) Delete(ctx context.Context, id string) error {
	if _, err := ts.client.Delete(ctx, "/api/v1/tasks/"+id); err != nil {
		ts.fail("Failed to delete task", err)
		return err
	}

	ts.mu.Lock()
	kept := ts.tasks[:0]
	for _, t := range ts.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	ts.tasks = kept
	ts.lastErr = ""
	ts.mu.Unlock()
	return nil
}

func (ts *TaskStore) applyLocal(id string, patch TaskPatch) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for i, t := range ts.tasks {
		if t.ID == id {
			ts.tasks[i] = patch.Apply(t)
			return
		}
	}
}

func (ts *TaskStore) replaceLocal(task Task) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for i, t := range ts.tasks {
		if t.ID == task.ID {
			ts.tasks[i] = task
			break
		}
	}
	ts.lastErr = ""
}

func (ts *TaskStore) setLoading(v bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.loading = v
	if v {
		ts.lastErr = ""
	}
}

// fail records a user-visible error message and clears the loading flag.
// Errors are never fatal to the store; the collection stays usable.
func (ts *TaskStore) fail(prefix string, err error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.loading = false
	ts.lastErr = fmt.Sprintf("%s: %v", prefix, err)
}

func decodeTask(data []byte) (*Task, error) {
	var env apiEnvelope
	if err := unmarshalEnvelope(data, &env); err != nil {
		return nil, err
	}
	var payload taskData
	if err := unmarshalData(env.Data, &payload); err != nil {
		return nil, err
	}
	return &payload.Task, nil
}
