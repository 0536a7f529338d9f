package internal

import (
	"testing"
	"time"
)

func TestCacheManagerTaskRoundTrip(t *testing.T) {
	cm := NewCacheManager(t.TempDir())

	tasks := []Task{
		{ID: "t1", Title: "First", Status: StatusPending, Priority: PriorityHigh},
		{ID: "t2", Title: "Second", Status: StatusCompleted, Priority: PriorityLow},
	}
	if err := cm.SaveTasks(tasks); err != nil {
		t.Fatalf("SaveTasks() error: %v", err)
	}

	got, refreshed, err := cm.LoadTasks()
	if err != nil {
		t.Fatalf("LoadTasks() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadTasks() returned %d tasks, want 2", len(got))
	}
	byID := make(map[string]Task, len(got))
	for _, task := range got {
		byID[task.ID] = task
	}
	if byID["t1"].Title != "First" || byID["t2"].Status != StatusCompleted {
		t.Errorf("cached tasks corrupted: %+v", byID)
	}
	if time.Since(refreshed) > time.Minute {
		t.Errorf("refreshed stamp too old: %v", refreshed)
	}
}

func TestCacheManagerSaveReplacesWholesale(t *testing.T) {
	cm := NewCacheManager(t.TempDir())

	if err := cm.SaveTasks([]Task{{ID: "t1", Title: "Old"}}); err != nil {
		t.Fatal(err)
	}
	if err := cm.SaveTasks([]Task{{ID: "t2", Title: "New"}}); err != nil {
		t.Fatal(err)
	}

	got, _, err := cm.LoadTasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "t2" {
		t.Errorf("second save did not replace the first: %+v", got)
	}
}

func TestCacheManagerConversationsNormalizedOnLoad(t *testing.T) {
	cm := NewCacheManager(t.TempDir())

	conversations := []Conversation{
		{ID: "c1", Title: "older", UpdatedAt: "2026-03-01T09:00:00Z"},
		{ID: "c2", Title: "newer", UpdatedAt: "2026-03-01T11:00:00Z"},
	}
	if err := cm.SaveConversations(conversations); err != nil {
		t.Fatalf("SaveConversations() error: %v", err)
	}

	got, _, err := cm.LoadConversations()
	if err != nil {
		t.Fatalf("LoadConversations() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "c2" {
		t.Errorf("got[0].ID = %s, want c2 (most recently updated first)", got[0].ID)
	}
}

func TestCacheManagerMissingDatabase(t *testing.T) {
	cm := NewCacheManager(t.TempDir())

	tasks, refreshed, err := cm.LoadTasks()
	if err != nil {
		t.Fatalf("LoadTasks() on missing db: %v", err)
	}
	if len(tasks) != 0 || !refreshed.IsZero() {
		t.Errorf("LoadTasks() on missing db = %v, %v; want empty, zero time", tasks, refreshed)
	}
}

func TestCacheManagerClear(t *testing.T) {
	cm := NewCacheManager(t.TempDir())

	if err := cm.SaveTasks([]Task{{ID: "t1", Title: "gone soon"}}); err != nil {
		t.Fatal(err)
	}
	if err := cm.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	tasks, _, err := cm.LoadTasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 0 {
		t.Errorf("LoadTasks() after Clear = %+v, want empty", tasks)
	}
}

func TestCacheManagerClearWithoutDatabase(t *testing.T) {
	cm := NewCacheManager(t.TempDir())
	if err := cm.Clear(); err != nil {
		t.Errorf("Clear() on missing db = %v, want nil", err)
	}
}
