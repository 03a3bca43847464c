package board

import (
	"testing"

	"servex-board/domain"
)

func TestStoreSelectClearsBoard(t *testing.T) {
	store := NewStore()
	store.Select("s1")
	store.SetProcesses([]domain.Process{{ID: "p1", Name: "DESIGN"}}, "s1")
	store.ReplaceTasks([]domain.Task{{ID: "t1", Status: "DESIGN"}}, "s1")

	store.Select("s2")
	snap := store.Snapshot()
	if snap.SelectedService != "s2" {
		t.Fatalf("unexpected selection: %s", snap.SelectedService)
	}
	if len(snap.Processes) != 0 || len(snap.Tasks) != 0 {
		t.Fatalf("selection change must clear the board: %+v", snap)
	}
}

func TestStoreDiscardsStaleResults(t *testing.T) {
	store := NewStore()
	store.Select("s2")

	store.SetProcesses([]domain.Process{{ID: "p1", Name: "DESIGN"}}, "s1")
	store.ReplaceTasks([]domain.Task{{ID: "t1"}}, "s1")

	snap := store.Snapshot()
	if len(snap.Processes) != 0 || len(snap.Tasks) != 0 {
		t.Fatalf("results for a stale selection must be discarded: %+v", snap)
	}
}

func TestStoreUpdateTaskReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Select("s1")
	store.ReplaceTasks([]domain.Task{{ID: "t1", Status: "DESIGN"}}, "s1")

	updated, ok := store.UpdateTask("t1", func(task *domain.Task) {
		task.Status = "REVIEW"
	})
	if !ok || updated.Status != "REVIEW" {
		t.Fatalf("unexpected update result: ok=%v task=%+v", ok, updated)
	}

	stored, _ := store.Task("t1")
	if stored.Status != "REVIEW" {
		t.Fatalf("update not applied to the store: %+v", stored)
	}
	if _, ok := store.UpdateTask("missing", func(*domain.Task) {}); ok {
		t.Fatal("updating a missing task must fail")
	}
}

func TestStoreSnapshotIsIsolated(t *testing.T) {
	store := NewStore()
	store.Select("s1")
	store.ReplaceTasks([]domain.Task{{ID: "t1", Status: "DESIGN"}}, "s1")

	snap := store.Snapshot()
	snap.Tasks[0].Status = "mutated"

	stored, _ := store.Task("t1")
	if stored.Status != "DESIGN" {
		t.Fatalf("snapshot mutation leaked into the store: %+v", stored)
	}
}
