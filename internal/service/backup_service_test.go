package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestBackupRunOnce(t *testing.T) {
	emitter := &MockEmitter{}
	scenes, sc := newTestScene(t, emitter)
	dataDir := t.TempDir()

	bs := NewBackupService(scenes, emitter, dataDir)
	if err := bs.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(dataDir, "backups", sc.ID))
	if err != nil {
		t.Fatalf("backup dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("backup dir has %d entries, want 1", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(dataDir, "backups", sc.ID, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("empty backup snapshot")
	}

	if emitter.CountEvent("backup:completed") != 1 {
		t.Error("no completion event")
	}
}

func TestBackupOverlapSkipped(t *testing.T) {
	emitter := &MockEmitter{}
	scenes, _ := newTestScene(t, emitter)

	bs := NewBackupService(scenes, emitter, t.TempDir())
	if !bs.guard.TryLock("backup") {
		t.Fatal("guard lock failed")
	}
	// A run while another is in flight returns without doing work.
	if err := bs.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if emitter.CountEvent("backup:completed") != 0 {
		t.Error("overlapping run completed")
	}
	bs.guard.Unlock("backup")
}
