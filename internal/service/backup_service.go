package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
)

// ─────────────────────────────────────────────────────────────
// Backup Service — scheduled scene snapshots
// ─────────────────────────────────────────────────────────────

const (
	// backupsPerScene caps retained snapshots; older ones are pruned.
	backupsPerScene = 20

	// defaultBackupSchedule runs hourly.
	defaultBackupSchedule = "0 * * * *"
)

// BackupService periodically snapshots every scene to JSON files under
// the data directory. Snapshots are the same payload exports embed, so
// a backup can be re-imported as a scene.
type BackupService struct {
	scenes  *SceneService
	emitter EventEmitter
	dataDir string

	cron  *cron.Cron
	guard *runGuard
}

// NewBackupService creates a BackupService writing under
// dataDir/backups.
func NewBackupService(scenes *SceneService, emitter EventEmitter, dataDir string) *BackupService {
	return &BackupService{
		scenes:  scenes,
		emitter: emitter,
		dataDir: dataDir,
		cron:    cron.New(),
		guard:   &runGuard{},
	}
}

// Start schedules the periodic backup. An empty schedule uses the
// default.
func (s *BackupService) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = defaultBackupSchedule
	}
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			log.Printf("backup: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule backup: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for an in-flight run.
func (s *BackupService) Stop(ctx context.Context) {
	s.cron.Stop()
	s.guard.WaitAll(ctx)
}

// RunOnce snapshots all scenes immediately. Overlapping runs are
// skipped rather than queued.
func (s *BackupService) RunOnce(ctx context.Context) error {
	if !s.guard.TryLock("backup") {
		return nil
	}
	defer s.guard.Unlock("backup")

	scenes, err := s.scenes.ListScenes()
	if err != nil {
		return fmt.Errorf("list scenes: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	var failed int
	for _, sc := range scenes {
		if err := s.backupScene(sc.ID, stamp); err != nil {
			failed++
			log.Printf("backup: scene %s: %v", sc.ID, err)
		}
	}

	s.emitter.Emit(ctx, "backup:completed", map[string]any{
		"scenes": len(scenes),
		"failed": failed,
		"at":     stamp,
	})
	return nil
}

func (s *BackupService) backupScene(sceneID, stamp string) error {
	data, err := s.scenes.SnapshotJSON(sceneID)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	dir := filepath.Join(s.dataDir, "backups", sceneID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, stamp+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return s.prune(dir)
}

// prune deletes the oldest snapshots beyond the retention cap.
// Filenames sort chronologically because of the timestamp format.
func (s *BackupService) prune(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	if len(names) <= backupsPerScene {
		return nil
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-backupsPerScene] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}
