/*
backup.go - Scheduled database snapshots

A cron-driven job writes a timestamped snapshot of the database into the
backup directory and prunes the oldest snapshots beyond the retention count.
The scheduler state is the cron entry itself; no shared flags. Runs that
overlap are skipped via cron's built-in job wrapper.
*/
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const backupPrefix = "attendance-"

// BackupScheduler periodically snapshots the database.
type BackupScheduler struct {
	svc       *Service
	cron      *cron.Cron
	dir       string
	retention int
}

// NewBackupScheduler prepares a scheduler writing into dir, keeping the
// newest retention snapshots.
func NewBackupScheduler(svc *Service, dir string, retention int) *BackupScheduler {
	if retention <= 0 {
		retention = 14
	}
	return &BackupScheduler{
		svc:       svc,
		cron:      cron.New(),
		dir:       dir,
		retention: retention,
	}
}

// Start registers the job under the given cron spec (e.g. "0 3 * * *") and
// starts the scheduler.
func (b *BackupScheduler) Start(spec string) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	_, err := b.cron.AddJob(spec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(b.runOnce)))
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	b.cron.Start()
	b.svc.log.Info().Str("schedule", spec).Str("dir", b.dir).Msg("backup scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (b *BackupScheduler) Stop() {
	ctx := b.cron.Stop()
	<-ctx.Done()
}

// RunNow triggers one snapshot immediately, outside the schedule.
func (b *BackupScheduler) RunNow(ctx context.Context) (string, error) {
	return b.snapshot(ctx)
}

func (b *BackupScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path, err := b.snapshot(ctx)
	if err != nil {
		b.svc.log.Error().Err(err).Msg("scheduled backup failed")
		return
	}
	b.svc.log.Info().Str("path", path).Msg("backup written")

	if err := b.prune(); err != nil {
		b.svc.log.Warn().Err(err).Msg("backup pruning failed")
	}
}

func (b *BackupScheduler) snapshot(ctx context.Context) (string, error) {
	name := backupPrefix + b.svc.now().Format("20060102-150405") + ".db"
	path := filepath.Join(b.dir, name)
	if err := b.svc.store.BackupTo(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

// prune removes the oldest snapshots beyond the retention count. Snapshot
// names embed their timestamp, so lexical order is chronological order.
func (b *BackupScheduler) prune() error {
	dirEntries, err := os.ReadDir(b.dir)
	if err != nil {
		return err
	}

	var snapshots []string
	for _, e := range dirEntries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), ".db") {
			snapshots = append(snapshots, e.Name())
		}
	}
	if len(snapshots) <= b.retention {
		return nil
	}

	sort.Strings(snapshots)
	for _, name := range snapshots[:len(snapshots)-b.retention] {
		if err := os.Remove(filepath.Join(b.dir, name)); err != nil {
			return err
		}
	}
	return nil
}
