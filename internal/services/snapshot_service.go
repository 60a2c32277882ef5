package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"subscli/internal/analytics"
	"subscli/internal/config"
	"subscli/internal/dataprocessing"
	apperrors "subscli/internal/errors"
	"subscli/internal/files"
	"subscli/internal/infrastructure"
	"subscli/pkg/contracts/domain"
)

// Snapshot is one immutable loaded view of the subscription source:
// cleaned records, the facet values observed in them, and load metadata.
// Once built it is shared read-only across concurrent aggregations, so
// holders must never mutate Records.
type Snapshot struct {
	Records []domain.SubscriptionRecord
	Facets  domain.FacetOptions
	Info    domain.SnapshotInfo
}

// SnapshotService owns the process-wide snapshot cache. The cache key is
// (source path, source mod time): every access stats the file (throttled
// to one stat per SnapshotStatInterval) and a changed mod time triggers a
// fresh load. Concurrent loads of the same path collapse into a single
// flight; readers during a reload see either the old or the new snapshot,
// never a partial one.
type SnapshotService struct {
	sourcePath func() string
	loader     *dataprocessing.Loader
	cleaner    *dataprocessing.Cleaner
	discovery  *files.Discovery
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger

	statInterval time.Duration

	group singleflight.Group

	mu       sync.RWMutex
	current  *Snapshot
	lastStat time.Time
}

// NewSnapshotService creates the snapshot service over the configured
// source file.
func NewSnapshotService(cfg *config.Config, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *SnapshotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotService{
		sourcePath:   cfg.GetSourceFile,
		loader:       dataprocessing.NewLoader(logger),
		cleaner:      dataprocessing.NewCleaner(logger),
		discovery:    files.NewDiscovery(cfg.GetDataDir()),
		metrics:      metrics,
		logger:       logger,
		statInterval: config.SnapshotStatInterval,
	}
}

// Snapshot returns the current snapshot, loading the source file on first
// access and reloading it when the file's mod time has changed.
func (s *SnapshotService) Snapshot(ctx context.Context) (*Snapshot, error) {
	path := s.sourcePath()
	if snap := s.cached(ctx, path); snap != nil {
		infrastructure.RecordSnapshotCacheAccess(ctx, s.metrics, true)
		return snap, nil
	}
	infrastructure.RecordSnapshotCacheAccess(ctx, s.metrics, false)
	return s.loadShared(ctx, path)
}

// Current returns the cached snapshot without triggering a load, or nil
// when nothing is loaded yet.
func (s *SnapshotService) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Info returns the metadata of the current snapshot, loading it first when
// needed.
func (s *SnapshotService) Info(ctx context.Context) (domain.SnapshotInfo, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.SnapshotInfo{}, err
	}
	return snap.Info, nil
}

// Reload returns a fresh snapshot. With force the cache is dropped first,
// so the source is re-read even when its mod time is unchanged; without
// force a reload is the ordinary stat-checked access.
func (s *SnapshotService) Reload(ctx context.Context, force bool) (*Snapshot, error) {
	if force {
		s.Invalidate()
	}
	return s.Snapshot(ctx)
}

// Invalidate drops the cached snapshot. The next access loads from disk.
func (s *SnapshotService) Invalidate() {
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.lastStat = time.Time{}
	s.mu.Unlock()

	if had {
		s.logger.Info("snapshot cache invalidated")
	}
}

// cached returns the current snapshot when it is still valid for path.
// Validity is re-checked against the file at most once per statInterval;
// between checks the cached snapshot is trusted.
func (s *SnapshotService) cached(ctx context.Context, path string) *Snapshot {
	s.mu.RLock()
	snap := s.current
	lastStat := s.lastStat
	s.mu.RUnlock()

	if snap == nil || snap.Info.SourcePath != path {
		return nil
	}
	if time.Since(lastStat) < s.statInterval {
		return snap
	}

	stat, err := os.Stat(path)
	if err != nil {
		// The file vanished under us. Drop the cache so the next load
		// surfaces SourceUnavailable instead of silently serving data
		// that no longer has a source.
		s.logger.WarnContext(ctx, "snapshot source no longer accessible",
			slog.String("path", path),
			slog.String("error", err.Error()))
		s.Invalidate()
		return nil
	}

	if !stat.ModTime().Equal(snap.Info.SourceModTime) {
		s.logger.InfoContext(ctx, "snapshot source changed on disk",
			slog.String("path", path),
			slog.Time("cached_mod_time", snap.Info.SourceModTime),
			slog.Time("current_mod_time", stat.ModTime()))
		return nil
	}

	s.mu.Lock()
	s.lastStat = time.Now()
	s.mu.Unlock()
	return snap
}

// loadShared funnels concurrent loads of the same path through one flight.
func (s *SnapshotService) loadShared(ctx context.Context, path string) (*Snapshot, error) {
	v, err, shared := s.group.Do(path, func() (interface{}, error) {
		// A concurrent caller may have finished the load while this one
		// waited for the flight.
		s.mu.RLock()
		current := s.current
		s.mu.RUnlock()
		if current != nil && current.Info.SourcePath == path {
			if stat, statErr := os.Stat(path); statErr == nil && stat.ModTime().Equal(current.Info.SourceModTime) {
				return current, nil
			}
		}

		snap, err := s.load(ctx, path)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.current = snap
		s.lastStat = time.Now()
		s.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "snapshot load shared across callers",
			slog.String("path", path))
	}
	return v.(*Snapshot), nil
}

// load performs one full load: stat, read, clean, facet computation.
func (s *SnapshotService) load(ctx context.Context, path string) (*Snapshot, error) {
	start := time.Now()
	format := string(dataprocessing.DetectFormat(path))
	if format == "" {
		format = "unknown"
	}

	// Stat before reading: a write landing between the stat and the read
	// leaves the cached mod time stale, so the next access reloads.
	stat, err := os.Stat(path)
	if err != nil {
		loadErr := s.withCandidates(apperrors.NewSourceUnavailableError(path, err), path)
		infrastructure.RecordSnapshotLoadMetrics(ctx, s.metrics, format, time.Since(start), 0, 0, loadErr)
		return nil, loadErr
	}
	modTime := stat.ModTime()

	table, err := s.loader.Load(ctx, path)
	if err != nil {
		err = s.withCandidates(err, path)
		infrastructure.RecordSnapshotLoadMetrics(ctx, s.metrics, format, time.Since(start), 0, 0, err)
		return nil, err
	}

	records, report, err := s.cleaner.Clean(ctx, table)
	if err != nil {
		infrastructure.RecordSnapshotLoadMetrics(ctx, s.metrics, string(table.Format), time.Since(start), 0, 0, err)
		return nil, err
	}

	snap := &Snapshot{
		Records: records,
		Facets:  analytics.ComputeFacets(records),
		Info: domain.SnapshotInfo{
			ID:            uuid.NewString(),
			SourcePath:    path,
			SourceModTime: modTime,
			LoadedAt:      time.Now(),
			RecordCount:   len(records),
			Report:        report,
		},
	}

	infrastructure.RecordSnapshotLoadMetrics(ctx, s.metrics, string(table.Format), time.Since(start),
		int64(report.RowsRead), int64(report.RowsDropped), nil)

	s.logger.InfoContext(ctx, "subscription snapshot loaded",
		slog.String("snapshot_id", snap.Info.ID),
		slog.String("path", path),
		slog.Time("source_mod_time", modTime),
		slog.Int("records", len(records)),
		slog.Int("rows_dropped", report.RowsDropped),
		slog.Duration("duration", time.Since(start)))

	return snap, nil
}

// withCandidates attaches the loadable files actually present next to the
// attempted path to a SourceUnavailable error, so the rendered guidance
// can name them.
func (s *SnapshotService) withCandidates(err error, path string) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrTypeSourceUnavailable {
		return err
	}

	candidates, listErr := s.discovery.FindSourceCandidates(filepath.Dir(path))
	if listErr != nil || len(candidates) == 0 {
		return err
	}
	return appErr.WithContext("candidates", files.Names(candidates))
}
