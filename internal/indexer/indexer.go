package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/flowdex/internal/analyzer"
	"github.com/dshills/flowdex/internal/fingerprint"
	"github.com/dshills/flowdex/internal/storage"
	"github.com/dshills/flowdex/pkg/types"
)

// ErrReindexInProgress is returned when a reindex is requested while
// another run holds the lock.
var ErrReindexInProgress = errors.New("reindex already in progress")

// Indexer coordinates the pipeline: discover -> fingerprint -> analyze -> upsert -> sweep
type Indexer struct {
	store    storage.Store
	analyzer *analyzer.Analyzer
	logger   *zap.Logger
	workers  int
	lock     ReindexLock
}

// Config contains configuration for the indexer
type Config struct {
	Workers int // Number of concurrent analysis workers (default: runtime.NumCPU())
}

// Statistics summarizes one reindex run
type Statistics struct {
	RunID     string        `json:"run_id"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Deleted   int           `json:"deleted"`
	Duration  time.Duration `json:"duration"`
	Errors    []string      `json:"errors,omitempty"`
}

// New creates a new Indexer instance
func New(store storage.Store, logger *zap.Logger, config *Config) *Indexer {
	workers := runtime.NumCPU()
	if config != nil && config.Workers > 0 {
		workers = config.Workers
	}
	return &Indexer{
		store:    store,
		analyzer: analyzer.New(),
		logger:   logger,
		workers:  workers,
	}
}

// Reindex runs one full pass over the document root. With force false,
// documents whose fingerprint matches the stored record are skipped without
// re-analysis; with force true every document is re-analyzed. Documents no
// longer present are deleted afterwards (tombstone sweep), so running twice
// with no file changes processes nothing the second time.
func (idx *Indexer) Reindex(ctx context.Context, root string, force bool) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrReindexInProgress
	}
	defer idx.lock.Release()

	start := time.Now()
	stats := &Statistics{RunID: uuid.New().String()}

	idx.logger.Info("reindex starting",
		zap.String("run_id", stats.RunID),
		zap.String("root", root),
		zap.Bool("force", force))

	files, err := idx.discoverDocuments(root)
	if err != nil {
		return nil, err
	}

	existing, err := idx.store.ListFingerprints(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexed fingerprints: %w", err)
	}

	var (
		processed atomic.Int32
		skipped   atomic.Int32
		failed    atomic.Int32
		mu        sync.Mutex
		seen      = make(map[string]struct{}, len(files))
		errList   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)

	for _, file := range files {
		// Cancellation is checked at each file boundary.
		if err := gctx.Err(); err != nil {
			break
		}

		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			mu.Lock()
			seen[file.name] = struct{}{}
			mu.Unlock()

			err := idx.indexDocument(gctx, file, existing[file.name], force, &processed, &skipped)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				// Per-document failures never abort the run.
				failed.Add(1)
				idx.logger.Warn("document failed", zap.String("filename", file.name), zap.Error(err))
				mu.Lock()
				errList = append(errList, fmt.Sprintf("%s: %v", file.name, err))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Tombstone sweep: remove records whose documents are gone. This is
	// what makes a run convergent with the current file set.
	filenames := make([]string, 0)
	for filename := range existing {
		if _, ok := seen[filename]; !ok {
			filenames = append(filenames, filename)
		}
	}
	sort.Strings(filenames)
	for _, filename := range filenames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := idx.store.Delete(ctx, filename); err != nil && !errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("sweep %s: %w", filename, err)
		}
		stats.Deleted++
		idx.logger.Info("record swept", zap.String("filename", filename))
	}

	stats.Processed = int(processed.Load())
	stats.Skipped = int(skipped.Load())
	stats.Failed = int(failed.Load())
	stats.Errors = errList
	stats.Duration = time.Since(start)

	if err := idx.store.SetMetadata(ctx, storage.MetaLastIndexed, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	if err := idx.store.SetMetadata(ctx, storage.MetaLastRunID, stats.RunID); err != nil {
		return nil, err
	}

	idx.logger.Info("reindex complete",
		zap.String("run_id", stats.RunID),
		zap.Int("processed", stats.Processed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("deleted", stats.Deleted),
		zap.Duration("duration", stats.Duration))

	return stats, nil
}

// document is one discovered workflow file
type document struct {
	name string // relative to the root, the record's unique key
	path string
}

// discoverDocuments enumerates JSON documents under root. An unreadable
// root is fatal for the run (FileSystemError); individual unreadable
// entries below it are skipped by the walk and surface later as per-file
// read errors if still present.
func (idx *Indexer) discoverDocuments(root string) ([]document, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, &types.FileSystemError{Path: root, Err: err}
	}

	var files []document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		name, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, document{name: filepath.ToSlash(name), path: path})
		return nil
	})
	if err != nil {
		return nil, &types.FileSystemError{Path: root, Err: err}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// indexDocument fingerprints one document and analyzes/upserts it unless
// the stored record is unchanged
func (idx *Indexer) indexDocument(ctx context.Context, file document, storedHash string, force bool, processed, skipped *atomic.Int32) error {
	data, err := os.ReadFile(file.path)
	if err != nil {
		return &types.FileSystemError{Path: file.path, Err: err}
	}

	hash := fingerprint.Compute(data)
	if !force && storedHash == hash {
		skipped.Add(1)
		return nil
	}

	record, err := idx.analyzer.Analyze(data, file.name)
	if err != nil {
		return err
	}

	if err := idx.store.Upsert(ctx, record); err != nil {
		return err
	}

	processed.Add(1)
	idx.logger.Debug("document indexed",
		zap.String("filename", file.name),
		zap.String("trigger", string(record.TriggerType)),
		zap.Int("nodes", record.NodeCount))
	return nil
}
