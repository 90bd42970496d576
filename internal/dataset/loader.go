package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/YashwanthKamireddi/project-prerana/internal/infrastructure"
)

// Kind identifies one of the standard Aadhaar data drops.
type Kind string

const (
	KindEnrolment   Kind = "enrolment"
	KindDemographic Kind = "demographic"
	KindBiometric   Kind = "biometric"
)

// DefaultWorkers is the file-parse pool width used when none is configured.
const DefaultWorkers = 4

// Directory names of the standard drops, relative to the loader base path.
var kindDirectories = map[Kind]string{
	KindEnrolment:   "api_data_aadhar_enrolment",
	KindDemographic: "api_data_aadhar_demographic",
	KindBiometric:   "api_data_aadhar_biometric",
}

// Columns each drop is expected to carry. Absence is logged, never fatal;
// pipelines degrade per missing column. Previous_State, Previous_District
// and Center_ID are optional demographic columns and not checked here.
var expectedColumns = map[Kind][]string{
	KindEnrolment:   {"State", "District", "Pincode", "Age", "Gender", "Date"},
	KindDemographic: {"State", "District", "Pincode", "Age", "Gender", "Update_Type", "Date"},
	KindBiometric:   {"State", "District", "Pincode", "Age", "Gender", "Date"},
}

// Loader reads data directories into cleaned datasets. Results are cached
// by cleaned absolute path; repeated loads return the cached dataset
// without touching the filesystem, observable through ScanCount.
type Loader struct {
	basePath string
	workers  int
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics

	mu    sync.Mutex
	cache map[string]*Dataset
	group singleflight.Group
	scans atomic.Int64
}

// NewLoader creates a loader rooted at basePath. A non-positive workers
// value falls back to DefaultWorkers. The metrics handle may be nil.
func NewLoader(basePath string, workers int, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Loader {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		basePath: basePath,
		workers:  workers,
		logger:   logger,
		metrics:  metrics,
		cache:    make(map[string]*Dataset),
	}
}

// Load reads the standard directory for the given kind and verifies the
// expected columns are present, warning about any that are missing.
func (l *Loader) Load(ctx context.Context, kind Kind) (*Dataset, error) {
	dir, ok := kindDirectories[kind]
	if !ok {
		return nil, fmt.Errorf("dataset: unknown kind %q", kind)
	}

	ds, fromCache, err := l.loadDirectory(ctx, filepath.Join(l.basePath, dir), string(kind))
	if err != nil {
		return nil, err
	}
	if !fromCache {
		l.checkExpectedColumns(ctx, kind, ds)
	}
	return ds, nil
}

// LoadDirectory reads every supported file under path into one dataset.
// A missing or empty directory yields an empty dataset and a nil error.
func (l *Loader) LoadDirectory(ctx context.Context, path string) (*Dataset, error) {
	ds, _, err := l.loadDirectory(ctx, path, filepath.Base(path))
	return ds, err
}

// Invalidate drops the cached dataset for a directory path.
func (l *Loader) Invalidate(path string) {
	key := cacheKey(path)
	l.mu.Lock()
	delete(l.cache, key)
	l.mu.Unlock()
	l.logger.Info("dataset cache invalidated", slog.String("path", key))
}

// InvalidateAll clears the whole path cache.
func (l *Loader) InvalidateAll() {
	l.mu.Lock()
	l.cache = make(map[string]*Dataset)
	l.mu.Unlock()
	l.logger.Info("dataset cache cleared")
}

// ScanCount reports how many directory scans have actually hit the
// filesystem. Cache hits do not increment it.
func (l *Loader) ScanCount() int64 {
	return l.scans.Load()
}

func (l *Loader) loadDirectory(ctx context.Context, path, label string) (*Dataset, bool, error) {
	key := cacheKey(path)

	if ds, ok := l.cached(key); ok {
		return ds, true, nil
	}

	// Per-path in-flight guard: concurrent loads of one uncached directory
	// share a single scan, same as the result cache's memoize.
	result, err, _ := l.group.Do(key, func() (any, error) {
		// A concurrent caller may have filled the cache between the miss
		// above and acquiring the flight.
		if ds, ok := l.cached(key); ok {
			return ds, nil
		}
		return l.scanDirectory(ctx, key, label)
	})
	if err != nil {
		return nil, false, err
	}
	return result.(*Dataset), false, nil
}

func (l *Loader) cached(key string) (*Dataset, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ds, ok := l.cache[key]
	return ds, ok
}

func (l *Loader) scanDirectory(ctx context.Context, key, label string) (*Dataset, error) {
	start := time.Now()
	l.scans.Add(1)

	files, err := discoverFiles(key)
	if err != nil {
		// Missing or unreadable directory degrades to an empty dataset.
		l.logger.WarnContext(ctx, "data directory unavailable",
			slog.String("path", key),
			slog.String("error", err.Error()),
		)
		return Empty(), nil
	}
	if len(files) == 0 {
		l.logger.WarnContext(ctx, "no data files found", slog.String("path", key))
		return Empty(), nil
	}

	tables := make([]*rawTable, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := parseFile(file)
			if err != nil {
				l.logger.WarnContext(gctx, "skipping unreadable data file",
					slog.String("file", file),
					slog.String("error", err.Error()),
				)
				return nil
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load directory %s: %w", key, err)
	}

	var failures int64
	for _, t := range tables {
		if t == nil {
			failures++
		}
	}

	header, rows := mergeTables(tables)
	ds, dropped := fromRecords(header, rows)

	l.mu.Lock()
	l.cache[key] = ds
	l.mu.Unlock()

	duration := time.Since(start)
	infrastructure.RecordDatasetLoadMetrics(ctx, l.metrics, label,
		int64(len(files))-failures, failures, int64(ds.Rows()), int64(dropped), duration)

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", key),
		slog.Int("files", len(files)),
		slog.Int64("failed_files", failures),
		slog.Int("rows", ds.Rows()),
		slog.Int("duplicates_removed", dropped),
		slog.Int64("duration_ms", duration.Milliseconds()),
	)
	return ds, nil
}

func (l *Loader) checkExpectedColumns(ctx context.Context, kind Kind, ds *Dataset) {
	if ds.IsEmpty() {
		return
	}
	for _, col := range expectedColumns[kind] {
		if !ds.HasColumn(col) {
			l.logger.WarnContext(ctx, "expected column missing from dataset",
				slog.String("kind", string(kind)),
				slog.String("column", col),
			)
		}
	}
}

func cacheKey(path string) string {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// discoverFiles lists the supported data files directly under dir, sorted
// by name for a deterministic merge order.
func discoverFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".xlsx", ".xls":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// rawTable is one parsed file before merging: a canonical header plus rows
// that may be ragged.
type rawTable struct {
	header []string
	rows   [][]string
}

func parseFile(path string) (*rawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(path)
	case ".xlsx", ".xls":
		return parseExcel(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

func parseCSV(path string) (*rawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return &rawTable{}, nil
	}
	return &rawTable{header: canonicalHeader(records[0]), rows: records[1:]}, nil
}

func parseExcel(path string) (*rawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &rawTable{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q in %s: %w", sheets[0], path, err)
	}
	if len(rows) == 0 {
		return &rawTable{}, nil
	}
	return &rawTable{header: canonicalHeader(rows[0]), rows: rows[1:]}, nil
}

// mergeTables concatenates parsed files under the union of their headers in
// first-seen order. Cells for columns a file does not carry stay empty and
// are filled during dataset construction.
func mergeTables(tables []*rawTable) ([]string, [][]string) {
	var header []string
	pos := make(map[string]int)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, h := range t.header {
			if _, ok := pos[h]; !ok {
				pos[h] = len(header)
				header = append(header, h)
			}
		}
	}

	var rows [][]string
	for _, t := range tables {
		if t == nil || len(t.header) == 0 {
			continue
		}
		colPos := make([]int, len(t.header))
		for i, h := range t.header {
			colPos[i] = pos[h]
		}
		for _, r := range t.rows {
			row := make([]string, len(header))
			for i, cell := range r {
				if i < len(colPos) {
					row[colPos[i]] = cell
				}
			}
			rows = append(rows, row)
		}
	}
	return header, rows
}
