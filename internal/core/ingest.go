package core

// ingest.go imports listing files from a directory into buildings.
//
// Each file is one unit of work: its rows are filtered, sanitized and
// converted, then inserted in a single transaction. The file is moved to the
// processed directory on success and to the errored directory on any failure,
// so it is never picked up twice. One file failing never affects another.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/estates/internal/logging"
	"github.com/JonMunkholm/estates/internal/metrics"
)

// StatusForSale is the only listing status imported.
const StatusForSale = "for_sale"

// RequiredColumns must all be present in a listing file header.
var RequiredColumns = []string{"status", "price", "bed", "bath", "acre_lot", "house_size"}

// IngestConfig holds the directories, limits and reference names used by the Ingester.
type IngestConfig struct {
	DataDir      string
	ProcessedDir string
	ErroredDir   string
	MaxFileSize  int64

	OfferName      string
	EstateTypeName string
	CityName       string
	CityPartName   string
}

// Ingester runs one pass over the data directory.
type Ingester struct {
	svc       *Service
	cfg       IngestConfig
	converter Converter

	// stuck holds files that could be moved neither to the processed nor to
	// the errored directory. They are skipped until removed by hand.
	mu    sync.Mutex
	stuck map[string]struct{}
}

// NewIngester creates an Ingester. Directories are created on each run.
func NewIngester(svc *Service, cfg IngestConfig, converter Converter) *Ingester {
	return &Ingester{svc: svc, cfg: cfg, converter: converter, stuck: map[string]struct{}{}}
}

// Run imports every supported file currently in the data directory.
// Per-file failures are recorded in the summary; only a failure to prepare
// or list the directories is returned as an error.
func (in *Ingester) Run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Files:     []FileResult{},
	}
	logger := logging.WithFields(ctx, "run_id", summary.RunID)

	err := in.run(ctx, logger, &summary)
	summary.Duration = time.Since(summary.StartedAt)

	metrics.RecordIngestRun(summary.FilesProcessed, summary.FilesErrored,
		summary.RowsInserted, summary.RowsSkipped, summary.Duration, err)

	if err != nil {
		logger.Error("ingestion run failed", "error", err)
		return summary, err
	}
	logger.Info("ingestion run completed",
		"files_processed", summary.FilesProcessed,
		"files_errored", summary.FilesErrored,
		"rows_inserted", summary.RowsInserted,
		"rows_skipped", summary.RowsSkipped,
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return summary, nil
}

func (in *Ingester) run(ctx context.Context, logger *slog.Logger, summary *RunSummary) error {
	for _, dir := range []string{in.cfg.DataDir, in.cfg.ProcessedDir, in.cfg.ErroredDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	in.forgetRemoved()

	entries, err := os.ReadDir(in.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("read data directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !SupportedExtension(entry.Name()) {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		path := filepath.Join(in.cfg.DataDir, entry.Name())
		if in.isStuck(path) {
			logger.Warn("skipping file left behind by an earlier run", "file", entry.Name())
			continue
		}

		res := in.processFile(ctx, logger, path)
		summary.Files = append(summary.Files, res)
		summary.RowsInserted += res.Inserted
		summary.RowsSkipped += int64(res.Skipped)
		if res.Error == "" {
			summary.FilesProcessed++
		} else {
			summary.FilesErrored++
		}
	}
	return nil
}

// processFile imports one file and relocates it. It never returns an error:
// the outcome is described by the FileResult.
func (in *Ingester) processFile(ctx context.Context, logger *slog.Logger, path string) FileResult {
	start := time.Now()
	name := filepath.Base(path)
	fileLogger := logger.With("file", name)
	fileLogger.Info("processing file")

	res := FileResult{FileName: name}
	inserted, skipped, err := in.importFile(ctx, path)
	res.Skipped = skipped

	dest := filepath.Join(in.cfg.ProcessedDir, name)
	if err != nil {
		res.Error = err.Error()
		dest = filepath.Join(in.cfg.ErroredDir, name)
		fileLogger.Error("file import failed",
			"error", err,
			"code", MapError(err).Code,
		)
	} else {
		res.Inserted = inserted
		fileLogger.Info("file imported", "rows_inserted", inserted, "rows_skipped", skipped)
	}

	res.Destination = in.relocate(fileLogger, path, dest, &res)
	res.Duration = time.Since(start)
	return res
}

// relocate moves the file out of the data directory and returns where it
// ended up. A file whose rows were committed but which cannot reach the
// processed directory goes to the errored directory instead; if that fails
// too it is marked stuck so the next run does not import it again.
func (in *Ingester) relocate(logger *slog.Logger, path, dest string, res *FileResult) string {
	moveErr := moveFile(path, dest)
	if moveErr == nil {
		return dest
	}
	logger.Error("move file failed", "destination", dest, "error", moveErr)
	if res.Error == "" {
		res.Error = fmt.Sprintf("move to processed: %v", moveErr)
	}

	errored := filepath.Join(in.cfg.ErroredDir, filepath.Base(path))
	if dest != errored {
		err := moveFile(path, errored)
		if err == nil {
			logger.Warn("file moved to errored directory instead", "destination", errored)
			return errored
		}
		logger.Error("move file failed", "destination", errored, "error", err)
	}

	in.mu.Lock()
	in.stuck[path] = struct{}{}
	in.mu.Unlock()
	return path
}

func (in *Ingester) isStuck(path string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.stuck[path]
	return ok
}

// forgetRemoved drops stuck entries whose file no longer exists, so a new
// file dropped under the same name is imported.
func (in *Ingester) forgetRemoved() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for path := range in.stuck {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			delete(in.stuck, path)
		}
	}
}

// importFile transforms and persists one file. Nothing is stored unless every
// retained row converts cleanly.
func (in *Ingester) importFile(ctx context.Context, path string) (int64, int, error) {
	records, err := readRecords(path, in.cfg.MaxFileSize)
	if err != nil {
		return 0, 0, err
	}

	recs, skipped, err := in.Transform(records)
	if err != nil {
		return 0, skipped, err
	}
	if len(recs) == 0 {
		return 0, skipped, nil
	}

	refs, err := in.svc.ResolveReferences(ctx,
		in.cfg.OfferName, in.cfg.EstateTypeName, in.cfg.CityName, in.cfg.CityPartName)
	if err != nil {
		return 0, skipped, fmt.Errorf("resolve references: %w", err)
	}
	for i := range recs {
		recs[i].OfferID = refs.OfferID
		recs[i].EstateTypeID = refs.EstateTypeID
		recs[i].CityPartID = refs.CityPartID
	}

	n, err := in.svc.BulkCreate(ctx, recs)
	if err != nil {
		return 0, skipped, err
	}
	return n, skipped, nil
}

// Transform turns raw records (header included) into building records with
// converted units. Rows whose status is not for_sale are counted as skipped.
// Reference ids are left zero for the caller to fill in.
func (in *Ingester) Transform(records [][]string) ([]BuildingRecord, int, error) {
	first := firstNonEmpty(records)
	if first < 0 {
		return nil, 0, fmt.Errorf("empty file")
	}

	headerRow := findHeader(records, RequiredColumns)
	if headerRow < 0 {
		_, err := ValidateHeaders(records[first], RequiredColumns)
		return nil, 0, err
	}
	idx := MakeHeaderIndex(records[headerRow])

	var (
		out     []BuildingRecord
		skipped int
	)
	for i, row := range records[headerRow+1:] {
		if isEmptyRow(row) {
			continue
		}
		if !strings.EqualFold(idx.Cell(row, "status"), StatusForSale) {
			skipped++
			continue
		}

		rec, err := in.transformRow(idx, row)
		if err != nil {
			return nil, skipped, fmt.Errorf("line %d: %w", headerRow+i+2, err)
		}
		out = append(out, rec)
	}
	return out, skipped, nil
}

func (in *Ingester) transformRow(idx HeaderIndex, row []string) (BuildingRecord, error) {
	var rec BuildingRecord

	values := make(map[string]*float64, 5)
	for _, col := range []string{"price", "bed", "bath", "acre_lot", "house_size"} {
		v, err := ParseFloat(idx.Cell(row, col))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", col, err)
		}
		values[col] = v
	}

	price, err := RoundInt(in.converter.Price(values["price"]))
	if err != nil {
		return rec, fmt.Errorf("price: %w", err)
	}
	bathrooms, err := TruncInt(values["bath"])
	if err != nil {
		return rec, fmt.Errorf("bath: %w", err)
	}

	rec.Price = price
	rec.Rooms = values["bed"]
	rec.Bathrooms = bathrooms
	rec.LandArea = in.converter.LandArea(values["acre_lot"])
	rec.SquareFootage = in.converter.SquareFootage(values["house_size"])
	if err := validateRanges(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// moveFile renames src to dst, falling back to copy and remove when the
// directories are on different devices.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", filepath.Base(src), err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
