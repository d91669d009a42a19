// Package ingest loads invoice files from the local filesystem into the
// state store, deduplicating by content hash within one run.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dregen-Yor/auto-invoice/constants"
	"github.com/Dregen-Yor/auto-invoice/internal/entity"
)

// FileResult describes the outcome for one scanned file.
type FileResult struct {
	Path         string
	InvoiceID    uuid.UUID
	Deduplicated bool
	HashHex      string
	Err          string
}

// Stats aggregates one directory walk.
type Stats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Store is the slice of application state ingestion writes to.
type Store interface {
	AddInvoice(personID uuid.UUID, inv entity.Invoice) error
}

// Ingestor creates pending invoice records from files on disk. Content
// hashes are remembered for the lifetime of the Ingestor, so re-scanning an
// overlapping directory within one run does not create duplicates.
type Ingestor struct {
	store  Store
	logger *slog.Logger
	seen   map[string]uuid.UUID
}

func New(store Store, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		store:  store,
		logger: logger,
		seen:   make(map[string]uuid.UUID),
	}
}

// Directory walks root, filters by the allowed upload extensions, skips
// hidden entries when requested, and ingests each matching file. Per-file
// failures are recorded in the results and do not stop the walk.
func (ing *Ingestor) Directory(personID uuid.UUID, root string, skipHidden bool) ([]FileResult, Stats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, Stats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats Stats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && strings.HasPrefix(filepath.Base(path), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			return nil
		}
		stats.Matched++

		res := ing.File(personID, path)
		results = append(results, res)
		switch {
		case res.Err != "":
			stats.Failed++
		case res.Deduplicated:
			stats.Succeeded++
			stats.Deduplicated++
		default:
			stats.Succeeded++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// File ingests a single file into a pending invoice record owned by
// personID. A file whose content hash was already seen by this Ingestor is
// reported as deduplicated and no record is created.
func (ing *Ingestor) File(personID uuid.UUID, path string) FileResult {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileResult{Path: path, Err: fmt.Sprintf("abs path: %v", err)}
	}
	res := FileResult{Path: abs}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		res.Err = fmt.Sprintf("unsupported or missing extension: %q", ext)
		return res
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		res.Err = fmt.Sprintf("read: %v", err)
		return res
	}
	if len(data) == 0 {
		res.Err = "file is empty"
		return res
	}

	sum := sha256.Sum256(data)
	res.HashHex = hex.EncodeToString(sum[:])
	if prior, ok := ing.seen[res.HashHex]; ok {
		res.InvoiceID = prior
		res.Deduplicated = true
		ing.logger.Debug("skipping duplicate content", "path", abs, "invoice_id", prior)
		return res
	}

	now := time.Now().UTC()
	inv := entity.Invoice{
		ID:          uuid.New(),
		PersonID:    personID,
		Filename:    filepath.Base(abs),
		ContentType: constants.ContentTypeForFilename(abs),
		Category:    constants.Unknown,
		Date:        "unknown",
		Description: "unknown",
		Status:      constants.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		SourceData:  data,
	}
	if err := ing.store.AddInvoice(personID, inv); err != nil {
		res.Err = err.Error()
		return res
	}

	ing.seen[res.HashHex] = inv.ID
	res.InvoiceID = inv.ID
	return res
}
