// Package ledger persists an append-only audit log of appraisal runs. The
// layout is one JSON record per line rather than a rewritten whole-file
// document: appends are O(batch) instead of O(history), and a crash mid-write
// can only tear the final line, which reads skip.
package ledger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	CollectionAIRuns             = "ai_runs"
	CollectionValuationRuns      = "valuation_runs"
	CollectionVerificationEvents = "verification_events"
	CollectionArtifactImages     = "artifact_images"
	CollectionImages             = "images"
	CollectionArtifacts          = "artifacts"
)

// Collections lists every collection in a stable order, for summaries.
var Collections = []string{
	CollectionAIRuns,
	CollectionValuationRuns,
	CollectionVerificationEvents,
	CollectionArtifactImages,
	CollectionImages,
	CollectionArtifacts,
}

type Record struct {
	Collection string         `json:"collection"`
	RecordID   string         `json:"record_id"`
	ArtifactID string         `json:"artifact_id,omitempty"`
	BundleHash string         `json:"bundle_hash,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	Data       map[string]any `json:"data,omitempty"`
}

type Ledger struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

func New(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return &Ledger{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (l *Ledger) Path() string {
	return l.path
}

// Append writes a batch of records as one atomic unit. Records never change
// after insertion. The whole batch is serialized before any byte reaches the
// file, and the single O_APPEND write happens under both the process mutex
// and a file lock, so concurrent appenders cannot interleave.
func (l *Ledger) Append(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal ledger record: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire ledger lock: %w", err)
	}
	defer l.lock.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	// A crash can leave a torn final line with no trailing newline. Start the
	// batch on a fresh line so the torn line stays isolated and skippable.
	if info, err := f.Stat(); err == nil && info.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err == nil && last[0] != '\n' {
			if _, err := f.Write([]byte{'\n'}); err != nil {
				return fmt.Errorf("failed to append to ledger: %w", err)
			}
		}
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to append to ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	return nil
}

// Load reads every record in the ledger. A missing file is an empty ledger;
// unparsable lines (for example a torn final line from a crash) are skipped
// rather than failing the read.
func (l *Ledger) Load() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

type Summary struct {
	Counts            map[string]int
	LastAIRuns        []Record
	LastValuationRuns []Record
}

// Summarize returns per-collection counts plus the most recent n AI and
// valuation runs, newest last.
func (l *Ledger) Summarize(n int) Summary {
	records := l.Load()

	s := Summary{Counts: make(map[string]int, len(Collections))}
	for _, c := range Collections {
		s.Counts[c] = 0
	}
	for _, rec := range records {
		s.Counts[rec.Collection]++
		switch rec.Collection {
		case CollectionAIRuns:
			s.LastAIRuns = append(s.LastAIRuns, rec)
		case CollectionValuationRuns:
			s.LastValuationRuns = append(s.LastValuationRuns, rec)
		}
	}
	if len(s.LastAIRuns) > n {
		s.LastAIRuns = s.LastAIRuns[len(s.LastAIRuns)-n:]
	}
	if len(s.LastValuationRuns) > n {
		s.LastValuationRuns = s.LastValuationRuns[len(s.LastValuationRuns)-n:]
	}
	return s
}

func newRecord(collection, artifactID, bundleHash string, data map[string]any) Record {
	return Record{
		Collection: collection,
		RecordID:   "run_" + uuid.New().String(),
		ArtifactID: artifactID,
		BundleHash: bundleHash,
		CreatedAt:  time.Now().UTC(),
		Data:       data,
	}
}

func AIRun(artifactID, bundleHash, stage string, data map[string]any) Record {
	if data == nil {
		data = map[string]any{}
	}
	data["stage"] = stage
	return newRecord(CollectionAIRuns, artifactID, bundleHash, data)
}

func ValuationRun(artifactID, bundleHash string, data map[string]any) Record {
	return newRecord(CollectionValuationRuns, artifactID, bundleHash, data)
}

// VerificationEvent records a verification-state transition, always from
// "unverified" to the resolved mode for this bundle.
func VerificationEvent(artifactID, bundleHash, mode, reason string) Record {
	return newRecord(CollectionVerificationEvents, artifactID, bundleHash, map[string]any{
		"from":   "unverified",
		"to":     mode,
		"reason": reason,
	})
}

func ArtifactImage(artifactID, bundleHash, imageID, role string, usable bool) Record {
	return newRecord(CollectionArtifactImages, artifactID, bundleHash, map[string]any{
		"image_id": imageID,
		"role":     role,
		"usable":   usable,
	})
}

func Image(imageID, sha, name, mime string, size int64, url string) Record {
	rec := newRecord(CollectionImages, "", "", map[string]any{
		"image_id": imageID,
		"sha256":   sha,
		"name":     name,
		"mime":     mime,
		"bytes":    size,
		"url":      url,
	})
	return rec
}

func ArtifactRegistered(artifactID string) Record {
	return newRecord(CollectionArtifacts, artifactID, "", nil)
}
