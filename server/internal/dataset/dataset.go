package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/obsidianstack/latency-analytics/server/internal/logging"
)

// Record is one telemetry observation.
type Record struct {
	Region    string  `json:"region"`
	LatencyMs float64 `json:"latency_ms"`
	UptimePct float64 `json:"uptime_pct"`
}

// rawRecord distinguishes absent fields from zero values during decoding.
type rawRecord struct {
	Region    *string  `json:"region"`
	LatencyMs *float64 `json:"latency_ms"`
	UptimePct *float64 `json:"uptime_pct"`
}

// Store is a read-only, in-memory telemetry dataset.
// The zero value is not usable; construct with Load, LoadFile, Open or Empty.
type Store struct {
	records  []Record
	byRegion map[string][]int // record indices, in source order
	regions  []string         // distinct regions, first-seen order
	source   string
	loadedAt time.Time
}

// now is injectable for deterministic tests.
var now = time.Now

// Empty returns a Store with no records.
func Empty() *Store {
	return build(nil, "")
}

// Open loads the dataset at path. Any LoadError is logged and an empty Store
// is returned in its place, so callers always get a usable Store.
func Open(path string) *Store {
	log := logging.Component("dataset")
	st, err := LoadFile(path)
	if err != nil {
		log.Error("load failed, serving empty dataset", "path", path, "err", err)
		return build(nil, path)
	}
	log.Info("loaded", "path", path,
		"data_records", st.Len(), "regions", len(st.regions))
	return st
}

// LoadFile reads and decodes the dataset file at path.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	st, err := load(f, path)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Load decodes a dataset from r.
func Load(r io.Reader) (*Store, error) {
	return load(r, "")
}

func load(r io.Reader, path string) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Op: "read", Path: path, Err: err}
	}

	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Op: "decode", Path: path, Err: err}
	}
	if raw == nil {
		return nil, &LoadError{Op: "decode", Path: path, Err: ErrNotArray}
	}

	records := make([]Record, 0, len(raw))
	for i, rr := range raw {
		rec, err := rr.validate()
		if err != nil {
			return nil, &LoadError{Op: "validate", Path: path, Index: i, Err: err}
		}
		records = append(records, rec)
	}
	return build(records, path), nil
}

func (rr rawRecord) validate() (Record, error) {
	switch {
	case rr.Region == nil:
		return Record{}, fmt.Errorf("%w: region", ErrMissingField)
	case rr.LatencyMs == nil:
		return Record{}, fmt.Errorf("%w: latency_ms", ErrMissingField)
	case rr.UptimePct == nil:
		return Record{}, fmt.Errorf("%w: uptime_pct", ErrMissingField)
	}
	if *rr.LatencyMs < 0 {
		return Record{}, fmt.Errorf("%w: latency_ms %v is negative", ErrOutOfRange, *rr.LatencyMs)
	}
	if *rr.UptimePct < 0 || *rr.UptimePct > 100 {
		return Record{}, fmt.Errorf("%w: uptime_pct %v not in [0, 100]", ErrOutOfRange, *rr.UptimePct)
	}
	return Record{Region: *rr.Region, LatencyMs: *rr.LatencyMs, UptimePct: *rr.UptimePct}, nil
}

func build(records []Record, source string) *Store {
	st := &Store{
		records:  records,
		byRegion: make(map[string][]int),
		source:   source,
		loadedAt: now(),
	}
	for i, r := range records {
		if _, seen := st.byRegion[r.Region]; !seen {
			st.regions = append(st.regions, r.Region)
		}
		st.byRegion[r.Region] = append(st.byRegion[r.Region], i)
	}
	return st
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Records returns a copy of every record in source order.
func (s *Store) Records() []Record { return slices.Clone(s.records) }

// Region returns the records whose region equals name, in source order.
// The result is nil when the region is absent.
func (s *Store) Region(name string) []Record {
	idx := s.byRegion[name]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Record, len(idx))
	for i, j := range idx {
		out[i] = s.records[j]
	}
	return out
}

// Regions returns the distinct region names in first-seen order.
func (s *Store) Regions() []string { return slices.Clone(s.regions) }

// Source is the file the store was loaded from, or "" for a reader.
func (s *Store) Source() string { return s.source }

// LoadedAt is when the store was built.
func (s *Store) LoadedAt() time.Time { return s.loadedAt }
