package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"StockAlert/internal/model"
)

// WriteError reports a failed cache write.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write cache %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store is the single writer of the on-disk cache document. It holds no
// state between calls; every Read goes back to disk.
type Store struct {
	cfg model.CacheConfig
	log zerolog.Logger
}

// NewStore creates a Store for cfg.
func NewStore(cfg model.CacheConfig, logger zerolog.Logger) *Store {
	return &Store{
		cfg: cfg,
		log: logger.With().Str("component", "cache").Logger(),
	}
}

// Path returns the active cache file.
func (s *Store) Path() string { return s.cfg.Path() }

// Read returns the current document. A missing or unparsable file yields an
// empty document.
func (s *Store) Read() Document {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.Path()).Msg("read cache failed, using empty document")
		}
		return Document{}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		s.log.Warn().Err(err).Str("path", s.Path()).Msg("cache is not a JSON object, using empty document")
		return Document{}
	}
	return doc
}

// Save merges partial over the current document at the top level and writes
// the result. Keys absent from partial are preserved; keys present replace
// the whole section. If the existing file is larger than the configured limit
// it is rotated out first.
func (s *Store) Save(partial map[string]any) error {
	merged := s.Read()
	for key, value := range partial {
		raw, err := json.Marshal(value)
		if err != nil {
			return &WriteError{Path: s.Path(), Err: fmt.Errorf("encode %s: %w", key, err)}
		}
		merged[key] = raw
	}

	if info, err := os.Stat(s.Path()); err == nil && info.Size() > s.cfg.MaxFileSizeBytes {
		s.rotate()
	}

	return s.write(merged)
}

func (s *Store) write(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &WriteError{Path: s.Path(), Err: err}
	}
	if err := os.MkdirAll(s.cfg.Directory, 0o755); err != nil {
		return &WriteError{Path: s.Path(), Err: err}
	}
	if err := writeFileAtomic(s.Path(), data); err != nil {
		s.log.Warn().Err(err).Str("path", s.Path()).Msg("atomic cache write failed, writing in place")
		if err := os.WriteFile(s.Path(), data, 0o644); err != nil {
			return &WriteError{Path: s.Path(), Err: err}
		}
	}
	s.log.Debug().Str("path", s.Path()).Int("sections", len(doc)).Msg("cache written")
	return nil
}

type rotation struct {
	seq  int
	path string
}

func (s *Store) nameParts() (stem, ext string) {
	ext = filepath.Ext(s.cfg.FileName)
	return strings.TrimSuffix(s.cfg.FileName, ext), ext
}

// rotations lists {stem}.{N}{ext} files, highest sequence first.
func (s *Store) rotations() ([]rotation, error) {
	stem, ext := s.nameParts()
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(stem) + `\.(\d+)` + regexp.QuoteMeta(ext) + `$`)

	entries, err := os.ReadDir(s.cfg.Directory)
	if err != nil {
		return nil, err
	}
	var out []rotation
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		seq, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, rotation{seq: seq, path: filepath.Join(s.cfg.Directory, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq > out[j].seq })
	return out, nil
}

// rotate renames the active file to the next sequence number and prunes the
// oldest rotations. Failures are logged; the caller still writes the new file.
func (s *Store) rotate() {
	existing, err := s.rotations()
	if err != nil {
		s.log.Warn().Err(err).Str("dir", s.cfg.Directory).Msg("scan cache rotations failed, skipping rotation")
		return
	}
	next := 1
	if len(existing) > 0 {
		next = existing[0].seq + 1
	}
	stem, ext := s.nameParts()
	target := filepath.Join(s.cfg.Directory, fmt.Sprintf("%s.%d%s", stem, next, ext))
	if err := os.Rename(s.Path(), target); err != nil {
		s.log.Warn().Err(err).Str("target", target).Msg("rotate cache failed")
		return
	}
	s.log.Info().Str("path", target).Msg("cache rotated")
	s.prune()
}

// prune keeps the newest MaxFiles-1 rotations so that, with the active file,
// at most MaxFiles files remain.
func (s *Store) prune() {
	existing, err := s.rotations()
	if err != nil {
		s.log.Warn().Err(err).Msg("scan cache rotations failed, skipping prune")
		return
	}
	keep := s.cfg.MaxFiles - 1
	if keep < 0 {
		keep = 0
	}
	if len(existing) <= keep {
		return
	}
	for _, r := range existing[keep:] {
		if err := os.Remove(r.path); err != nil {
			s.log.Warn().Err(err).Str("path", r.path).Msg("prune cache rotation failed")
			continue
		}
		s.log.Debug().Str("path", r.path).Msg("cache rotation pruned")
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
