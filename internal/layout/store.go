package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a layout identifier has no document.
var ErrNotFound = errors.New("layout not found")

// Store persists layout configurations as one JSON document per layout
// under a filesystem root, keyed by identifier. Documents are written
// to a temp file and renamed into place so a concurrent reader never
// observes a partial write.
type Store struct {
	root    string
	catalog Catalog
	now     func() time.Time
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string, catalog Catalog) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create layouts directory: %w", err)
	}
	return &Store{root: dir, catalog: catalog, now: time.Now}, nil
}

// Root returns the directory under which documents live.
func (s *Store) Root() string { return s.root }

// List returns all persisted layouts ordered by creation time, newest
// first. Individual documents that fail to parse are skipped and
// logged, never fatal to the listing.
func (s *Store) List() ([]Configuration, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read layouts directory: %w", err)
	}

	var layouts []Configuration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		cfg, err := s.readDocument(filepath.Join(s.root, entry.Name()))
		if err != nil {
			slog.Warn("skipping unreadable layout document",
				"file", entry.Name(), "error", err)
			continue
		}
		layouts = append(layouts, cfg)
	}

	sort.Slice(layouts, func(i, j int) bool {
		return layouts[i].CreatedAt.After(layouts[j].CreatedAt)
	})
	return layouts, nil
}

// Load returns the layout with the given identifier.
// Returns ErrNotFound if no document exists for it.
func (s *Store) Load(id string) (Configuration, error) {
	if !validID(id) {
		return Configuration{}, fmt.Errorf("layout %s: %w", id, ErrNotFound)
	}
	path := s.documentPath(id)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Configuration{}, fmt.Errorf("layout %s: %w", id, ErrNotFound)
		}
		return Configuration{}, fmt.Errorf("stat layout %s: %w", id, err)
	}
	return s.readDocument(path)
}

// Save persists a layout. A layout without an identifier gets a fresh
// one and its creation timestamp; subsequent saves only touch the
// update timestamp. Metadata is always recomputed immediately before
// the write so the stored document stays consistent with the mapping
// list. The argument is updated in place with the assigned identifier,
// timestamps, and recomputed metadata.
func (s *Store) Save(cfg *Configuration) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
		cfg.CreatedAt = s.now()
	} else {
		if !validID(cfg.ID) {
			return fmt.Errorf("layout %s: %w", cfg.ID, ErrNotFound)
		}
		cfg.UpdatedAt = s.now()
		// Callers updating a document are not required to round-trip
		// createdAt; a zero value takes the stored one.
		if cfg.CreatedAt.IsZero() {
			if prev, err := s.readDocument(s.documentPath(cfg.ID)); err == nil {
				cfg.CreatedAt = prev.CreatedAt
			}
		}
		if cfg.CreatedAt.IsZero() {
			cfg.CreatedAt = s.now()
		}
	}
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}

	cfg.Metadata = ComputeMetadata(*cfg, s.catalog, cfg.Metadata)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal layout %s: %w", cfg.ID, err)
	}

	path := s.documentPath(cfg.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write layout %s: %w", cfg.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write layout %s: %w", cfg.ID, err)
	}

	slog.Info("layout saved", "id", cfg.ID, "name", cfg.Name,
		"mapped_fields", cfg.Metadata.MappedFieldCount)
	return nil
}

// Delete removes the layout with the given identifier.
// Returns ErrNotFound if no document exists for it.
func (s *Store) Delete(id string) error {
	if !validID(id) {
		return fmt.Errorf("layout %s: %w", id, ErrNotFound)
	}
	path := s.documentPath(id)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("layout %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("stat layout %s: %w", id, err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete layout %s: %w", id, err)
	}
	slog.Info("layout deleted", "id", id)
	return nil
}

func (s *Store) documentPath(id string) string {
	return filepath.Join(s.root, id+".json")
}

// validID rejects identifiers that could escape the storage root when
// joined into a document path. Identifiers are server-generated uuids,
// so anything with a separator or dot-dot segment is a hostile or
// corrupted input, reported as not found.
func validID(id string) bool {
	if id == "" {
		return false
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return false
	}
	return true
}

func (s *Store) readDocument(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("read layout document: %w", err)
	}
	var cfg Configuration
	// Unknown fields are ignored and field names match case-insensitively,
	// keeping documents written by other builds readable.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("decode layout document: %w", err)
	}
	return cfg, nil
}
