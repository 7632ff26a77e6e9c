package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Jahvion/ControlDeJavi/internal/errors"
	"github.com/Jahvion/ControlDeJavi/internal/logging"
)

// fileState is the on-disk layout of the data file.
type fileState struct {
	Products []Product `json:"products"`
	NextID   int64     `json:"next_id"`
}

// Store persists products in a single JSON file. All state lives in memory
// behind a mutex; every mutation rewrites the whole file through a temp file
// and rename so readers never observe a half-written collection.
//
// Single-writer assumption: two processes pointed at the same file can still
// lose each other's updates. Cross-process locking is out of scope.
type Store struct {
	path   string
	logger logging.Logger

	mu    sync.Mutex
	state fileState
}

// Open loads the data file at path, creating it (and its directory) with an
// empty collection when missing.
func Open(path string, logger logging.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logging.OrNop(logger),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.state = fileState{Products: []Product{}, NextID: 1}
		if err := s.persistLocked(); err != nil {
			return err
		}
		s.logger.Info("created empty data file at %s", s.path)
		return nil
	}
	if err != nil {
		return apperrors.NewPersistence("load", err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return apperrors.NewPersistence("load", fmt.Errorf("parse %s: %w", s.path, err))
	}
	if state.Products == nil {
		state.Products = []Product{}
	}
	if state.NextID < 1 {
		state.NextID = 1
	}
	s.state = state
	return nil
}

// persistLocked writes the full state to disk. Callers must hold s.mu
// (or be inside Open, before the store is shared).
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return apperrors.NewPersistence("encode", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewPersistence("mkdir", err)
		}
	}

	tmpPath := fmt.Sprintf("%s.tmp-%d", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return apperrors.NewPersistence("write", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return apperrors.NewPersistence("rename", err)
	}
	return nil
}

// Add validates the fields, assigns the next sequential id, stamps the
// creation time and persists. On persist failure the in-memory append is
// rolled back so the store never reports success for an unwritten record.
func (s *Store) Add(name, category, expirationDate string) (Product, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	expirationDate = strings.TrimSpace(expirationDate)

	if name == "" {
		return Product{}, apperrors.NewValidation("name", "must not be empty")
	}
	if !ValidCategory(category) {
		return Product{}, apperrors.NewValidation("category", "must be one of: %s", strings.Join(Categories, ", "))
	}
	parsed, err := ParseDate(expirationDate)
	if err != nil {
		return Product{}, apperrors.NewValidation("expiration_date", "must match %s", DateFormat)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product := Product{
		ID:             s.state.NextID,
		Name:           name,
		Category:       category,
		ExpirationDate: parsed.Format(DateFormat),
		CreatedAt:      time.Now().UTC(),
	}

	s.state.Products = append(s.state.Products, product)
	s.state.NextID++

	if err := s.persistLocked(); err != nil {
		s.state.Products = s.state.Products[:len(s.state.Products)-1]
		s.state.NextID--
		return Product{}, err
	}

	s.logger.Debug("added product id=%d category=%s expires=%s", product.ID, product.Category, product.ExpirationDate)
	return product, nil
}

// List returns all products sorted ascending by expiration date, optionally
// filtered to one category. An unrecognized filter is a validation error,
// not an empty result.
func (s *Store) List(categoryFilter string) ([]Product, error) {
	if categoryFilter != "" && !ValidCategory(categoryFilter) {
		return nil, apperrors.NewValidation("category", "must be one of: %s", strings.Join(Categories, ", "))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Product, 0, len(s.state.Products))
	for _, p := range s.state.Products {
		if categoryFilter != "" && p.Category != categoryFilter {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpirationDate < out[j].ExpirationDate
	})
	return out, nil
}

// DeleteByID removes the product with the given id and persists. The boolean
// reports whether a removal happened; a missing id is not an error. On
// persist failure the record is restored and a PersistenceError returned.
func (s *Store) DeleteByID(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.state.Products {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	removed := s.state.Products[idx]
	s.state.Products = append(s.state.Products[:idx], s.state.Products[idx+1:]...)

	if err := s.persistLocked(); err != nil {
		s.state.Products = append(s.state.Products, Product{})
		copy(s.state.Products[idx+1:], s.state.Products[idx:])
		s.state.Products[idx] = removed
		return false, err
	}

	s.logger.Debug("deleted product id=%d", id)
	return true, nil
}

// GetByID looks up a product by id.
func (s *Store) GetByID(id int64) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.state.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Count returns the number of stored products.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Products)
}
