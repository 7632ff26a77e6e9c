package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Jahvion/ControlDeJavi/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "products.json"), nil)
	require.NoError(t, err)
	return s
}

func TestOpenCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "products.json")
	s, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())

	_, err = os.Stat(path)
	require.NoError(t, err, "data file should exist after Open")
}

func TestAddThenGetRoundtrip(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Add("Coca 1.5L", "Gaseosas", "2026-10-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, ok := s.GetByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, created, got)
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Add("a", "Aguas", "2026-01-01")
	require.NoError(t, err)
	second, err := s.Add("b", "Aguas", "2026-01-02")
	require.NoError(t, err)

	assert.Equal(t, first.ID+1, second.ID)
}

func TestAddValidation(t *testing.T) {
	s := newTestStore(t)

	cases := []struct {
		name     string
		product  [3]string
	}{
		{"empty name", [3]string{"", "Gaseosas", "2026-01-01"}},
		{"unknown category", [3]string{"x", "Lacteos", "2026-01-01"}},
		{"bad date", [3]string{"x", "Gaseosas", "01/01/2026"}},
		{"empty date", [3]string{"x", "Gaseosas", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Add(tc.product[0], tc.product[1], tc.product[2])
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)
		})
	}
	assert.Equal(t, 0, s.Count(), "failed adds must not mutate the collection")
}

func TestListSortedByExpiration(t *testing.T) {
	s := newTestStore(t)

	for _, date := range []string{"2026-06-01", "2026-01-15", "2026-12-31", "2026-03-03"} {
		_, err := s.Add("p-"+date, "Golosinas", date)
		require.NoError(t, err)
	}

	products, err := s.List("")
	require.NoError(t, err)
	require.Len(t, products, 4)
	for i := 1; i < len(products); i++ {
		assert.LessOrEqual(t, products[i-1].ExpirationDate, products[i].ExpirationDate)
	}
}

func TestListCategoryFilter(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("agua", "Aguas", "2026-05-01")
	require.NoError(t, err)
	_, err = s.Add("alfajor", "Alfajores", "2026-04-01")
	require.NoError(t, err)

	filtered, err := s.List("Aguas")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "agua", filtered[0].Name)
}

func TestListUnknownFilterFails(t *testing.T) {
	s := newTestStore(t)

	_, err := s.List("Lacteos")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestDeleteByID(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Add("x", "Chocolates", "2026-02-02")
	require.NoError(t, err)

	removed, err := s.DeleteByID(created.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, ok := s.GetByID(created.ID)
	assert.False(t, ok)
}

func TestDeleteAbsentIDReturnsFalse(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("x", "Chocolates", "2026-02-02")
	require.NoError(t, err)

	removed, err := s.DeleteByID(999)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 1, s.Count(), "collection must be unchanged")
}

func TestDeletedIDIsNotReissued(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Add("a", "Aguas", "2026-01-01")
	require.NoError(t, err)
	_, err = s.DeleteByID(first.ID)
	require.NoError(t, err)

	second, err := s.Add("b", "Aguas", "2026-01-02")
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestReloadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")

	s, err := Open(path, nil)
	require.NoError(t, err)
	created, err := s.Add("persisted", "Gaseosas", "2026-07-07")
	require.NoError(t, err)

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	got, ok := reopened.GetByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.ExpirationDate, got.ExpirationDate)

	// next_id survives the reload too
	next, err := reopened.Add("after", "Gaseosas", "2026-08-08")
	require.NoError(t, err)
	assert.Equal(t, created.ID+1, next.ID)
}

func TestPersistFailureRollsBack(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not apply to root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	s, err := Open(path, nil)
	require.NoError(t, err)

	created, err := s.Add("keep", "Aguas", "2026-09-09")
	require.NoError(t, err)

	// Make the directory unwritable so the temp-file write fails.
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	_, err = s.Add("lost", "Aguas", "2026-09-10")
	require.Error(t, err)
	assert.True(t, apperrors.IsPersistence(err))
	assert.Equal(t, 1, s.Count(), "failed persist must roll back the append")

	removed, err := s.DeleteByID(created.ID)
	require.Error(t, err)
	assert.False(t, removed)
	_, ok := s.GetByID(created.ID)
	assert.True(t, ok, "failed persist must restore the deleted record")
}
