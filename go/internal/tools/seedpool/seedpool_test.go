package seedpool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const poolYAML = `
categories:
  - name: QB
    max_per_participant: 2
  - name: K
    max_per_participant: 1
items:
  - name: Patrick Mahomes
    abbreviation: KC
    category: QB
  - name: Justin Tucker
    category: K
  - name: Wildcard
`

func loadPool(t *testing.T) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(poolYAML), 0o600))
	f, err := LoadFile(path)
	require.NoError(t, err)
	return f
}

func TestLoadFile(t *testing.T) {
	f := loadPool(t)
	require.Len(t, f.Categories, 2)
	require.Len(t, f.Items, 3)
	assert.Equal(t, 2, f.Categories[0].MaxPerParticipant)
	assert.Equal(t, "KC", f.Items[0].Abbreviation)
	assert.Empty(t, f.Items[2].Category)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	draftID := uuid.New()

	t.Run("commits categories and items", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO pool_categories").
			WithArgs(draftID, "QB", 2).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO pool_categories").
			WithArgs(draftID, "K", 1).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO pool_items").
			WithArgs(pgxmock.AnyArg(), draftID, "Patrick Mahomes", "KC", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO pool_items").
			WithArgs(pgxmock.AnyArg(), draftID, "Justin Tucker", "", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectExec("INSERT INTO pool_items").
			WithArgs(pgxmock.AnyArg(), draftID, "Wildcard", "", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		res, err := Seed(ctx, mock, draftID, loadPool(t))
		require.NoError(t, err)
		assert.Equal(t, &Result{Categories: 2, Inserted: 2, Skipped: 1}, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO pool_categories").
			WithArgs(draftID, "QB", 2).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err = Seed(ctx, mock, draftID, loadPool(t))
		require.ErrorContains(t, err, `upsert category "QB"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid file never opens a transaction", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		f := &File{Items: []Item{{Name: "Orphan", Category: "WR"}}}
		_, err = Seed(ctx, mock, draftID, f)
		require.ErrorContains(t, err, `undeclared category "WR"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestValidate(t *testing.T) {
	draftID := uuid.New()
	fixed := uuid.NewString()

	tests := []struct {
		name string
		file File
		want string
	}{
		{
			name: "duplicate derived id",
			file: File{Items: []Item{{Name: "Same"}, {Name: "Same"}}},
			want: "share id",
		},
		{
			name: "duplicate explicit id",
			file: File{Items: []Item{{ID: fixed, Name: "A"}, {ID: fixed, Name: "B"}}},
			want: "share id",
		},
		{
			name: "bad id",
			file: File{Items: []Item{{ID: "nope", Name: "A"}}},
			want: "invalid id",
		},
		{
			name: "unnamed item",
			file: File{Items: []Item{{}}},
			want: "item 1 has no name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, tt.file.Validate(draftID), tt.want)
		})
	}

	t.Run("derived ids are stable", func(t *testing.T) {
		a, err := Item{Name: "X", Category: "QB"}.resolveID(draftID)
		require.NoError(t, err)
		b, err := Item{Name: "X", Category: "QB"}.resolveID(draftID)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
