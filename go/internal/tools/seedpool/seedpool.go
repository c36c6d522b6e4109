// Package seedpool loads a draft's pool categories and items from YAML into
// Postgres in a single transaction.
package seedpool

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a pool file.
type File struct {
	Categories []Category `yaml:"categories"`
	Items      []Item     `yaml:"items"`
}

type Category struct {
	Name              string `yaml:"name"`
	MaxPerParticipant int    `yaml:"max_per_participant"`
}

// Item has an optional ID. Without one the ID is derived from the draft, name
// and category, so seeding the same file twice inserts nothing new.
type Item struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Abbreviation string `yaml:"abbreviation"`
	Category     string `yaml:"category"`
}

type Result struct {
	Categories int
	Inserted   int
	Skipped    int
}

// Beginner is satisfied by *pgxpool.Pool.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pool file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse pool file: %w", err)
	}
	return &f, nil
}

// Validate checks that every item names a declared category (or none) and
// that no two items resolve to the same ID.
func (f *File) Validate(draftID uuid.UUID) error {
	var errs []error
	declared := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		if c.Name == "" {
			errs = append(errs, errors.New("category with empty name"))
			continue
		}
		declared[c.Name] = true
	}
	seen := make(map[uuid.UUID]string, len(f.Items))
	for i, it := range f.Items {
		if it.Name == "" {
			errs = append(errs, fmt.Errorf("item %d has no name", i+1))
		}
		if it.Category != "" && !declared[it.Category] {
			errs = append(errs, fmt.Errorf("item %q uses undeclared category %q", it.Name, it.Category))
		}
		id, err := it.resolveID(draftID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("items %q and %q share id %s", prev, it.Name, id))
		}
		seen[id] = it.Name
	}
	return errors.Join(errs...)
}

func (it Item) resolveID(draftID uuid.UUID) (uuid.UUID, error) {
	if it.ID != "" {
		id, err := uuid.Parse(it.ID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("item %q: invalid id: %w", it.Name, err)
		}
		return id, nil
	}
	return uuid.NewSHA1(draftID, []byte(it.Category+"/"+it.Name)), nil
}

const upsertCategory = `
INSERT INTO pool_categories (draft_id, name, max_per_participant)
VALUES ($1, $2, $3)
ON CONFLICT (draft_id, name) DO UPDATE SET max_per_participant = EXCLUDED.max_per_participant`

const insertItem = `
INSERT INTO pool_items (id, draft_id, name, abbreviation, category)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`

// Seed writes f into the pool of draftID. Nothing is written if any statement fails.
func Seed(ctx context.Context, db Beginner, draftID uuid.UUID, f *File) (*Result, error) {
	if err := f.Validate(draftID); err != nil {
		return nil, fmt.Errorf("invalid pool file: %w", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	res, err := seedTx(ctx, tx, draftID, f)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Error().Err(rbErr).Msg("rollback pool seed")
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit pool seed: %w", err)
	}

	log.Info().
		Str("draft_id", draftID.String()).
		Int("categories", res.Categories).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("pool seed complete")
	return res, nil
}

func seedTx(ctx context.Context, tx pgx.Tx, draftID uuid.UUID, f *File) (*Result, error) {
	res := &Result{}
	for _, c := range f.Categories {
		if _, err := tx.Exec(ctx, upsertCategory, draftID, c.Name, c.MaxPerParticipant); err != nil {
			return nil, fmt.Errorf("upsert category %q: %w", c.Name, err)
		}
		res.Categories++
	}

	for _, it := range f.Items {
		id, err := it.resolveID(draftID)
		if err != nil {
			return nil, err
		}
		var category *string
		if it.Category != "" {
			category = &it.Category
		}
		tag, err := tx.Exec(ctx, insertItem, id, draftID, it.Name, it.Abbreviation, category)
		if err != nil {
			return nil, fmt.Errorf("insert item %q: %w", it.Name, err)
		}
		if tag.RowsAffected() == 1 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}
