package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/rotisserie/eris"

	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/mode"
)

// sqliteRepo implements SaveRepo on the saves table.
type sqliteRepo struct {
	db *sql.DB
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *sqliteRepo) Save(ctx context.Context, gs gamestate.GameState, label string) (Metadata, error) {
	meta, payload, err := newSave(gs, label)
	if err != nil {
		return Metadata{}, err
	}

	query, args := builder().Insert(SavesTable.Name).
		Columns(colID, colLabel, colMode, colFormatVersion, colCreatedAt, colPayload).
		Values(meta.ID, meta.Label, string(meta.Mode), meta.FormatVersion, meta.CreatedAt.UnixNano(), payload).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return Metadata{}, eris.Wrap(err, "insert save")
	}
	return meta, nil
}

func (r *sqliteRepo) Load(ctx context.Context, id string) (gamestate.GameState, Metadata, error) {
	b := builder()
	query, args := b.Select(colID, colLabel, colMode, colFormatVersion, colCreatedAt, colPayload).
		From(b.Table(SavesTable.Name)).
		Where(entsql.EQ(colID, id)).
		Query()

	var (
		meta    Metadata
		m       string
		created int64
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&meta.ID, &meta.Label, &m, &meta.FormatVersion, &created, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return gamestate.GameState{}, Metadata{}, eris.Wrapf(ErrNotFound, "load %s", id)
	}
	if err != nil {
		return gamestate.GameState{}, Metadata{}, eris.Wrap(err, "query save")
	}
	meta.Mode = mode.Mode(m)
	meta.CreatedAt = time.Unix(0, created).UTC()

	gs, err := decodeSave(payload)
	if err != nil {
		return gamestate.GameState{}, meta, err
	}
	return gs, meta, nil
}

func (r *sqliteRepo) List(ctx context.Context) ([]Metadata, error) {
	b := builder()
	query, args := b.Select(colID, colLabel, colMode, colFormatVersion, colCreatedAt).
		From(b.Table(SavesTable.Name)).
		OrderBy(entsql.Desc(colCreatedAt), entsql.Desc(colID)).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "query saves")
	}
	defer rows.Close()

	var out []Metadata
	for rows.Next() {
		var (
			meta    Metadata
			m       string
			created int64
		)
		if err := rows.Scan(&meta.ID, &meta.Label, &m, &meta.FormatVersion, &created); err != nil {
			return nil, eris.Wrap(err, "scan save")
		}
		meta.Mode = mode.Mode(m)
		meta.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate saves")
	}
	return out, nil
}

func (r *sqliteRepo) Delete(ctx context.Context, id string) error {
	query, args := builder().Delete(SavesTable.Name).
		Where(entsql.EQ(colID, id)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrap(err, "delete save")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "delete save")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "delete %s", id)
	}
	return nil
}

func (r *sqliteRepo) Prune(ctx context.Context, keep int) (int, error) {
	saves, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(saves) <= keep {
		return 0, nil // fewer than keep saves exist
	}

	ids := make([]any, 0, len(saves)-keep)
	for _, s := range saves[max(keep, 0):] {
		ids = append(ids, s.ID)
	}
	query, args := builder().Delete(SavesTable.Name).
		Where(entsql.In(colID, ids...)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrap(err, "prune saves")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "prune saves")
	}
	return int(n), nil
}
