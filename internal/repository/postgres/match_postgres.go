// Package postgres implements the repository contracts over pgx.
// Match records are one row each with the structured parts (scores,
// history, config, lineups) stored as JSONB, since the live core is the
// only writer and always reads the record whole.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okravets/volleyball-match-service/internal/model"
	"github.com/okravets/volleyball-match-service/internal/repository"
)

type matchRepository struct{ pool *pgxpool.Pool }

// NewMatchRepository builds the Postgres-backed match record store.
func NewMatchRepository(pool *pgxpool.Pool) repository.MatchRepository {
	return &matchRepository{pool: pool}
}

// recordColumns is shared by every SELECT so scans stay in one shape.
const recordColumns = `id, season_id, event_id, opponent_name, date, result,
	sets_won, scores, history, config, lineups, ai_narrative, created_at, updated_at`

type recordDocs struct {
	setsWon []byte
	scores  []byte
	history []byte
	config  []byte
	lineups []byte
}

func marshalRecord(r model.MatchRecord) (recordDocs, error) {
	var docs recordDocs
	var err error
	if docs.setsWon, err = json.Marshal(r.SetsWon); err != nil {
		return docs, fmt.Errorf("marshal sets_won: %w", err)
	}
	if docs.scores, err = json.Marshal(r.Scores); err != nil {
		return docs, fmt.Errorf("marshal scores: %w", err)
	}
	if docs.history, err = json.Marshal(r.History); err != nil {
		return docs, fmt.Errorf("marshal history: %w", err)
	}
	if docs.config, err = json.Marshal(r.Config); err != nil {
		return docs, fmt.Errorf("marshal config: %w", err)
	}
	if docs.lineups, err = json.Marshal(r.Lineups); err != nil {
		return docs, fmt.Errorf("marshal lineups: %w", err)
	}
	return docs, nil
}

func scanRecord(row pgx.Row) (model.MatchRecord, error) {
	var out model.MatchRecord
	var docs recordDocs
	var seasonID, eventID, narrative *string
	if err := row.Scan(
		&out.ID, &seasonID, &eventID, &out.OpponentName, &out.Date, &out.Result,
		&docs.setsWon, &docs.scores, &docs.history, &docs.config, &docs.lineups,
		&narrative, &out.CreatedAt, &out.UpdatedAt,
	); err != nil {
		return model.MatchRecord{}, err
	}
	if seasonID != nil {
		out.SeasonID = *seasonID
	}
	if eventID != nil {
		out.EventID = *eventID
	}
	if narrative != nil {
		out.AINarrative = *narrative
	}
	for _, doc := range []struct {
		raw []byte
		dst any
	}{
		{docs.setsWon, &out.SetsWon},
		{docs.scores, &out.Scores},
		{docs.history, &out.History},
		{docs.config, &out.Config},
		{docs.lineups, &out.Lineups},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dst); err != nil {
			return model.MatchRecord{}, fmt.Errorf("unmarshal record document: %w", err)
		}
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *matchRepository) Create(ctx context.Context, rec model.MatchRecord) (model.MatchRecord, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.MatchRecord{}, err
	}
	docs, err := marshalRecord(rec)
	if err != nil {
		return model.MatchRecord{}, err
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`INSERT INTO matches (id, season_id, event_id, opponent_name, date, result,
		    sets_won, scores, history, config, lineups, ai_narrative)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+recordColumns,
		rec.ID, nullable(rec.SeasonID), nullable(rec.EventID), rec.OpponentName, rec.Date, rec.Result,
		docs.setsWon, docs.scores, docs.history, docs.config, docs.lineups, nullable(rec.AINarrative),
	)
	out, err := scanRecord(row)
	if err != nil {
		return model.MatchRecord{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (model.MatchRecord, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.MatchRecord{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM matches WHERE id = $1`, id)
	out, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MatchRecord{}, repository.ErrNotFound
		}
		return model.MatchRecord{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *matchRepository) Update(ctx context.Context, rec model.MatchRecord) (model.MatchRecord, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.MatchRecord{}, err
	}
	docs, err := marshalRecord(rec)
	if err != nil {
		return model.MatchRecord{}, err
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`UPDATE matches SET season_id = $2, event_id = $3, opponent_name = $4, date = $5,
		    result = $6, sets_won = $7, scores = $8, history = $9, config = $10,
		    lineups = $11, ai_narrative = $12, updated_at = now()
		 WHERE id = $1
		 RETURNING `+recordColumns,
		rec.ID, nullable(rec.SeasonID), nullable(rec.EventID), rec.OpponentName, rec.Date,
		rec.Result, docs.setsWon, docs.scores, docs.history, docs.config, docs.lineups,
		nullable(rec.AINarrative),
	)
	out, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MatchRecord{}, repository.ErrNotFound
		}
		return model.MatchRecord{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *matchRepository) AttachNarrative(ctx context.Context, id string, narrative string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	exec := getQ(ctx, r.pool)
	tag, err := exec.Exec(ctx,
		`UPDATE matches SET ai_narrative = $2, updated_at = now() WHERE id = $1`,
		id, narrative)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *matchRepository) List(ctx context.Context, p repository.Page) (repository.PageResult[model.MatchRecord], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.MatchRecord]{}, err
	}
	limit, offset := sanitizeLimitOffset(p.Limit, p.Offset)
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT `+recordColumns+`, COUNT(*) OVER() AS total
		 FROM matches
		 ORDER BY date DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return repository.PageResult[model.MatchRecord]{}, repository.MapPgError(err)
	}
	defer rows.Close()
	res := repository.PageResult[model.MatchRecord]{Items: make([]model.MatchRecord, 0, limit)}
	for rows.Next() {
		var it model.MatchRecord
		var docs recordDocs
		var seasonID, eventID, narrative *string
		var total int
		if err := rows.Scan(
			&it.ID, &seasonID, &eventID, &it.OpponentName, &it.Date, &it.Result,
			&docs.setsWon, &docs.scores, &docs.history, &docs.config, &docs.lineups,
			&narrative, &it.CreatedAt, &it.UpdatedAt, &total,
		); err != nil {
			return repository.PageResult[model.MatchRecord]{}, repository.MapPgError(err)
		}
		if seasonID != nil {
			it.SeasonID = *seasonID
		}
		if eventID != nil {
			it.EventID = *eventID
		}
		if narrative != nil {
			it.AINarrative = *narrative
		}
		for _, doc := range []struct {
			raw []byte
			dst any
		}{
			{docs.setsWon, &it.SetsWon},
			{docs.scores, &it.Scores},
			{docs.history, &it.History},
			{docs.config, &it.Config},
			{docs.lineups, &it.Lineups},
		} {
			if len(doc.raw) == 0 {
				continue
			}
			if err := json.Unmarshal(doc.raw, doc.dst); err != nil {
				return repository.PageResult[model.MatchRecord]{}, fmt.Errorf("unmarshal record document: %w", err)
			}
		}
		res.Items = append(res.Items, it)
		res.Total = total
	}
	return res, nil
}

var _ repository.MatchRepository = (*matchRepository)(nil)
