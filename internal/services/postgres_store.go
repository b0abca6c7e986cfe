package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"newsdesk-sections/internal/models"
	"newsdesk-sections/internal/sections"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const sectionColumns = `id, title, slug, template, capacity, target_type, target_value, feed, pins, custom,
       enabled, placement_index, side, created_at, updated_at`

type PostgresStore struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewPostgresStore(db *sqlx.DB, log *zap.Logger) *PostgresStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresStore{db: db, log: log}
}

func (p *PostgresStore) ListSections(ctx context.Context, filter SectionFilter) ([]sections.Section, error) {
	where := []string{}
	args := []any{}
	if filter.Target != nil {
		args = append(args, string(filter.Target.Type), filter.Target.Value)
		where = append(where, fmt.Sprintf("target_type = $%d AND target_value = $%d", len(args)-1, len(args)))
	}
	if filter.EnabledOnly {
		where = append(where, "enabled")
	}
	query := `SELECT ` + sectionColumns + ` FROM sections`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY placement_index, created_at, id`

	rows := []models.Section{}
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	items := make([]sections.Section, 0, len(rows))
	for _, row := range rows {
		items = append(items, p.fromRow(row))
	}
	sections.Sort(items)
	return items, nil
}

func (p *PostgresStore) GetSection(ctx context.Context, id string) (sections.Section, error) {
	if _, err := uuid.Parse(id); err != nil {
		return sections.Section{}, ErrSectionMissing
	}
	row := models.Section{}
	err := p.db.GetContext(ctx, &row, `SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return sections.Section{}, ErrSectionMissing
	}
	if err != nil {
		return sections.Section{}, err
	}
	return p.fromRow(row), nil
}

func (p *PostgresStore) InsertSection(ctx context.Context, s sections.Section) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO sections (
  id, title, slug, template, capacity, target_type, target_value, feed, pins, custom,
  enabled, placement_index, side, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9::jsonb,$10::jsonb,$11,$12,$13,$14,$15)
`, row.ID, row.Title, row.Slug, row.Template, row.Capacity, row.TargetType, row.TargetValue,
		string(row.Feed), string(row.Pins), string(row.Custom),
		row.Enabled, row.PlacementIndex, row.Side, row.CreatedAt, row.UpdatedAt)
	return writeError(err)
}

func (p *PostgresStore) UpdateSection(ctx context.Context, s sections.Section) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}
	result, err := p.db.ExecContext(ctx, `
UPDATE sections
SET title = $2, slug = $3, template = $4, capacity = $5, target_type = $6, target_value = $7,
    feed = $8::jsonb, pins = $9::jsonb, custom = $10::jsonb,
    enabled = $11, placement_index = $12, side = $13, updated_at = $14
WHERE id = $1
`, row.ID, row.Title, row.Slug, row.Template, row.Capacity, row.TargetType, row.TargetValue,
		string(row.Feed), string(row.Pins), string(row.Custom),
		row.Enabled, row.PlacementIndex, row.Side, row.UpdatedAt)
	if err != nil {
		return writeError(err)
	}
	return expectRow(result)
}

func (p *PostgresStore) DeleteSection(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrSectionMissing
	}
	result, err := p.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

func (p *PostgresStore) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	var exists bool
	err := p.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM sections WHERE slug = $1 AND id::text <> $2)`, slug, exceptID)
	return exists, err
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

const uniqueViolation = "23505"

// writeError maps a unique violation on the slug index to ErrSlugTaken.
func writeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "uq_sections_slug" {
		return ErrSlugTaken
	}
	return err
}

func expectRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSectionMissing
	}
	return nil
}

func toRow(s sections.Section) (models.Section, error) {
	record := s.Record()
	feed, err := json.Marshal(record.Feed)
	if err != nil {
		return models.Section{}, WrapError(err, "encode feed")
	}
	pins, err := json.Marshal(record.Pins)
	if err != nil {
		return models.Section{}, WrapError(err, "encode pins")
	}
	custom, err := json.Marshal(record.Custom)
	if err != nil {
		return models.Section{}, WrapError(err, "encode custom")
	}
	return models.Section{
		ID:             s.ID,
		Title:          s.Title,
		Slug:           s.Slug,
		Template:       record.Template,
		Capacity:       s.Capacity,
		TargetType:     string(s.Target.Type),
		TargetValue:    s.Target.Value,
		Feed:           feed,
		Pins:           pins,
		Custom:         custom,
		Enabled:        s.Enabled,
		PlacementIndex: s.PlacementIndex,
		Side:           record.Side,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}, nil
}

// fromRow loads leniently so one broken row never blanks a page.
func (p *PostgresStore) fromRow(row models.Section) sections.Section {
	record := recordFromRow(row, func(field string, err error) {
		p.log.Warn("section column unreadable", zap.String("section", row.ID), zap.String("column", field), zap.Error(err))
	})
	section, err := sections.Load(record)
	if err != nil {
		p.log.Warn("section custom dropped", zap.String("section", row.ID), zap.String("template", row.Template), zap.Error(err))
	}
	return section
}

func recordFromRow(row models.Section, onError func(field string, err error)) sections.Record {
	created := row.CreatedAt
	updated := row.UpdatedAt
	record := sections.Record{
		ID:             row.ID,
		Title:          row.Title,
		Slug:           row.Slug,
		Template:       row.Template,
		Capacity:       row.Capacity,
		Target:         sections.Target{Type: sections.TargetType(row.TargetType), Value: row.TargetValue},
		Enabled:        row.Enabled,
		PlacementIndex: row.PlacementIndex,
		Side:           row.Side,
		CreatedAt:      &created,
		UpdatedAt:      &updated,
	}
	decode := func(field string, raw []byte, dst any) {
		if len(raw) == 0 {
			return
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			onError(field, err)
		}
	}
	decode("feed", row.Feed, &record.Feed)
	decode("pins", row.Pins, &record.Pins)
	decode("custom", row.Custom, &record.Custom)
	return record
}
