// internal/repository/postgres_gateway.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	pgListByOwner = `SELECT id, owner_id, body FROM deal_records WHERE collection = $1 AND owner_id = $2 ORDER BY id`
	pgGetAll      = `SELECT id, owner_id, body FROM deal_records WHERE collection = $1 ORDER BY id`
	pgGet         = `SELECT id, owner_id, body FROM deal_records WHERE collection = $1 AND id = $2`
	pgUpsert      = `INSERT INTO deal_records (collection, id, owner_id, body, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (collection, id) DO UPDATE
SET owner_id = EXCLUDED.owner_id, body = EXCLUDED.body, updated_at = NOW()`
	pgDelete = `DELETE FROM deal_records WHERE collection = $1 AND id = $2`
)

// PostgresGateway stores every collection in the deal_records table.
type PostgresGateway struct {
	db *sql.DB
}

func NewPostgresGateway(db *sql.DB) *PostgresGateway {
	return &PostgresGateway{db: db}
}

func (g *PostgresGateway) ListByOwner(ctx context.Context, c Collection, ownerID string) ([]Record, error) {
	rows, err := g.db.QueryContext(ctx, pgListByOwner, string(c), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list %s for %s: %w", c, ownerID, err)
	}
	return scanRecords(rows)
}

func (g *PostgresGateway) GetAll(ctx context.Context, c Collection) ([]Record, error) {
	rows, err := g.db.QueryContext(ctx, pgGetAll, string(c))
	if err != nil {
		return nil, fmt.Errorf("load all %s: %w", c, err)
	}
	return scanRecords(rows)
}

func (g *PostgresGateway) Get(ctx context.Context, c Collection, id string) (Record, error) {
	var rec Record
	var body []byte
	err := g.db.QueryRowContext(ctx, pgGet, string(c), id).Scan(&rec.ID, &rec.OwnerID, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", c, id, err)
	}
	rec.Body = body
	return rec, nil
}

func (g *PostgresGateway) Put(ctx context.Context, c Collection, rec Record) error {
	if _, err := g.db.ExecContext(ctx, pgUpsert, string(c), rec.ID, rec.OwnerID, []byte(rec.Body)); err != nil {
		return fmt.Errorf("put %s/%s: %w", c, rec.ID, err)
	}
	return nil
}

func (g *PostgresGateway) Remove(ctx context.Context, c Collection, id string) error {
	if _, err := g.db.ExecContext(ctx, pgDelete, string(c), id); err != nil {
		return fmt.Errorf("remove %s/%s: %w", c, id, err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var body []byte
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &body); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Body = body
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
