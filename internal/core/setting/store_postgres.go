// Copyright (c) 2026 Exvault. All rights reserved.

package setting

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exvault/exvault/internal/platform/database/schema"
	"github.com/exvault/exvault/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) Upsert(context context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES ($1, $2, NOW())
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = NOW()
	`,
		schema.Setting.Table, schema.Setting.Key, schema.Setting.Value, schema.Setting.UpdatedAt,
		schema.Setting.Key, schema.Setting.Value, schema.Setting.Value, schema.Setting.UpdatedAt,
	)

	if _, err := repository.db.Exec(context, query, key, value); err != nil {
		return dberr.Wrap(err, "upsert_setting")
	}
	return nil
}

func (repository *PostgresRepository) Get(context context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.Setting.Value, schema.Setting.Table, schema.Setting.Key)

	var value string
	err := repository.db.QueryRow(context, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, dberr.Wrap(err, "get_setting")
	}
	return value, true, nil
}

func (repository *PostgresRepository) Delete(context context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.Setting.Table, schema.Setting.Key)

	if _, err := repository.db.Exec(context, query, key); err != nil {
		return dberr.Wrap(err, "delete_setting")
	}
	return nil
}
