package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindMatch(ctx context.Context, label string) (uuid.UUID, error) {
	query := `
		SELECT service_id
		FROM service_label_mappings
		WHERE $1 ILIKE '%' || pattern || '%'
		ORDER BY LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var serviceID uuid.UUID

	err := s.db.QueryRowContext(ctx, query, label).Scan(&serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, nil
		}

		return uuid.Nil, fmt.Errorf("finding match: %w", err)
	}

	return serviceID, nil
}

func (s *Store) CreateMapping(ctx context.Context, pattern string, serviceID uuid.UUID) error {
	query := `
		INSERT INTO service_label_mappings (pattern, service_id, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.ExecContext(ctx, query, pattern, serviceID)
	if err != nil {
		return fmt.Errorf("creating mapping: %w", err)
	}

	return nil
}
