package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectServiceColumns = `
	ps.plan_id, ps.service_id, ps.name, ps.price, ps.pre_authorization
`

// scanServiceEntry expects the columns of selectServiceColumns in order.
func scanServiceEntry(s scanner) (*catalog.ServiceEntry, error) {
	var (
		entry   catalog.ServiceEntry
		preAuth string
	)

	if err := s.Scan(
		&entry.PlanID, &entry.ServiceID, &entry.Name,
		&entry.Price, &preAuth,
	); err != nil {
		return nil, err
	}

	entry.PreAuthorization = catalog.PreAuthorization(preAuth)
	entry.RemainingBalance = entry.Price

	return &entry, nil
}

func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (*catalog.Customer, error) {
	query := `
		SELECT id, name, plan_id, company_id
		FROM customers
		WHERE id = $1 AND deleted_at IS NULL
	`

	var c catalog.Customer

	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.PlanID, &c.CompanyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrCustomerNotFound
		}

		return nil, fmt.Errorf("getting customer: %w", err)
	}

	return &c, nil
}

func (s *Store) GetPlan(ctx context.Context, id uuid.UUID) (*catalog.Plan, error) {
	query := `SELECT id, name, kind FROM plans WHERE id = $1`

	var (
		plan catalog.Plan
		kind string
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(&plan.ID, &plan.Name, &kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrPlanNotFound
		}

		return nil, fmt.Errorf("getting plan: %w", err)
	}

	plan.Kind = catalog.PlanKind(kind)

	servicesQuery := `SELECT ` + selectServiceColumns + `
		FROM plan_services ps
		WHERE ps.plan_id = $1
		ORDER BY ps.name ASC`

	rows, err := s.db.QueryContext(ctx, servicesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("listing plan services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanServiceEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan service: %w", err)
		}

		plan.Services = append(plan.Services, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan services: %w", err)
	}

	return &plan, nil
}

func (s *Store) GetServiceEntry(ctx context.Context, planID, serviceID uuid.UUID) (*catalog.ServiceEntry, error) {
	query := `SELECT ` + selectServiceColumns + `
		FROM plan_services ps
		WHERE ps.plan_id = $1 AND ps.service_id = $2`

	entry, err := scanServiceEntry(s.db.QueryRowContext(ctx, query, planID, serviceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrServiceNotFound
		}

		return nil, fmt.Errorf("getting service entry: %w", err)
	}

	return entry, nil
}
