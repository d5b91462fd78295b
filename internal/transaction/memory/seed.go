package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	"github.com/MrJamesThe3rd/benefits/internal/money"
)

type seedFile struct {
	Plans []struct {
		ID       uuid.UUID        `json:"id"`
		Name     string           `json:"name"`
		Kind     catalog.PlanKind `json:"kind"`
		Services []struct {
			ServiceID        uuid.UUID                `json:"service_id"`
			Name             string                   `json:"name"`
			Price            money.Amount             `json:"price"`
			PreAuthorization catalog.PreAuthorization `json:"pre_authorization"`
		} `json:"services"`
	} `json:"plans"`
	Customers []struct {
		ID     uuid.UUID `json:"id"`
		Name   string    `json:"name"`
		PlanID uuid.UUID `json:"plan_id"`
	} `json:"customers"`
}

// Seed loads plans and customers from a JSON document.
func (s *Store) Seed(r io.Reader) error {
	var f seedFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("decoding seed: %w", err)
	}

	for _, p := range f.Plans {
		plan := catalog.Plan{ID: p.ID, Name: p.Name, Kind: p.Kind}

		for _, e := range p.Services {
			if e.PreAuthorization == "" {
				e.PreAuthorization = catalog.PreAuthorizationNo
			}

			plan.Services = append(plan.Services, catalog.ServiceEntry{
				ServiceID:        e.ServiceID,
				Name:             e.Name,
				Price:            e.Price,
				PreAuthorization: e.PreAuthorization,
			})
		}

		s.AddPlan(plan)
	}

	for _, c := range f.Customers {
		if _, err := s.GetPlan(context.Background(), c.PlanID); err != nil {
			return fmt.Errorf("seeding customer %s: %w", c.ID, err)
		}

		s.AddCustomer(catalog.Customer{ID: c.ID, Name: c.Name, PlanID: c.PlanID})
	}

	return nil
}
