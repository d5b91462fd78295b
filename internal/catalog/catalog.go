package catalog

import (
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/money"
)

// PreAuthorization tells whether claims against a service wait for admin approval.
type PreAuthorization string

const (
	PreAuthorizationYes PreAuthorization = "yes"
	PreAuthorizationNo  PreAuthorization = "no"
)

func (p PreAuthorization) Required() bool {
	return p == PreAuthorizationYes
}

// PlanKind distinguishes plans bought by a company from individual ones.
type PlanKind string

const (
	PlanKindIndividual PlanKind = "individual"
	PlanKindCorporate  PlanKind = "corporate"
)

// Customer is a member subscribed to exactly one plan.
type Customer struct {
	ID        uuid.UUID
	Name      string
	PlanID    uuid.UUID
	CompanyID *uuid.UUID
}

// Plan is a bundle of services assigned to a customer.
type Plan struct {
	ID       uuid.UUID
	Name     string
	Kind     PlanKind
	Services []ServiceEntry // Loaded via JOIN
}

// ServiceEntry is one benefit line of a plan.
//
// RemainingBalance is the full price when the entry comes from the catalog.
// Loaded inside a balance operation it carries the customer's cached balance;
// the authoritative value is always recomputed from the transactions recorded
// against the service.
type ServiceEntry struct {
	PlanID           uuid.UUID
	ServiceID        uuid.UUID
	Name             string
	Price            money.Amount
	PreAuthorization PreAuthorization
	RemainingBalance money.Amount
}
