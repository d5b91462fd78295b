package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error)
	GetServiceEntry(ctx context.Context, planID, serviceID uuid.UUID) (*ServiceEntry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolution is the customer together with the service entry a claim is made against.
type Resolution struct {
	Customer *Customer
	Entry    *ServiceEntry
}

// Subscription is a customer with the plan they are subscribed to.
type Subscription struct {
	Customer *Customer
	Plan     *Plan
}

func (s *Service) Subscription(ctx context.Context, customerID uuid.UUID) (*Subscription, error) {
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.GetPlan(ctx, customer.PlanID)
	if err != nil {
		return nil, fmt.Errorf("loading plan of customer %s: %w", customerID, err)
	}

	return &Subscription{Customer: customer, Plan: plan}, nil
}

// ResolveService checks that the customer is subscribed to planID and that
// the plan offers serviceID. A zero planID means the customer's current plan.
func (s *Service) ResolveService(ctx context.Context, customerID, planID, serviceID uuid.UUID) (*Resolution, error) {
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if planID == uuid.Nil {
		planID = customer.PlanID
	}

	if customer.PlanID != planID {
		return nil, fmt.Errorf("customer %s is not subscribed to plan %s: %w", customerID, planID, ErrPlanNotFound)
	}

	entry, err := s.repo.GetServiceEntry(ctx, planID, serviceID)
	if err != nil {
		return nil, err
	}

	return &Resolution{Customer: customer, Entry: entry}, nil
}
