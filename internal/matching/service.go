package matching

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidMapping = errors.New("pattern and service id are required")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	// FindMatch returns the service of the longest pattern contained in label,
	// or uuid.Nil when none matches.
	FindMatch(ctx context.Context, label string) (uuid.UUID, error)
	CreateMapping(ctx context.Context, pattern string, serviceID uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest tries to find the service a partner label refers to.
// Returns uuid.Nil if no match found.
func (s *Service) Suggest(ctx context.Context, label string) (uuid.UUID, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return uuid.Nil, nil
	}

	return s.repo.FindMatch(ctx, label)
}

// Learn remembers that labels containing pattern refer to serviceID.
func (s *Service) Learn(ctx context.Context, pattern string, serviceID uuid.UUID) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || serviceID == uuid.Nil {
		return ErrInvalidMapping
	}

	return s.repo.CreateMapping(ctx, pattern, serviceID)
}
