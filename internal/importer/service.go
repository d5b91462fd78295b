package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

// Matcher resolves a free-text service label to a service id. It returns
// uuid.Nil when no mapping is known.
type Matcher interface {
	Suggest(ctx context.Context, label string) (uuid.UUID, error)
}

// Claim is a row ready to be submitted to the transaction engine.
type Claim struct {
	Line   int
	Params transaction.CreateParams
}

// RowError is a row that could not be turned into a claim.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

type Service struct {
	parsers map[Format]Parser
	matcher Matcher
}

func NewService(matcher Matcher, parsers map[Format]Parser) *Service {
	return &Service{parsers: parsers, matcher: matcher}
}

// Import parses r and resolves service labels. Malformed rows and rows whose
// label has no mapping are returned as RowErrors; the others become claims.
func (s *Service) Import(ctx context.Context, format Format, r io.Reader) ([]Claim, []RowError, error) {
	parser, ok := s.parsers[format]
	if !ok {
		return nil, nil, fmt.Errorf("unknown format: %s", format)
	}

	rows, err := parser.Parse(r)
	if err != nil {
		return nil, nil, err
	}

	var (
		claims  []Claim
		skipped []RowError
	)

	for _, row := range rows {
		if row.Err != nil {
			skipped = append(skipped, RowError{Line: row.Line, Err: row.Err})
			continue
		}

		serviceID := row.ServiceID

		if row.ServiceLabel != "" {
			serviceID, err = s.matcher.Suggest(ctx, row.ServiceLabel)
			if err != nil {
				return nil, nil, fmt.Errorf("resolving service label %q: %w", row.ServiceLabel, err)
			}

			if serviceID == uuid.Nil {
				skipped = append(skipped, RowError{Line: row.Line, Err: fmt.Errorf("no service mapped to label %q", row.ServiceLabel)})
				continue
			}
		}

		claims = append(claims, Claim{
			Line: row.Line,
			Params: transaction.CreateParams{
				CustomerID:    row.CustomerID,
				PlanID:        row.PlanID,
				ServiceID:     serviceID,
				Amount:        row.Amount,
				PaymentMethod: row.PaymentMethod,
			},
		})
	}

	return claims, skipped, nil
}
