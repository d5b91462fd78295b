package importer_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/benefits/internal/importer"
	"github.com/MrJamesThe3rd/benefits/internal/importer/claims"
	"github.com/MrJamesThe3rd/benefits/internal/money"
)

type mapMatcher map[string]uuid.UUID

func (m mapMatcher) Suggest(_ context.Context, label string) (uuid.UUID, error) {
	return m[label], nil
}

type failingMatcher struct{}

func (failingMatcher) Suggest(context.Context, string) (uuid.UUID, error) {
	return uuid.Nil, errors.New("db down")
}

type staticParser []importer.Row

func (p staticParser) Parse(io.Reader) ([]importer.Row, error) { return p, nil }

func TestService_Import(t *testing.T) {
	customerID, dental := uuid.New(), uuid.New()

	csv := "Beneficiário;Serviço;Valor\n" +
		customerID.String() + ";Dentista;40,00\n" +
		customerID.String() + ";Massagem;10,00\n"

	svc := importer.NewService(
		mapMatcher{"Dentista": dental},
		map[importer.Format]importer.Parser{importer.FormatClaims: claims.NewParser()},
	)

	got, skipped, err := svc.Import(context.Background(), importer.FormatClaims, strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, dental, got[0].Params.ServiceID)
	assert.Equal(t, customerID, got[0].Params.CustomerID)
	assert.Equal(t, money.Amount(4000), got[0].Params.Amount)

	require.Len(t, skipped, 1)
	assert.Equal(t, 3, skipped[0].Line)
	assert.EqualError(t, skipped[0], `row 3: no service mapped to label "Massagem"`)
}

func TestService_Import_Errors(t *testing.T) {
	rows := staticParser{{Line: 2, ServiceLabel: "Dentista", Amount: 100}}

	t.Run("unknown format", func(t *testing.T) {
		svc := importer.NewService(mapMatcher{}, nil)
		_, _, err := svc.Import(context.Background(), "xml", strings.NewReader(""))
		assert.ErrorContains(t, err, "unknown format")
	})

	t.Run("matcher failure", func(t *testing.T) {
		svc := importer.NewService(failingMatcher{}, map[importer.Format]importer.Parser{importer.FormatClaims: rows})
		_, _, err := svc.Import(context.Background(), importer.FormatClaims, strings.NewReader(""))
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("ids pass through without lookup", func(t *testing.T) {
		serviceID := uuid.New()
		svc := importer.NewService(failingMatcher{}, map[importer.Format]importer.Parser{
			importer.FormatClaims: staticParser{{Line: 2, ServiceID: serviceID, Amount: 100}},
		})

		got, skipped, err := svc.Import(context.Background(), importer.FormatClaims, strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, skipped)
		require.Len(t, got, 1)
		assert.Equal(t, serviceID, got[0].Params.ServiceID)
	})
}

func TestService_Import_MalformedRowsAreSkipped(t *testing.T) {
	customerID, dental := uuid.New(), uuid.New()

	csv := "Beneficiário;Serviço;Valor\n" +
		customerID.String() + ";Dentista;40,00\n" +
		"not-a-uuid;Dentista;10,00\n" +
		customerID.String() + ";Dentista;abc\n" +
		customerID.String() + ";Dentista;5,00\n"

	svc := importer.NewService(
		mapMatcher{"Dentista": dental},
		map[importer.Format]importer.Parser{importer.FormatClaims: claims.NewParser()},
	)

	got, skipped, err := svc.Import(context.Background(), importer.FormatClaims, strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, 5, got[1].Line)

	require.Len(t, skipped, 2)
	assert.Equal(t, 3, skipped[0].Line)
	assert.ErrorContains(t, skipped[0], "row 3: invalid customer id")
	assert.Equal(t, 4, skipped[1].Line)
	assert.ErrorContains(t, skipped[1], "row 4: invalid amount")
}
