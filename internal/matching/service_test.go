package matching_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/benefits/internal/matching"
	"github.com/MrJamesThe3rd/benefits/internal/matching/memory"
)

func TestService_Learn(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := matching.NewMockRepository(ctrl)
	svc := matching.NewService(repo)

	serviceID := uuid.New()

	repo.EXPECT().CreateMapping(gomock.Any(), "dentária", serviceID).Return(nil)

	require.NoError(t, svc.Learn(context.Background(), "  dentária ", serviceID))
	assert.ErrorIs(t, svc.Learn(context.Background(), " ", serviceID), matching.ErrInvalidMapping)
	assert.ErrorIs(t, svc.Learn(context.Background(), "óculos", uuid.Nil), matching.ErrInvalidMapping)
}

func TestService_Suggest_BlankLabelSkipsLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := matching.NewService(matching.NewMockRepository(ctrl))

	got, err := svc.Suggest(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got)
}

func TestService_WithMemoryStore(t *testing.T) {
	ctx := context.Background()
	svc := matching.NewService(memory.New())

	dental, surgery, orthodontics := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, svc.Learn(ctx, "dent", dental))
	require.NoError(t, svc.Learn(ctx, "cirurgia", surgery))
	require.NoError(t, svc.Learn(ctx, "aparelho dent", orthodontics))

	tests := []struct {
		label string
		want  uuid.UUID
	}{
		{label: "Consulta DENTÁRIA", want: dental},
		{label: "Consulta dentária", want: dental},
		{label: "Aparelho dentário fixo", want: orthodontics},
		{label: "Pequena cirurgia", want: surgery},
		{label: "Óculos", want: uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := svc.Suggest(ctx, tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
