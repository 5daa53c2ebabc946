package seed

import (
	"context"
	"testing"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewInMemoryRepositories()

	require.NoError(t, SeedData(ctx, repos))
	require.NoError(t, SeedData(ctx, repos))

	ann, err := repos.UserRepo.FindByEmail(ctx, seedOwnerEmail)
	require.NoError(t, err)
	require.NotNil(t, ann)

	desks, err := repos.DeskRepo.FindByUserID(ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, desks, 2)

	var shared *repository.Desk
	for _, d := range desks {
		if d.IsCollaborative {
			shared = d
		}
	}
	require.NotNil(t, shared)

	members, err := repos.DeskRepo.FindMembers(ctx, shared.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	pending, err := repos.MemberRequestRepo.FindPendingByDesk(ctx, shared.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
