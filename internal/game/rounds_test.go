package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/store"
)

func TestStartRound_HostOnly(t *testing.T) {
	svc := newTestService(t)
	link := createGame(t, svc, true)
	ctx := context.Background()

	_, _, err := svc.JoinAsHost(ctx, link, "host-conn")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, link, "Alice", "alice-conn")
	require.NoError(t, err)

	err = svc.StartRound(ctx, link, "story-1", "alice-conn")
	require.ErrorIs(t, err, ErrUnauthorized)

	info, err := svc.GameInfo(ctx, link)
	require.NoError(t, err)
	require.False(t, info.RoundActive, "failed command must not change state")
	require.Empty(t, info.RoundName)
}

func TestStartRound_UnknownGame(t *testing.T) {
	svc := newTestService(t)

	err := svc.StartRound(context.Background(), "nope", "story-1", "host-conn")
	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestStartRound_ClearsVotesAndKeepsLatestName(t *testing.T) {
	svc := newTestService(t)
	link := createGame(t, svc, true)
	ctx := context.Background()

	_, _, err := svc.JoinAsHost(ctx, link, "host-conn")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, link, "Alice", "alice-conn")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(ctx, link, "story-1", "host-conn"))
	_, err = svc.SubmitVote(ctx, link, "5", "alice-conn")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(ctx, link, "story-2", "host-conn"))

	votes, err := svc.Votes(ctx, link)
	require.NoError(t, err)
	require.Empty(t, votes, "starting a round clears prior votes")

	info, err := svc.GameInfo(ctx, link)
	require.NoError(t, err)
	require.True(t, info.RoundActive)
	require.Equal(t, "story-2", info.RoundName)
}

func TestStartRound_StoreFailureChangesNothing(t *testing.T) {
	fs := &flakyStore{Store: store.NewMemoryStore()}
	svc := NewService(fs, zap.NewNop())
	link := createGame(t, svc, true)
	ctx := context.Background()

	_, _, err := svc.JoinAsHost(ctx, link, "host-conn")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, link, "Alice", "alice-conn")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(ctx, link, "story-1", "host-conn"))
	_, err = svc.SubmitVote(ctx, link, "5", "alice-conn")
	require.NoError(t, err)

	fs.failResetRound = true
	err = svc.StartRound(ctx, link, "story-2", "host-conn")
	require.ErrorIs(t, err, errStoreDown)

	// Clearing votes and flipping the round flags are one step. A failed
	// start leaves the prior round fully intact.
	votes, err := svc.Votes(ctx, link)
	require.NoError(t, err)
	require.Len(t, votes, 1)

	info, err := svc.GameInfo(ctx, link)
	require.NoError(t, err)
	require.True(t, info.RoundActive)
	require.Equal(t, "story-1", info.RoundName)
}

func TestEndRound_RevealsAndRetainsVotes(t *testing.T) {
	svc := newTestService(t)
	link := createGame(t, svc, true)
	ctx := context.Background()

	_, _, err := svc.JoinAsHost(ctx, link, "host-conn")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, link, "Alice", "alice-conn")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(ctx, link, "story-1", "host-conn"))
	_, err = svc.SubmitVote(ctx, link, "5", "alice-conn")
	require.NoError(t, err)

	votes, err := svc.EndRound(ctx, link, "host-conn")
	require.NoError(t, err)
	require.Equal(t, []VoteInfo{{PlayerName: "Alice", Card: "5"}}, votes)

	info, err := svc.GameInfo(ctx, link)
	require.NoError(t, err)
	require.False(t, info.RoundActive)

	// Votes stay readable for display until the next round starts.
	kept, err := svc.Votes(ctx, link)
	require.NoError(t, err)
	require.Len(t, kept, 1)
}

func TestEndRound_Unauthorized(t *testing.T) {
	svc := newTestService(t)
	link := createGame(t, svc, true)
	ctx := context.Background()

	_, _, err := svc.JoinAsHost(ctx, link, "host-conn")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, link, "Alice", "alice-conn")
	require.NoError(t, err)

	_, err = svc.EndRound(ctx, link, "alice-conn")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestResetVotes_ClearsVotesAndEndsRound(t *testing.T) {
	svc := newTestService(t)
	link := createGame(t, svc, true)
	ctx := context.Background()

	_, _, err := svc.JoinAsHost(ctx, link, "host-conn")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, link, "Alice", "alice-conn")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(ctx, link, "story-1", "host-conn"))
	_, err = svc.SubmitVote(ctx, link, "5", "alice-conn")
	require.NoError(t, err)

	require.NoError(t, svc.ResetVotes(ctx, link, "host-conn"))

	votes, err := svc.Votes(ctx, link)
	require.NoError(t, err)
	require.Empty(t, votes)

	info, err := svc.GameInfo(ctx, link)
	require.NoError(t, err)
	require.False(t, info.RoundActive)
}

func TestResetVotes_Unauthorized(t *testing.T) {
	svc := newTestService(t)
	link := createGame(t, svc, true)
	ctx := context.Background()

	_, _, err := svc.Join(ctx, link, "Alice", "alice-conn")
	require.NoError(t, err)

	err = svc.ResetVotes(ctx, link, "alice-conn")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestHostReconnectKeepsAuthority(t *testing.T) {
	svc := newTestService(t)
	link := createGame(t, svc, true)
	ctx := context.Background()

	_, _, err := svc.JoinAsHost(ctx, link, "conn-old")
	require.NoError(t, err)
	_, _, err = svc.JoinAsHost(ctx, link, "conn-new")
	require.NoError(t, err)

	require.ErrorIs(t, svc.StartRound(ctx, link, "story-1", "conn-old"), ErrUnauthorized)
	require.NoError(t, svc.StartRound(ctx, link, "story-1", "conn-new"))
}
