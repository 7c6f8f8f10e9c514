package game

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.NewMemoryStore(), zap.NewNop())
}

var errStoreDown = errors.New("store down")

// flakyStore passes through to a real store until a failure is armed. It lets
// tests observe what the service does when persistence breaks mid-operation.
type flakyStore struct {
	store.Store
	failResetRound bool

	loadsLeft int // when > 0, GameByLink fails once this many loads succeed
	loads     int
}

func (f *flakyStore) ResetRound(ctx context.Context, gameID uint, active bool, roundName string) error {
	if f.failResetRound {
		return errStoreDown
	}
	return f.Store.ResetRound(ctx, gameID, active, roundName)
}

func (f *flakyStore) GameByLink(ctx context.Context, link string) (*store.Game, error) {
	if f.loadsLeft > 0 {
		f.loads++
		if f.loads > f.loadsLeft {
			return nil, errStoreDown
		}
	}
	return f.Store.GameByLink(ctx, link)
}

func createGame(t *testing.T, svc *Service, hostIsVoter bool) string {
	t.Helper()
	g, err := svc.CreateGame(context.Background(), "Sprint 42", hostIsVoter)
	require.NoError(t, err)
	return g.Link
}

func TestCreateGame(t *testing.T) {
	svc := newTestService(t)

	g, err := svc.CreateGame(context.Background(), "Sprint 42", true)
	require.NoError(t, err)
	require.Len(t, g.Link, 32, "link should be a uuid without hyphens")
	require.False(t, g.RoundActive)

	info, err := svc.GameInfo(context.Background(), g.Link)
	require.NoError(t, err)
	require.Equal(t, "Sprint 42", info.Name)
	require.True(t, info.HostIsVoter)
	require.Empty(t, info.Players)
}

func TestGameInfo_UnknownLink(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GameInfo(context.Background(), "nope")
	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestState_MidRoundHidesVotes(t *testing.T) {
	svc := newTestService(t)
	link := createGame(t, svc, true)
	ctx := context.Background()

	_, _, err := svc.JoinAsHost(ctx, link, "host-conn")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, link, "Alice", "alice-conn")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, link, "Bob", "bob-conn")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(ctx, link, "story-1", "host-conn"))
	_, err = svc.SubmitVote(ctx, link, "5", "alice-conn")
	require.NoError(t, err)

	st, err := svc.State(ctx, link, "alice-conn")
	require.NoError(t, err)
	require.True(t, st.RoundActive)
	require.Equal(t, "story-1", st.RoundName)
	require.True(t, st.HasVoted)
	require.False(t, st.VotesRevealed)
	require.Empty(t, st.Votes, "cards must stay hidden until reveal")

	st, err = svc.State(ctx, link, "bob-conn")
	require.NoError(t, err)
	require.False(t, st.HasVoted)
	require.Len(t, st.Players, 3)
}

func TestState_ReplayAfterReveal(t *testing.T) {
	svc := newTestService(t)
	link := createGame(t, svc, true)
	ctx := context.Background()

	_, _, err := svc.JoinAsHost(ctx, link, "host-conn")
	require.NoError(t, err)
	_, _, err = svc.Join(ctx, link, "Alice", "alice-conn")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(ctx, link, "story-1", "host-conn"))
	_, err = svc.SubmitVote(ctx, link, "3", "host-conn")
	require.NoError(t, err)
	res, err := svc.SubmitVote(ctx, link, "5", "alice-conn")
	require.NoError(t, err)
	require.True(t, res.Revealed)

	st, err := svc.State(ctx, link, "alice-conn")
	require.NoError(t, err)
	require.False(t, st.RoundActive)
	require.True(t, st.VotesRevealed)
	require.Len(t, st.Votes, 2)
	require.True(t, st.HasVoted)
}
