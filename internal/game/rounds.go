package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/store"
)

// StartRound opens a new round: prior votes are cleared and the round name is
// set. Host only. Host identity is re-derived from the connection on every
// call so a reconnected host keeps authority.
func (s *Service) StartRound(ctx context.Context, link, roundName, connectionID string) error {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return err
	}
	if err := requireHost(g, connectionID); err != nil {
		return err
	}

	if err := s.store.ResetRound(ctx, g.ID, true, roundName); err != nil {
		return err
	}
	s.log.Info("round started", zap.String("link", link), zap.String("round", roundName))
	return nil
}

// EndRound closes the active round and returns the votes collected so far,
// ready to reveal. Votes are retained for display until the next round starts.
// Host only.
func (s *Service) EndRound(ctx context.Context, link, connectionID string) ([]VoteInfo, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return nil, err
	}
	if err := requireHost(g, connectionID); err != nil {
		return nil, err
	}

	if err := s.store.SetRound(ctx, g.ID, false, g.RoundName); err != nil {
		return nil, err
	}
	s.log.Info("round ended", zap.String("link", link), zap.Int("votes", len(g.Votes)))
	return voteInfos(g), nil
}

// ResetVotes clears all votes and deactivates the round without a reveal.
// Host only.
func (s *Service) ResetVotes(ctx context.Context, link, connectionID string) error {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return err
	}
	if err := requireHost(g, connectionID); err != nil {
		return err
	}

	if err := s.store.ResetRound(ctx, g.ID, false, g.RoundName); err != nil {
		return err
	}
	s.log.Info("votes reset", zap.String("link", link))
	return nil
}

// autoReveal ends the round without a host request. Called from the vote path
// once every voting member has voted.
func (s *Service) autoReveal(ctx context.Context, g *store.Game) ([]VoteInfo, error) {
	if err := s.store.SetRound(ctx, g.ID, false, g.RoundName); err != nil {
		return nil, err
	}
	s.log.Info("round auto-revealed", zap.String("link", g.Link), zap.Int("votes", len(g.Votes)))
	return voteInfos(g), nil
}

func requireHost(g *store.Game, connectionID string) error {
	p := findByConnection(g, connectionID)
	if p == nil || !p.IsHost {
		return ErrUnauthorized
	}
	return nil
}
