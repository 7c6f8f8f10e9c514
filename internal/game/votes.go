package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/store"
)

// VoteResult tells the caller what to broadcast after a vote: the voter's
// name always, and the full vote list when this vote completed the round.
type VoteResult struct {
	PlayerName string
	Revealed   bool
	Votes      []VoteInfo
}

// SubmitVote records the card for the voting member behind connectionID.
// Resubmitting overwrites the previous card. When the last voting member's
// vote lands, the round is ended and the collected votes are returned for the
// reveal broadcast. The completion check runs against a fresh read of the
// aggregate, after the vote is persisted.
func (s *Service) SubmitVote(ctx context.Context, link, card, connectionID string) (VoteResult, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return VoteResult{}, err
	}
	if !g.RoundActive {
		return VoteResult{}, ErrNoActiveRound
	}

	p := findByConnection(g, connectionID)
	if p == nil {
		return VoteResult{}, ErrPlayerNotInGame
	}

	vote := &store.Vote{GameID: g.ID, PlayerID: p.ID, Card: card}
	for _, v := range g.Votes {
		if v.PlayerID == p.ID {
			vote.ID = v.ID
			break
		}
	}
	if err := s.store.SaveVote(ctx, vote); err != nil {
		return VoteResult{}, err
	}
	s.log.Debug("vote submitted", zap.String("link", link), zap.String("player", p.Name))

	res := VoteResult{PlayerName: p.Name}

	// The vote is persisted from here on. Failures in the completion check
	// must not suppress the voter broadcast; the host can still end the
	// round manually.
	g, err = s.loadGame(ctx, link)
	if err != nil {
		s.log.Error("completion check skipped", zap.String("link", link), zap.Error(err))
		return res, nil
	}
	if voters := votingMembers(g); g.RoundActive && voters > 0 && votingVotes(g) >= voters {
		votes, err := s.autoReveal(ctx, g)
		if err != nil {
			s.log.Error("auto-reveal failed", zap.String("link", link), zap.Error(err))
			return res, nil
		}
		res.Revealed = true
		res.Votes = votes
	}
	return res, nil
}

// Votes lists the current round's votes with player names resolved.
func (s *Service) Votes(ctx context.Context, link string) ([]VoteInfo, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return nil, err
	}
	return voteInfos(g), nil
}

// HasVoted reports whether the member behind connectionID has a vote recorded
// for the current round.
func (s *Service) HasVoted(ctx context.Context, link, connectionID string) (bool, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return false, err
	}
	p := findByConnection(g, connectionID)
	if p == nil {
		return false, ErrPlayerNotInGame
	}
	return hasVote(g, p.ID), nil
}
