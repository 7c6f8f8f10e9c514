package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/store"
)

// Join adds a player to the game, or reconnects an existing one. The display
// name is the reconnection key: a join under a name already present in the
// session takes over that seat's connection instead of adding a member.
// Returns the player and the player list to broadcast.
func (s *Service) Join(ctx context.Context, link, playerName, connectionID string) (*store.Player, []PlayerInfo, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return nil, nil, err
	}

	if existing := findByName(g, playerName); existing != nil {
		existing.ConnectionID = connectionID
		if err := s.store.SavePlayer(ctx, existing); err != nil {
			return nil, nil, err
		}
		s.log.Debug("player reconnected", zap.String("link", link), zap.String("player", playerName))
		return existing, playerInfos(g), nil
	}

	if votingMembers(g) >= capacity(g) {
		return nil, nil, ErrGameFull
	}

	p := &store.Player{
		GameID:       g.ID,
		ConnectionID: connectionID,
		Name:         playerName,
	}
	if err := s.store.SavePlayer(ctx, p); err != nil {
		return nil, nil, err
	}
	g.Players = append(g.Players, *p)
	s.log.Debug("player joined", zap.String("link", link), zap.String("player", playerName))
	return p, playerInfos(g), nil
}

// JoinAsHost creates or reconnects the single host seat. There is no host
// token: authority belongs to whichever connection currently holds the seat.
// The host seat is never capacity-checked.
func (s *Service) JoinAsHost(ctx context.Context, link, connectionID string) (*store.Player, []PlayerInfo, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return nil, nil, err
	}

	if host := findHost(g); host != nil {
		host.ConnectionID = connectionID
		if err := s.store.SavePlayer(ctx, host); err != nil {
			return nil, nil, err
		}
		s.log.Debug("host reconnected", zap.String("link", link))
		return host, playerInfos(g), nil
	}

	p := &store.Player{
		GameID:       g.ID,
		ConnectionID: connectionID,
		Name:         HostName,
		IsHost:       true,
	}
	if err := s.store.SavePlayer(ctx, p); err != nil {
		return nil, nil, err
	}
	g.Players = append(g.Players, *p)
	s.log.Debug("host joined", zap.String("link", link))
	return p, playerInfos(g), nil
}

// PlayerByConnection resolves a live connection to its seat in the session.
func (s *Service) PlayerByConnection(ctx context.Context, link, connectionID string) (*store.Player, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return nil, err
	}
	p := findByConnection(g, connectionID)
	if p == nil {
		return nil, ErrPlayerNotInGame
	}
	return p, nil
}

// RemovePlayer deletes the seat held by connectionID along with its vote for
// the current round. Removing an unknown connection is a no-op. The second
// return value reports whether a player was actually removed.
func (s *Service) RemovePlayer(ctx context.Context, link, connectionID string) ([]PlayerInfo, bool, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return nil, false, err
	}

	p := findByConnection(g, connectionID)
	if p == nil {
		return playerInfos(g), false, nil
	}

	// A member's vote does not outlive their seat.
	if err := s.store.DeleteVoteForPlayer(ctx, g.ID, p.ID); err != nil {
		return nil, false, err
	}
	if err := s.store.DeletePlayer(ctx, g.ID, p.ID); err != nil {
		return nil, false, err
	}
	s.log.Debug("player removed", zap.String("link", link), zap.String("player", p.Name))

	g, err = s.loadGame(ctx, link)
	if err != nil {
		return nil, false, err
	}
	return playerInfos(g), true, nil
}

// Players returns the session's members in join order.
func (s *Service) Players(ctx context.Context, link string) ([]PlayerInfo, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return nil, err
	}
	return playerInfos(g), nil
}
