package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps games in process memory. It backs tests and local
// development when no database is configured. Returned games are copies so
// callers cannot mutate stored state without going through the Store API.
type MemoryStore struct {
	mu     sync.RWMutex
	games  map[string]*Game // keyed by link
	nextID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]*Game)}
}

func (s *MemoryStore) CreateGame(ctx context.Context, g *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.allocID()
	s.games[g.Link] = copyGame(g)
	return nil
}

func (s *MemoryStore) GameByLink(ctx context.Context, link string) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[link]
	if !ok {
		return nil, ErrNotFound
	}
	return copyGame(g), nil
}

func (s *MemoryStore) SetRound(ctx context.Context, gameID uint, active bool, roundName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.byID(gameID); g != nil {
		g.RoundActive = active
		g.RoundName = roundName
	}
	return nil
}

func (s *MemoryStore) SavePlayer(ctx context.Context, p *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.byID(p.GameID)
	if g == nil {
		return nil
	}
	if p.ID == 0 {
		p.ID = s.allocID()
		g.Players = append(g.Players, *p)
		return nil
	}
	for i := range g.Players {
		if g.Players[i].ID == p.ID {
			g.Players[i] = *p
			break
		}
	}
	return nil
}

func (s *MemoryStore) DeletePlayer(ctx context.Context, gameID uint, playerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.byID(gameID); g != nil {
		g.Players = slices.DeleteFunc(g.Players, func(p Player) bool { return p.ID == playerID })
	}
	return nil
}

func (s *MemoryStore) SaveVote(ctx context.Context, v *Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.byID(v.GameID)
	if g == nil {
		return nil
	}
	if v.ID == 0 {
		v.ID = s.allocID()
		g.Votes = append(g.Votes, *v)
		return nil
	}
	for i := range g.Votes {
		if g.Votes[i].ID == v.ID {
			g.Votes[i] = *v
			break
		}
	}
	return nil
}

func (s *MemoryStore) DeleteVoteForPlayer(ctx context.Context, gameID uint, playerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.byID(gameID); g != nil {
		g.Votes = slices.DeleteFunc(g.Votes, func(v Vote) bool { return v.PlayerID == playerID })
	}
	return nil
}

func (s *MemoryStore) ResetRound(ctx context.Context, gameID uint, active bool, roundName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.byID(gameID); g != nil {
		g.Votes = nil
		g.RoundActive = active
		g.RoundName = roundName
	}
	return nil
}

// allocID hands out ids from a single sequence across entity kinds, which is
// enough to make (game, player, vote) ids unique. Callers hold s.mu.
func (s *MemoryStore) allocID() uint {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) byID(gameID uint) *Game {
	for _, g := range s.games {
		if g.ID == gameID {
			return g
		}
	}
	return nil
}

func copyGame(g *Game) *Game {
	cp := *g
	cp.Players = slices.Clone(g.Players)
	cp.Votes = slices.Clone(g.Votes)
	return &cp
}
