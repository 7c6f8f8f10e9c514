// Package game holds the coordination logic for a planning poker session:
// membership, round lifecycle and vote aggregation. All methods load the game
// aggregate from the store, mutate it through the store, and report what the
// caller should broadcast. Serialization of commands for one session is the
// room's job; the service itself is stateless.
package game

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/store"
)

var ErrGameNotFound = errors.New("game not found")
var ErrGameFull = errors.New("game is full")
var ErrUnauthorized = errors.New("not authorized")
var ErrNoActiveRound = errors.New("no active round to vote on")
var ErrPlayerNotInGame = errors.New("player not found in game")

// HostName is the reserved display name for the host seat. Reconnecting
// under this name via JoinAsHost reclaims host authority.
const HostName = "Host"

type Service struct {
	store store.Store
	log   *zap.Logger
}

func NewService(st store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log}
}

type PlayerInfo struct {
	Name string `json:"name"`
}

type VoteInfo struct {
	PlayerName string `json:"playerName"`
	Card       string `json:"card"`
}

type GameInfo struct {
	Link        string       `json:"link"`
	Name        string       `json:"name"`
	HostIsVoter bool         `json:"hostIsVoter"`
	RoundActive bool         `json:"roundActive"`
	RoundName   string       `json:"roundName,omitempty"`
	Players     []PlayerInfo `json:"players"`
}

// GameState is the replay payload for a client that just (re)connected. Votes
// are included only once revealed so card values stay hidden mid-round.
type GameState struct {
	RoundActive   bool         `json:"roundActive"`
	RoundName     string       `json:"roundName,omitempty"`
	HasVoted      bool         `json:"hasVoted"`
	VotesRevealed bool         `json:"votesRevealed"`
	Votes         []VoteInfo   `json:"votes"`
	Players       []PlayerInfo `json:"players"`
}

func (s *Service) CreateGame(ctx context.Context, name string, hostIsVoter bool) (*store.Game, error) {
	g := &store.Game{
		Link:        newGameLink(),
		Name:        name,
		HostIsVoter: hostIsVoter,
	}
	if err := s.store.CreateGame(ctx, g); err != nil {
		return nil, err
	}
	s.log.Info("game created", zap.String("link", g.Link), zap.Bool("hostIsVoter", hostIsVoter))
	return g, nil
}

func (s *Service) GameInfo(ctx context.Context, link string) (GameInfo, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return GameInfo{}, err
	}
	return GameInfo{
		Link:        g.Link,
		Name:        g.Name,
		HostIsVoter: g.HostIsVoter,
		RoundActive: g.RoundActive,
		RoundName:   g.RoundName,
		Players:     playerInfos(g),
	}, nil
}

// State rebuilds the view a reconnecting client needs from current session
// state alone. Votes count as revealed once a round has ended with at least
// one vote still recorded.
func (s *Service) State(ctx context.Context, link, connectionID string) (GameState, error) {
	g, err := s.loadGame(ctx, link)
	if err != nil {
		return GameState{}, err
	}

	st := GameState{
		RoundActive: g.RoundActive,
		RoundName:   g.RoundName,
		Players:     playerInfos(g),
		Votes:       []VoteInfo{},
	}
	if p := findByConnection(g, connectionID); p != nil {
		st.HasVoted = hasVote(g, p.ID)
	}
	if !g.RoundActive && len(g.Votes) > 0 {
		st.VotesRevealed = true
		st.Votes = voteInfos(g)
	}
	return st, nil
}

func (s *Service) loadGame(ctx context.Context, link string) (*store.Game, error) {
	g, err := s.store.GameByLink(ctx, link)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// capacity bounds voting seats, not raw membership: a non-voting host keeps
// authority but does not occupy a seat.
func capacity(g *store.Game) int {
	if g.HostIsVoter {
		return 10
	}
	return 9
}

// votingMembers counts the members that the "all voted" rule waits on. The
// host is counted only when the game was created with a voting host.
func votingMembers(g *store.Game) int {
	n := 0
	for _, p := range g.Players {
		if p.IsHost && !g.HostIsVoter {
			continue
		}
		n++
	}
	return n
}

// votingVotes counts the votes cast by voting members. A non-voting host may
// still submit a card; it is shown at reveal but must never stand in for a
// voting member's vote in the completion check.
func votingVotes(g *store.Game) int {
	voters := make(map[uint]bool, len(g.Players))
	for _, p := range g.Players {
		if p.IsHost && !g.HostIsVoter {
			continue
		}
		voters[p.ID] = true
	}
	n := 0
	for _, v := range g.Votes {
		if voters[v.PlayerID] {
			n++
		}
	}
	return n
}

func findByName(g *store.Game, name string) *store.Player {
	for i := range g.Players {
		if g.Players[i].Name == name {
			return &g.Players[i]
		}
	}
	return nil
}

func findByConnection(g *store.Game, connectionID string) *store.Player {
	for i := range g.Players {
		if g.Players[i].ConnectionID == connectionID {
			return &g.Players[i]
		}
	}
	return nil
}

func findHost(g *store.Game) *store.Player {
	for i := range g.Players {
		if g.Players[i].IsHost {
			return &g.Players[i]
		}
	}
	return nil
}

func hasVote(g *store.Game, playerID uint) bool {
	for _, v := range g.Votes {
		if v.PlayerID == playerID {
			return true
		}
	}
	return false
}

func playerInfos(g *store.Game) []PlayerInfo {
	players := make([]PlayerInfo, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, PlayerInfo{Name: p.Name})
	}
	return players
}

func voteInfos(g *store.Game) []VoteInfo {
	names := make(map[uint]string, len(g.Players))
	for _, p := range g.Players {
		names[p.ID] = p.Name
	}
	votes := make([]VoteInfo, 0, len(g.Votes))
	for _, v := range g.Votes {
		votes = append(votes, VoteInfo{PlayerName: names[v.PlayerID], Card: v.Card})
	}
	return votes
}

// newGameLink returns an unguessable session link, a uuid with the hyphens
// stripped.
func newGameLink() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
