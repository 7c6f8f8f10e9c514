package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a game lookup by link matches nothing.
var ErrNotFound = errors.New("record not found")

type Game struct {
	ID          uint   `gorm:"primaryKey"`
	Link        string `gorm:"uniqueIndex;size:64"`
	Name        string
	HostIsVoter bool
	RoundActive bool
	RoundName   string

	Players []Player `gorm:"constraint:OnDelete:CASCADE"`
	Votes   []Vote   `gorm:"constraint:OnDelete:CASCADE"`
}

type Player struct {
	ID           uint `gorm:"primaryKey"`
	GameID       uint `gorm:"index"`
	ConnectionID string
	Name         string
	IsHost       bool
}

type Vote struct {
	ID       uint `gorm:"primaryKey"`
	GameID   uint `gorm:"index"`
	PlayerID uint `gorm:"index"`
	Card     string
}

// Store is the persistence boundary for games, players and votes. All
// mutations are game-scoped; GameByLink returns the full aggregate with
// players in join order and the current round's votes.
type Store interface {
	CreateGame(ctx context.Context, g *Game) error
	GameByLink(ctx context.Context, link string) (*Game, error)

	// SetRound updates the round flags without touching players or votes.
	SetRound(ctx context.Context, gameID uint, active bool, roundName string) error

	// SavePlayer creates the player when ID is zero, updates it otherwise.
	SavePlayer(ctx context.Context, p *Player) error
	DeletePlayer(ctx context.Context, gameID uint, playerID uint) error

	// SaveVote creates the vote when ID is zero, updates it otherwise.
	SaveVote(ctx context.Context, v *Vote) error
	DeleteVoteForPlayer(ctx context.Context, gameID uint, playerID uint) error

	// ResetRound clears the game's votes and updates the round flags as one
	// atomic step. A failure leaves both untouched.
	ResetRound(ctx context.Context, gameID uint, active bool, roundName string) error
}
