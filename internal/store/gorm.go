package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore persists games in Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&Game{}, &Player{}, &Vote{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateGame(ctx context.Context, g *Game) error {
	if err := s.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

func (s *GormStore) GameByLink(ctx context.Context, link string) (*Game, error) {
	var g Game
	err := s.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Votes").
		First(&g, "link = ?", link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	return &g, nil
}

func (s *GormStore) SetRound(ctx context.Context, gameID uint, active bool, roundName string) error {
	err := s.db.WithContext(ctx).Model(&Game{}).Where("id = ?", gameID).
		Updates(map[string]any{"round_active": active, "round_name": roundName}).Error
	if err != nil {
		return fmt.Errorf("set round: %w", err)
	}
	return nil
}

func (s *GormStore) SavePlayer(ctx context.Context, p *Player) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

func (s *GormStore) DeletePlayer(ctx context.Context, gameID uint, playerID uint) error {
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND id = ?", gameID, playerID).
		Delete(&Player{}).Error
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return nil
}

func (s *GormStore) SaveVote(ctx context.Context, v *Vote) error {
	if err := s.db.WithContext(ctx).Save(v).Error; err != nil {
		return fmt.Errorf("save vote: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteVoteForPlayer(ctx context.Context, gameID uint, playerID uint) error {
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND player_id = ?", gameID, playerID).
		Delete(&Vote{}).Error
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	return nil
}

func (s *GormStore) ResetRound(ctx context.Context, gameID uint, active bool, roundName string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", gameID).Delete(&Vote{}).Error; err != nil {
			return err
		}
		return tx.Model(&Game{}).Where("id = ?", gameID).
			Updates(map[string]any{"round_active": active, "round_name": roundName}).Error
	})
	if err != nil {
		return fmt.Errorf("reset round: %w", err)
	}
	return nil
}
