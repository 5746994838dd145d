package service

import (
	"context"

	"wordflash/internal/domain"
	"wordflash/internal/repository"

	"go.uber.org/zap"
)

// Summary is the learning progress overview
type Summary struct {
	Levels    map[domain.RepeatType]int
	Total     int
	Favorites int
}

// StatsService handles learning statistics
type StatsService struct {
	learningRepo repository.LearningInfoRepository
	logger       *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(learningRepo repository.LearningInfoRepository, logger *zap.Logger) *StatsService {
	return &StatsService{
		learningRepo: learningRepo,
		logger:       logger,
	}
}

// Summary returns entry counts per ladder level
func (s *StatsService) Summary(ctx context.Context) (*Summary, error) {
	levels, err := s.learningRepo.CountByRepeatType(ctx)
	if err != nil {
		s.logger.Error("Failed to count learning levels", zap.Error(err))
		return nil, err
	}

	favorites, err := s.learningRepo.CountFavorites(ctx)
	if err != nil {
		s.logger.Error("Failed to count favorites", zap.Error(err))
		return nil, err
	}

	summary := &Summary{
		Levels:    make(map[domain.RepeatType]int, len(levels)),
		Favorites: favorites,
	}
	for rt, n := range levels {
		// Out of range values are counted at the nearest level
		summary.Levels[rt.Clamp()] += n
		summary.Total += n
	}
	return summary, nil
}
