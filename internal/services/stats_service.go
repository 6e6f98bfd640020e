package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobdesk/internal/storage"
)

const statsOverviewKey = "stats:overview"

// StatsOverview суточный срез показателей платформы
type StatsOverview struct {
	Vacancies         int            `json:"vacancies"`
	ResponsesByStatus map[string]int `json:"responses_by_status"`
	Chats             int            `json:"chats"`
	CollectedAt       time.Time      `json:"collected_at"`
}

// StatsService собирает суточные срезы показателей по расписанию и кеширует
// их в Redis
type StatsService struct {
	db     *storage.Database
	redis  *storage.RedisClient
	logger *zap.Logger
	cron   *cron.Cron
}

// NewStatsService создает StatsService
func NewStatsService(db *storage.Database, redisClient *storage.RedisClient, logger *zap.Logger) *StatsService {
	return &StatsService{
		db:     db,
		redis:  redisClient,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start запускает планировщик со сбором среза раз в сутки
func (s *StatsService) Start() error {
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.Snapshot(ctx); err != nil {
			s.logger.Error("Stats snapshot failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Stats scheduler started")
	return nil
}

// Stop останавливает планировщик и дожидается завершения задач
func (s *StatsService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Stats scheduler stopped")
}

// Snapshot собирает срез показателей и сохраняет его в Redis
func (s *StatsService) Snapshot(ctx context.Context) error {
	vacancies, err := s.db.CountVisibleVacancies(ctx)
	if err != nil {
		return err
	}

	responses, err := s.db.CountResponsesByStatus(ctx)
	if err != nil {
		return err
	}

	chats, err := s.db.CountChats(ctx)
	if err != nil {
		return err
	}

	overview := StatsOverview{
		Vacancies:         vacancies,
		ResponsesByStatus: responses,
		Chats:             chats,
		CollectedAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(overview)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, statsOverviewKey, string(payload)); err != nil {
		return err
	}

	s.logger.Info("Stats snapshot stored",
		zap.Int("vacancies", vacancies),
		zap.Int("chats", chats))

	return nil
}

// Overview возвращает последний срез. Если среза еще нет, собирает его
// на месте.
func (s *StatsService) Overview(ctx context.Context) (*StatsOverview, error) {
	raw, err := s.redis.Get(ctx, statsOverviewKey)
	if err == redis.Nil || (err == nil && raw == "") {
		if err := s.Snapshot(ctx); err != nil {
			return nil, err
		}
		raw, err = s.redis.Get(ctx, statsOverviewKey)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	var overview StatsOverview
	if err := json.Unmarshal([]byte(raw), &overview); err != nil {
		return nil, err
	}

	return &overview, nil
}
