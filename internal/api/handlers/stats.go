package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jobdesk/internal/services"
	"jobdesk/pkg/utils"
)

// StatsHandler отдает суточные срезы показателей
type StatsHandler struct {
	stats  *services.StatsService
	logger *zap.Logger
}

// NewStatsHandler создает новый StatsHandler
func NewStatsHandler(stats *services.StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: logger,
	}
}

// Routes маршруты статистики
func (h *StatsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/overview", h.Overview)
	return r
}

// Overview последний срез показателей платформы
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Overview(r.Context())
	if err != nil {
		h.logger.Error("Stats overview failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	utils.WriteSuccess(w, overview)
}
