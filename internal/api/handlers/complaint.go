package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jobdesk/internal/api/middleware"
	"jobdesk/internal/models"
	"jobdesk/internal/services"
	"jobdesk/internal/storage"
	"jobdesk/pkg/apperr"
	"jobdesk/pkg/utils"
)

// ComplaintHandler обработчик жалоб
type ComplaintHandler struct {
	db     *storage.Database
	roles  *services.RoleService
	auth   *middleware.Auth
	logger *zap.Logger
}

// NewComplaintHandler создает новый ComplaintHandler
func NewComplaintHandler(db *storage.Database, roles *services.RoleService, auth *middleware.Auth, logger *zap.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		db:     db,
		roles:  roles,
		auth:   auth,
		logger: logger,
	}
}

// Routes маршруты жалоб
func (h *ComplaintHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.auth.Middleware)

	r.Get("/reasons", h.ListReasons)
	r.Post("/", h.Create)

	// Разбор жалоб доступен только модераторам
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.UpdateStatus)
	r.Delete("/{id}", h.Delete)

	return r
}

// requireModerator проверяет роль Moderator у текущего пользователя
func (h *ComplaintHandler) requireModerator(r *http.Request) error {
	userID := middleware.GetUserIDFromContext(r.Context())

	isModerator, err := h.roles.HasRole(r.Context(), userID, "Moderator")
	if err != nil {
		return err
	}
	if !isModerator {
		return apperr.New(apperr.Forbidden, "moderator role required")
	}
	return nil
}

// ListReasons каталог причин жалоб
func (h *ComplaintHandler) ListReasons(w http.ResponseWriter, r *http.Request) {
	reasons, err := h.db.GetComplaintReasons(r.Context())
	if err != nil {
		h.logger.Error("Complaint reasons lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load reasons")
		return
	}
	if reasons == nil {
		reasons = []models.ComplaintReason{}
	}

	utils.WriteSuccess(w, reasons)
}

// ComplaintRequest тело создания жалобы
type ComplaintRequest struct {
	Complied    int64   `json:"complied"`
	Reason      int64   `json:"reason"`
	TargetType  string  `json:"target_type"`
	TargetPK    int64   `json:"target_pk"`
	Description *string `json:"description"`
	Screenshot  *string `json:"screenshot"`
}

// Create создает жалобу от текущего пользователя
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req ComplaintRequest
	if err := utils.BindJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TargetType != models.ComplaintTargetProfile && req.TargetType != models.ComplaintTargetVacancy {
		utils.WriteError(w, http.StatusBadRequest, "Target type must be Profile or Vacancy")
		return
	}

	reason, err := h.db.GetComplaintReasonByID(r.Context(), req.Reason)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create complaint")
		return
	}
	if reason == nil {
		utils.WriteError(w, http.StatusNotFound, "Unknown complaint reason")
		return
	}

	complaint := &models.Complaint{
		ComplierID:  userID,
		CompliedID:  req.Complied,
		ReasonID:    req.Reason,
		TargetType:  req.TargetType,
		TargetPK:    req.TargetPK,
		Status:      models.ComplaintPending,
		Description: req.Description,
		Screenshot:  req.Screenshot,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.db.CreateComplaint(r.Context(), complaint); err != nil {
		h.logger.Error("Complaint create failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create complaint")
		return
	}

	utils.WriteCreated(w, complaint)
}

// List жалобы для разбора, опционально по статусу
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.requireModerator(r); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	status := utils.GetQueryParam(r, "status", "")
	complaints, err := h.db.GetComplaints(r.Context(), status)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load complaints")
		return
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}

	utils.WriteSuccess(w, complaints)
}

// Get детали жалобы
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := h.requireModerator(r); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid complaint id")
		return
	}

	complaint, err := h.db.GetComplaintByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load complaint")
		return
	}
	if complaint == nil {
		utils.WriteError(w, http.StatusNotFound, "Complaint not found")
		return
	}

	utils.WriteSuccess(w, complaint)
}

// UpdateComplaintRequest тело смены статуса жалобы
type UpdateComplaintRequest struct {
	Status string `json:"status"`
}

// UpdateStatus меняет статус жалобы
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if err := h.requireModerator(r); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid complaint id")
		return
	}

	var req UpdateComplaintRequest
	if err := utils.BindJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Status {
	case models.ComplaintPending, models.ComplaintResolved, models.ComplaintClosed:
	default:
		utils.WriteError(w, http.StatusBadRequest, "Unknown complaint status")
		return
	}

	if err := h.db.UpdateComplaintStatus(r.Context(), id, req.Status); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteMessage(w, "Complaint updated")
}

// Delete удаляет жалобу
func (h *ComplaintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.requireModerator(r); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid complaint id")
		return
	}

	if err := h.db.DeleteComplaint(r.Context(), id); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete complaint")
		return
	}

	utils.WriteMessage(w, "Complaint deleted")
}
