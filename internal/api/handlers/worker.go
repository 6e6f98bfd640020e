package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jobdesk/internal/api/middleware"
	"jobdesk/internal/models"
	"jobdesk/internal/services"
	"jobdesk/internal/storage"
	"jobdesk/pkg/utils"
)

// WorkerHandler обработчик анкет работников
type WorkerHandler struct {
	db        *storage.Database
	roles     *services.RoleService
	relevance *services.RelevanceService
	auth      *middleware.Auth
	logger    *zap.Logger
}

// NewWorkerHandler создает новый WorkerHandler
func NewWorkerHandler(db *storage.Database, roles *services.RoleService, relevance *services.RelevanceService, auth *middleware.Auth, logger *zap.Logger) *WorkerHandler {
	return &WorkerHandler{
		db:        db,
		roles:     roles,
		relevance: relevance,
		auth:      auth,
		logger:    logger,
	}
}

// Routes маршруты анкет работников
func (h *WorkerHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.auth.Middleware)

	r.Get("/", h.List)

	r.Get("/my/requirements", h.ListRequirementBindings)
	r.Post("/my/requirements", h.AddRequirementBinding)
	r.Delete("/my/requirements/{id}", h.DeleteRequirementBinding)

	r.Get("/my/skills", h.ListSkillBindings)
	r.Post("/my/skills", h.AddSkillBinding)
	r.Delete("/my/skills/{id}", h.DeleteSkillBinding)

	r.Get("/my/responses", h.ListOwnResponses)

	r.Get("/{id}", h.Get)

	return r
}

// List анкеты работников по фильтру. Если указана вакансия текущего HR,
// каждая анкета дополняется релевантностью к ней.
func (h *WorkerHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter models.WorkerFilter

	var err error
	if filter.Requirements, err = parseIDList(r, "requirements"); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid requirements filter")
		return
	}
	if filter.Skills, err = parseIDList(r, "skills"); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid skills filter")
		return
	}
	if filter.Options, err = parseIDList(r, "options"); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid options filter")
		return
	}

	workers, err := h.db.ListWorkers(r.Context(), filter)
	if err != nil {
		h.logger.Error("Worker list failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load workers")
		return
	}
	if workers == nil {
		workers = []models.WorkerListItem{}
	}

	vacancyID := int64(utils.GetQueryInt(r, "vacancy", 0))
	if vacancyID != 0 {
		workers, err = h.relevance.AnnotateWorkers(r.Context(), vacancyID, workers)
		if err != nil {
			h.logger.Error("Relevance annotation failed", zap.Error(err))
			utils.WriteError(w, http.StatusInternalServerError, "Failed to load workers")
			return
		}
	}

	utils.WriteSuccess(w, workers)
}

// Get анкета работника с привязками
func (h *WorkerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid worker id")
		return
	}

	worker, err := h.db.GetWorkerExtrasByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load worker")
		return
	}
	if worker == nil {
		utils.WriteError(w, http.StatusNotFound, "Worker not found")
		return
	}

	requirements, err := h.db.GetWorkerRequirements(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load worker")
		return
	}

	skills, err := h.db.GetWorkerSkills(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load worker")
		return
	}

	utils.WriteSuccess(w, map[string]interface{}{
		"requirements": answersOf(requirements),
		"skills":       skills,
	})
}

// AddRequirementBinding привязывает требование к анкете текущего работника
func (h *WorkerHandler) AddRequirementBinding(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	var req BindingRequest
	if err := utils.BindJSON(r, &req); err != nil || req.Requirement == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Requirement id is required")
		return
	}

	requirement, err := h.db.GetRequirementByID(r.Context(), req.Requirement)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to add requirement")
		return
	}
	if requirement == nil {
		utils.WriteError(w, http.StatusNotFound, "Requirement not found")
		return
	}
	if requirement.AppliesTo == models.RequirementVacancy {
		utils.WriteError(w, http.StatusBadRequest, "Requirement is not applicable to workers")
		return
	}

	bindingID, err := h.db.AddWorkerRequirement(r.Context(), worker.ID, req.Requirement, req.Options, req.CustomAnswer)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteCreated(w, map[string]int64{"pk": bindingID})
}

// ListRequirementBindings привязки требований текущего работника с ответами
func (h *WorkerHandler) ListRequirementBindings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	bindings, err := h.db.GetWorkerRequirements(r.Context(), worker.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load requirements")
		return
	}

	utils.WriteSuccess(w, answersOf(bindings))
}

// DeleteRequirementBinding удаляет привязку требования текущего работника
func (h *WorkerHandler) DeleteRequirementBinding(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	bindingID, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid binding id")
		return
	}

	ownerID, err := h.db.GetWorkerRequirementOwner(r.Context(), bindingID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if ownerID != worker.ID {
		utils.WriteError(w, http.StatusForbidden, "Binding belongs to another worker")
		return
	}

	if err := h.db.DeleteWorkerRequirement(r.Context(), bindingID); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	utils.WriteMessage(w, "Binding deleted")
}

// AddSkillBinding привязывает навык к анкете текущего работника
func (h *WorkerHandler) AddSkillBinding(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	var req SkillBindingRequest
	if err := utils.BindJSON(r, &req); err != nil || req.Skill == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Skill id is required")
		return
	}
	if req.ExperienceLevel != nil && !models.ValidExperienceLevel(*req.ExperienceLevel) {
		utils.WriteError(w, http.StatusBadRequest, "Unknown experience level")
		return
	}

	skill, err := h.db.GetSkillByID(r.Context(), req.Skill)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to add skill")
		return
	}
	if skill == nil {
		utils.WriteError(w, http.StatusNotFound, "Skill not found")
		return
	}

	bindingID, err := h.db.AddWorkerSkill(r.Context(), worker.ID, req.Skill,
		req.ExperienceLevel, req.ExperienceDuration, req.Description)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to add skill")
		return
	}

	utils.WriteCreated(w, map[string]int64{"pk": bindingID})
}

// ListSkillBindings навыки текущего работника
func (h *WorkerHandler) ListSkillBindings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	skills, err := h.db.GetWorkerSkills(r.Context(), worker.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load skills")
		return
	}
	if skills == nil {
		skills = []models.SkillBinding{}
	}

	utils.WriteSuccess(w, skills)
}

// DeleteSkillBinding удаляет привязку навыка текущего работника
func (h *WorkerHandler) DeleteSkillBinding(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	bindingID, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid binding id")
		return
	}

	ownerID, err := h.db.GetWorkerSkillOwner(r.Context(), bindingID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	if ownerID != worker.ID {
		utils.WriteError(w, http.StatusForbidden, "Binding belongs to another worker")
		return
	}

	if err := h.db.DeleteWorkerSkill(r.Context(), bindingID); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	utils.WriteMessage(w, "Binding deleted")
}

// ListOwnResponses отклики текущего работника
func (h *WorkerHandler) ListOwnResponses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	responses, err := h.db.GetResponsesByWorker(r.Context(), worker.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load responses")
		return
	}
	if responses == nil {
		responses = []models.VacancyResponse{}
	}

	utils.WriteSuccess(w, responses)
}
