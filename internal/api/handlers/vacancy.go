package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jobdesk/internal/api/middleware"
	"jobdesk/internal/models"
	"jobdesk/internal/services"
	"jobdesk/internal/storage"
	"jobdesk/pkg/apperr"
	"jobdesk/pkg/utils"
)

// VacancyHandler обработчик вакансий, привязок, откликов и закладок
type VacancyHandler struct {
	db        *storage.Database
	roles     *services.RoleService
	relevance *services.RelevanceService
	chats     *services.ChatService
	auth      *middleware.Auth
	logger    *zap.Logger
}

// NewVacancyHandler создает новый VacancyHandler
func NewVacancyHandler(db *storage.Database, roles *services.RoleService, relevance *services.RelevanceService, chats *services.ChatService, auth *middleware.Auth, logger *zap.Logger) *VacancyHandler {
	return &VacancyHandler{
		db:        db,
		roles:     roles,
		relevance: relevance,
		chats:     chats,
		auth:      auth,
		logger:    logger,
	}
}

// Routes маршруты вакансий
func (h *VacancyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.auth.Middleware)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/my", h.ListOwn)

	r.Get("/saved", h.ListSaved)
	r.Delete("/saved/{id}", h.DeleteSaved)

	r.Delete("/requirements/{id}", h.DeleteRequirementBinding)
	r.Delete("/skills/{id}", h.DeleteSkillBinding)
	r.Delete("/quick_responses/{id}", h.DeleteQuickResponse)
	r.Patch("/responses/{id}", h.UpdateResponseStatus)
	r.Delete("/responses/{id}", h.DeleteResponse)

	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/save", h.Save)

	r.Get("/{id}/requirements", h.ListRequirementBindings)
	r.Post("/{id}/requirements", h.AddRequirementBinding)
	r.Get("/{id}/skills", h.ListSkillBindings)
	r.Post("/{id}/skills", h.AddSkillBinding)

	r.Get("/{id}/quick_responses", h.ListQuickResponses)
	r.Post("/{id}/quick_responses", h.AddQuickResponse)

	r.Post("/{id}/respond", h.Respond)
	r.Get("/{id}/responses", h.ListResponses)

	return r
}

// getVacancy получает вакансию или NotFound
func (h *VacancyHandler) getVacancy(r *http.Request) (*models.Vacancy, error) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid vacancy id")
	}

	vacancy, err := h.db.GetVacancyByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if vacancy == nil {
		return nil, apperr.New(apperr.NotFound, "vacancy does not exist")
	}

	return vacancy, nil
}

// requireOwner получает вакансию и проверяет, что она принадлежит
// HR-профилю текущего пользователя
func (h *VacancyHandler) requireOwner(r *http.Request) (*models.Vacancy, *models.HRExtras, error) {
	vacancy, err := h.getVacancy(r)
	if err != nil {
		return nil, nil, err
	}

	return h.checkOwner(r, vacancy)
}

func (h *VacancyHandler) checkOwner(r *http.Request, vacancy *models.Vacancy) (*models.Vacancy, *models.HRExtras, error) {
	userID := middleware.GetUserIDFromContext(r.Context())
	hr, err := h.roles.HRExtrasOf(r.Context(), userID)
	if err != nil {
		return nil, nil, err
	}
	if vacancy.HRID != hr.ID {
		return nil, nil, apperr.New(apperr.Forbidden, "vacancy belongs to another hr")
	}

	return vacancy, hr, nil
}

// List видимые вакансии по фильтру. Для работника каждая вакансия
// дополняется релевантностью к его профилю, порядок выдачи при этом
// не меняется.
func (h *VacancyHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.VacancyFilter{
		Title: utils.GetQueryParam(r, "title", ""),
		HR:    int64(utils.GetQueryInt(r, "hr", 0)),
	}

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

	vacancies, err := h.db.ListVacancies(r.Context(), filter)
	if err != nil {
		h.logger.Error("Vacancy list failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load vacancies")
		return
	}

	userID := middleware.GetUserIDFromContext(r.Context())
	worker, err := h.db.GetWorkerExtrasByUser(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load vacancies")
		return
	}

	if worker == nil {
		items := make([]models.VacancyListItem, 0, len(vacancies))
		for _, v := range vacancies {
			items = append(items, models.VacancyListItem{Vacancy: v})
		}
		utils.WriteSuccess(w, items)
		return
	}

	items, err := h.relevance.AnnotateVacancies(r.Context(), worker.ID, vacancies)
	if err != nil {
		h.logger.Error("Relevance annotation failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load vacancies")
		return
	}

	utils.WriteSuccess(w, items)
}

// VacancyRequest тело создания и обновления вакансии
type VacancyRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Visible     *bool   `json:"visible"`
}

// Create создает вакансию текущего HR
func (h *VacancyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	hr, err := h.roles.HRExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	var req VacancyRequest
	if err := utils.BindJSON(r, &req); err != nil || req.Title == nil || *req.Title == "" {
		utils.WriteError(w, http.StatusBadRequest, "Vacancy title is required")
		return
	}

	vacancy := &models.Vacancy{
		Title:       *req.Title,
		Description: req.Description,
		HRID:        hr.ID,
		Visible:     true,
	}
	if req.Visible != nil {
		vacancy.Visible = *req.Visible
	}

	if err := h.db.CreateVacancy(r.Context(), vacancy); err != nil {
		h.logger.Error("Vacancy create failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create vacancy")
		return
	}

	utils.WriteCreated(w, vacancy)
}

// ListOwn вакансии текущего HR, включая скрытые
func (h *VacancyHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	hr, err := h.roles.HRExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	vacancies, err := h.db.GetVacanciesByHR(r.Context(), hr.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load vacancies")
		return
	}
	if vacancies == nil {
		vacancies = []models.Vacancy{}
	}

	utils.WriteSuccess(w, vacancies)
}

// Get одна вакансия с привязками
func (h *VacancyHandler) Get(w http.ResponseWriter, r *http.Request) {
	vacancy, err := h.getVacancy(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	requirements, err := h.db.GetVacancyRequirements(r.Context(), vacancy.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load vacancy")
		return
	}

	skills, err := h.db.GetVacancySkills(r.Context(), vacancy.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load vacancy")
		return
	}

	utils.WriteSuccess(w, map[string]interface{}{
		"vacancy":      vacancy,
		"requirements": answersOf(requirements),
		"skills":       skills,
	})
}

// Update обновляет вакансию владельца
func (h *VacancyHandler) Update(w http.ResponseWriter, r *http.Request) {
	vacancy, _, err := h.requireOwner(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	var req VacancyRequest
	if err := utils.BindJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title != nil {
		vacancy.Title = *req.Title
	}
	if req.Description != nil {
		vacancy.Description = req.Description
	}
	if req.Visible != nil {
		vacancy.Visible = *req.Visible
	}

	if err := h.db.UpdateVacancy(r.Context(), vacancy); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update vacancy")
		return
	}

	utils.WriteSuccess(w, vacancy)
}

// Delete удаляет вакансию владельца
func (h *VacancyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vacancy, _, err := h.requireOwner(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	if err := h.db.DeleteVacancy(r.Context(), vacancy.ID); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete vacancy")
		return
	}

	utils.WriteMessage(w, "Vacancy deleted")
}

// BindingRequest тело привязки требования
type BindingRequest struct {
	Requirement  int64   `json:"requirement"`
	Options      []int64 `json:"options"`
	CustomAnswer *string `json:"custom_answer"`
}

// AddRequirementBinding привязывает требование к вакансии владельца
func (h *VacancyHandler) AddRequirementBinding(w http.ResponseWriter, r *http.Request) {
	vacancy, _, err := h.requireOwner(r)
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
	if requirement.AppliesTo == models.RequirementWorker {
		utils.WriteError(w, http.StatusBadRequest, "Requirement is not applicable to vacancies")
		return
	}

	bindingID, err := h.db.AddVacancyRequirement(r.Context(), vacancy.ID, req.Requirement, req.Options, req.CustomAnswer)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteCreated(w, map[string]int64{"pk": bindingID})
}

// ListRequirementBindings привязки требований вакансии с ответами
func (h *VacancyHandler) ListRequirementBindings(w http.ResponseWriter, r *http.Request) {
	vacancy, err := h.getVacancy(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	bindings, err := h.db.GetVacancyRequirements(r.Context(), vacancy.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load requirements")
		return
	}

	utils.WriteSuccess(w, answersOf(bindings))
}

// DeleteRequirementBinding удаляет привязку требования вакансии владельца
func (h *VacancyHandler) DeleteRequirementBinding(w http.ResponseWriter, r *http.Request) {
	bindingID, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid binding id")
		return
	}

	vacancyID, err := h.db.GetVacancyRequirementVacancy(r.Context(), bindingID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	if err := h.ownsVacancyID(r, vacancyID); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	if err := h.db.DeleteVacancyRequirement(r.Context(), bindingID); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	utils.WriteMessage(w, "Binding deleted")
}

// SkillBindingRequest тело привязки навыка
type SkillBindingRequest struct {
	Skill              int64   `json:"skill"`
	ExperienceLevel    *string `json:"experience_level"`
	ExperienceDuration *string `json:"experience_duration"`
	Description        *string `json:"description"`
	Relevance          int     `json:"relevance"`
}

// AddSkillBinding привязывает навык с весом к вакансии владельца
func (h *VacancyHandler) AddSkillBinding(w http.ResponseWriter, r *http.Request) {
	vacancy, _, err := h.requireOwner(r)
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

	bindingID, err := h.db.AddVacancySkill(r.Context(), vacancy.ID, req.Skill,
		req.ExperienceLevel, req.ExperienceDuration, req.Description, req.Relevance)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to add skill")
		return
	}

	utils.WriteCreated(w, map[string]int64{"pk": bindingID})
}

// ListSkillBindings навыки вакансии
func (h *VacancyHandler) ListSkillBindings(w http.ResponseWriter, r *http.Request) {
	vacancy, err := h.getVacancy(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	skills, err := h.db.GetVacancySkills(r.Context(), vacancy.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load skills")
		return
	}
	if skills == nil {
		skills = []models.SkillBinding{}
	}

	utils.WriteSuccess(w, skills)
}

// DeleteSkillBinding удаляет привязку навыка вакансии владельца
func (h *VacancyHandler) DeleteSkillBinding(w http.ResponseWriter, r *http.Request) {
	bindingID, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid binding id")
		return
	}

	vacancyID, err := h.db.GetVacancySkillVacancy(r.Context(), bindingID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	if err := h.ownsVacancyID(r, vacancyID); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	if err := h.db.DeleteVacancySkill(r.Context(), bindingID); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	utils.WriteMessage(w, "Binding deleted")
}

func (h *VacancyHandler) ownsVacancyID(r *http.Request, vacancyID int64) error {
	vacancy, err := h.db.GetVacancyByID(r.Context(), vacancyID)
	if err != nil {
		return err
	}
	if vacancy == nil {
		return apperr.New(apperr.NotFound, "vacancy does not exist")
	}

	_, _, err = h.checkOwner(r, vacancy)
	return err
}

// QuickResponseRequest тело заготовленного ответа
type QuickResponseRequest struct {
	Status string `json:"status"`
	Name   string `json:"name"`
	Text   string `json:"response_text"`
}

// AddQuickResponse создает заготовленный ответ вакансии владельца
func (h *VacancyHandler) AddQuickResponse(w http.ResponseWriter, r *http.Request) {
	vacancy, _, err := h.requireOwner(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	var req QuickResponseRequest
	if err := utils.BindJSON(r, &req); err != nil || req.Status == "" || req.Text == "" {
		utils.WriteError(w, http.StatusBadRequest, "Status and response text are required")
		return
	}

	status, err := h.db.GetResponseStatusByName(r.Context(), req.Status)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to add quick response")
		return
	}
	if status == nil {
		utils.WriteError(w, http.StatusNotFound, "Unknown response status")
		return
	}

	qr := &models.VacancyQuickResponse{
		VacancyID:  vacancy.ID,
		StatusID:   status.ID,
		StatusName: status.Name,
		Name:       req.Name,
		Text:       req.Text,
	}
	if err := h.db.CreateQuickResponse(r.Context(), qr); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to add quick response")
		return
	}

	utils.WriteCreated(w, qr)
}

// ListQuickResponses заготовленные ответы вакансии владельца
func (h *VacancyHandler) ListQuickResponses(w http.ResponseWriter, r *http.Request) {
	vacancy, _, err := h.requireOwner(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	items, err := h.db.GetQuickResponses(r.Context(), vacancy.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load quick responses")
		return
	}
	if items == nil {
		items = []models.VacancyQuickResponse{}
	}

	utils.WriteSuccess(w, items)
}

// DeleteQuickResponse удаляет заготовленный ответ вакансии владельца
func (h *VacancyHandler) DeleteQuickResponse(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid quick response id")
		return
	}

	qr, err := h.db.GetQuickResponseByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete quick response")
		return
	}
	if qr == nil {
		utils.WriteError(w, http.StatusNotFound, "Quick response not found")
		return
	}

	if err := h.ownsVacancyID(r, qr.VacancyID); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	if err := h.db.DeleteQuickResponse(r.Context(), id); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete quick response")
		return
	}

	utils.WriteMessage(w, "Quick response deleted")
}

// RespondResponse ответ на отклик: отклик и ключ чата с HR
type RespondResponse struct {
	Response *models.VacancyResponse `json:"response"`
	ChatKey  string                  `json:"chat_key"`
}

// Respond отклик текущего работника на вакансию. Создает отклик со статусом
// Created и чат с владельцем вакансии. Чат переиспользуется, если переписка
// между этими пользователями уже есть; повторный отклик дает Conflict и
// не создает дубликата чата.
func (h *VacancyHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	vacancy, err := h.getVacancy(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	status, err := h.db.GetResponseStatusByName(r.Context(), models.ResponseCreated)
	if err != nil || status == nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to respond")
		return
	}

	response, err := h.db.CreateResponse(r.Context(), worker.ID, vacancy.ID, status.ID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	response.StatusName = status.Name

	hrExtras, err := h.db.GetHRExtrasByID(r.Context(), vacancy.HRID)
	if err != nil || hrExtras == nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to respond")
		return
	}

	chat, _, err := h.chats.EnsureChat(r.Context(), userID, hrExtras.UserID, vacancy.Title, &vacancy.ID)
	if err != nil {
		h.logger.Error("Chat creation failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to respond")
		return
	}

	utils.WriteCreated(w, RespondResponse{Response: response, ChatKey: chat.ChatKey})
}

// ListResponses отклики на вакансию владельца
func (h *VacancyHandler) ListResponses(w http.ResponseWriter, r *http.Request) {
	vacancy, _, err := h.requireOwner(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	responses, err := h.db.GetResponsesByVacancy(r.Context(), vacancy.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load responses")
		return
	}
	if responses == nil {
		responses = []models.VacancyResponse{}
	}

	utils.WriteSuccess(w, responses)
}

// UpdateResponseStatusRequest тело смены статуса отклика
type UpdateResponseStatusRequest struct {
	Status string `json:"status"`
}

// UpdateResponseStatus меняет статус отклика. Доступно владельцу вакансии.
func (h *VacancyHandler) UpdateResponseStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid response id")
		return
	}

	response, err := h.db.GetResponseByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update response")
		return
	}
	if response == nil {
		utils.WriteError(w, http.StatusNotFound, "Response not found")
		return
	}

	if err := h.ownsVacancyID(r, response.VacancyID); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	var req UpdateResponseStatusRequest
	if err := utils.BindJSON(r, &req); err != nil || req.Status == "" {
		utils.WriteError(w, http.StatusBadRequest, "Status is required")
		return
	}

	status, err := h.db.GetResponseStatusByName(r.Context(), req.Status)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update response")
		return
	}
	if status == nil {
		utils.WriteError(w, http.StatusNotFound, "Unknown response status")
		return
	}

	if err := h.db.UpdateResponseStatus(r.Context(), id, status.ID); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	response.StatusID = status.ID
	response.StatusName = status.Name
	utils.WriteSuccess(w, response)
}

// DeleteResponse удаляет отклик. Доступно откликнувшемуся работнику и
// владельцу вакансии.
func (h *VacancyHandler) DeleteResponse(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid response id")
		return
	}

	response, err := h.db.GetResponseByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete response")
		return
	}
	if response == nil {
		utils.WriteError(w, http.StatusNotFound, "Response not found")
		return
	}

	userID := middleware.GetUserIDFromContext(r.Context())
	worker, err := h.db.GetWorkerExtrasByUser(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete response")
		return
	}

	if worker == nil || worker.ID != response.WorkerID {
		if err := h.ownsVacancyID(r, response.VacancyID); err != nil {
			utils.WriteAppError(w, err)
			return
		}
	}

	if err := h.db.DeleteResponse(r.Context(), id); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete response")
		return
	}

	utils.WriteMessage(w, "Response deleted")
}

// Save сохраняет вакансию в закладки работника
func (h *VacancyHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	vacancy, err := h.getVacancy(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	saved, err := h.db.SaveVacancy(r.Context(), worker.ID, vacancy.ID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteCreated(w, saved)
}

// ListSaved закладки текущего работника
func (h *VacancyHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	items, err := h.db.GetSavedVacancies(r.Context(), worker.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load saved vacancies")
		return
	}
	if items == nil {
		items = []models.SavedVacancy{}
	}

	utils.WriteSuccess(w, items)
}

// DeleteSaved удаляет закладку на вакансию
func (h *VacancyHandler) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid bookmark id")
		return
	}

	worker, err := h.roles.WorkerExtrasOf(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	saved, err := h.db.GetSavedVacancyByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete bookmark")
		return
	}
	if saved == nil {
		utils.WriteError(w, http.StatusNotFound, "Bookmark not found")
		return
	}
	if saved.OwnerID != worker.ID {
		utils.WriteError(w, http.StatusForbidden, "Bookmark belongs to another user")
		return
	}

	if err := h.db.DeleteSavedVacancy(r.Context(), id); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete bookmark")
		return
	}

	utils.WriteMessage(w, "Bookmark deleted")
}

// AnsweredBinding привязка требования вместе с классифицированным ответом
type AnsweredBinding struct {
	models.AnswerBinding
	Answer models.Answer `json:"answer"`
}

func answersOf(bindings []models.AnswerBinding) []AnsweredBinding {
	out := make([]AnsweredBinding, 0, len(bindings))
	for i := range bindings {
		out = append(out, AnsweredBinding{
			AnswerBinding: bindings[i],
			Answer:        bindings[i].Answer(),
		})
	}
	return out
}
