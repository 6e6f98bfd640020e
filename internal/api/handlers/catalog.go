package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jobdesk/internal/models"
	"jobdesk/internal/storage"
	"jobdesk/pkg/utils"
)

// CatalogHandler читающие маршруты справочников
type CatalogHandler struct {
	db     *storage.Database
	logger *zap.Logger
}

// NewCatalogHandler создает новый CatalogHandler
func NewCatalogHandler(db *storage.Database, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		db:     db,
		logger: logger,
	}
}

// Routes маршруты справочников
func (h *CatalogHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/requirements", h.ListRequirements)
	r.Get("/requirements/{id}/options", h.ListOptions)
	r.Get("/skills", h.ListSkills)
	r.Get("/tags", h.ListTags)

	return r
}

// ListRequirements требования, применимые к части анкеты (group=Worker|Vacancy),
// опционально отфильтрованные по подстроке имени
func (h *CatalogHandler) ListRequirements(w http.ResponseWriter, r *http.Request) {
	group := utils.GetQueryParam(r, "group", models.RequirementWorker)
	if group != models.RequirementWorker && group != models.RequirementVacancy {
		utils.WriteError(w, http.StatusBadRequest, "Group must be Worker or Vacancy")
		return
	}

	requirements, err := h.db.GetRequirements(r.Context(), group)
	if err != nil {
		h.logger.Error("Requirements lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load requirements")
		return
	}

	if name := utils.GetQueryParam(r, "name", ""); name != "" {
		filtered := requirements[:0]
		for _, req := range requirements {
			if strings.Contains(strings.ToLower(req.Name), strings.ToLower(name)) {
				filtered = append(filtered, req)
			}
		}
		requirements = filtered
	}
	if requirements == nil {
		requirements = []models.Requirement{}
	}

	utils.WriteSuccess(w, requirements)
}

// ListOptions опции требования
func (h *CatalogHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid requirement id")
		return
	}

	requirement, err := h.db.GetRequirementByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load options")
		return
	}
	if requirement == nil {
		utils.WriteError(w, http.StatusNotFound, "Requirement not found")
		return
	}

	options, err := h.db.GetRequirementOptions(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load options")
		return
	}
	if options == nil {
		options = []models.RequirementOption{}
	}

	utils.WriteSuccess(w, options)
}

// ListSkills навыки, опционально по тегам
func (h *CatalogHandler) ListSkills(w http.ResponseWriter, r *http.Request) {
	tagIDs, err := parseIDList(r, "tags")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid tags filter")
		return
	}

	skills, err := h.db.GetSkills(r.Context(), tagIDs)
	if err != nil {
		h.logger.Error("Skills lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load skills")
		return
	}

	if name := utils.GetQueryParam(r, "name", ""); name != "" {
		filtered := skills[:0]
		for _, skill := range skills {
			if strings.Contains(strings.ToLower(skill.Name), strings.ToLower(name)) {
				filtered = append(filtered, skill)
			}
		}
		skills = filtered
	}
	if skills == nil {
		skills = []models.Skill{}
	}

	utils.WriteSuccess(w, skills)
}

// ListTags каталог тегов навыков
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.db.GetSkillTags(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load tags")
		return
	}
	if tags == nil {
		tags = []models.SkillTag{}
	}

	utils.WriteSuccess(w, tags)
}
