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

// ProfileHandler обработчик профилей, ролей и закладок на пользователей
type ProfileHandler struct {
	db     *storage.Database
	roles  *services.RoleService
	auth   *middleware.Auth
	logger *zap.Logger
}

// NewProfileHandler создает новый ProfileHandler
func NewProfileHandler(db *storage.Database, roles *services.RoleService, auth *middleware.Auth, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		db:     db,
		roles:  roles,
		auth:   auth,
		logger: logger,
	}
}

// Routes маршруты профилей
func (h *ProfileHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.auth.Middleware)

	r.Get("/{id}", h.GetProfile)
	r.Patch("/", h.UpdateProfile)
	r.Delete("/", h.DeleteProfile)

	r.Get("/roles", h.ListRoles)
	r.Post("/roles", h.AddRole)
	r.Delete("/roles/{role}", h.DeleteRole)
	r.Get("/extras/{role}", h.GetExtras)

	r.Get("/saved_users", h.ListSavedUsers)
	r.Post("/saved_users", h.SaveUser)
	r.Delete("/saved_users/{id}", h.DeleteSavedUser)

	return r
}

// GetProfile публичный профиль пользователя
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		h.logger.Error("Profile lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	if user == nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	utils.WriteSuccess(w, user)
}

// UpdateProfileRequest запрос на обновление профиля
type UpdateProfileRequest struct {
	FullName    *string `json:"full_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Photo       *string `json:"photo"`
	Description *string `json:"description"`
}

// UpdateProfile частичное обновление собственного профиля
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req UpdateProfileRequest
	if err := utils.BindJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.db.GetUserByID(r.Context(), userID)
	if err != nil || user == nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	if req.FullName != nil {
		user.FullName = req.FullName
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Photo != nil {
		user.Photo = req.Photo
	}
	if req.Description != nil {
		user.Description = req.Description
	}

	if err := h.db.UpdateUser(r.Context(), user); err != nil {
		h.logger.Error("Profile update failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	utils.WriteSuccess(w, user)
}

// DeleteProfile удаляет собственный аккаунт
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	if err := h.db.DeleteUser(r.Context(), userID); err != nil {
		h.logger.Error("Profile delete failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	utils.WriteMessage(w, "Profile deleted")
}

// ListRoles роли текущего пользователя
func (h *ProfileHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	roles, err := h.roles.ListRoles(r.Context(), userID)
	if err != nil {
		h.logger.Error("Roles lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load roles")
		return
	}
	if roles == nil {
		roles = []models.Role{}
	}

	utils.WriteSuccess(w, roles)
}

// AddRoleRequest запрос на выдачу роли
type AddRoleRequest struct {
	Role string `json:"role"`
}

// AddRole выдает текущему пользователю роль
func (h *ProfileHandler) AddRole(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req AddRoleRequest
	if err := utils.BindJSON(r, &req); err != nil || req.Role == "" {
		utils.WriteError(w, http.StatusBadRequest, "Role name is required")
		return
	}

	role, extras, err := h.roles.AddRole(r.Context(), userID, req.Role)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteCreated(w, map[string]interface{}{
		"role":   role,
		"extras": extras,
	})
}

// DeleteRole снимает роль с текущего пользователя
func (h *ProfileHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	roleName := chi.URLParam(r, "role")

	if err := h.roles.DeleteRole(r.Context(), userID, roleName); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteMessage(w, "Role deleted")
}

// GetExtras расширение профиля текущего пользователя для роли
func (h *ProfileHandler) GetExtras(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	roleName := chi.URLParam(r, "role")

	extras, err := h.roles.GetExtrasForRole(r.Context(), userID, roleName)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, extras)
}

// SaveUserRequest запрос на закладку пользователя
type SaveUserRequest struct {
	Saved       int64  `json:"saved"`
	Description string `json:"description"`
}

// SaveUser сохраняет пользователя в закладки
func (h *ProfileHandler) SaveUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req SaveUserRequest
	if err := utils.BindJSON(r, &req); err != nil || req.Saved == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Saved user id is required")
		return
	}

	target, err := h.db.GetUserByID(r.Context(), req.Saved)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to save user")
		return
	}
	if target == nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	saved := &models.SavedUser{
		OwnerID:     userID,
		SavedID:     req.Saved,
		Description: req.Description,
	}
	if err := h.db.SaveUser(r.Context(), saved); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteCreated(w, saved)
}

// ListSavedUsers закладки текущего пользователя
func (h *ProfileHandler) ListSavedUsers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	items, err := h.db.GetSavedUsers(r.Context(), userID)
	if err != nil {
		h.logger.Error("Saved users lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load saved users")
		return
	}
	if items == nil {
		items = []models.SavedUser{}
	}

	utils.WriteSuccess(w, items)
}

// DeleteSavedUser удаляет закладку на пользователя
func (h *ProfileHandler) DeleteSavedUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid bookmark id")
		return
	}

	saved, err := h.db.GetSavedUserByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete bookmark")
		return
	}
	if saved == nil {
		utils.WriteError(w, http.StatusNotFound, "Bookmark not found")
		return
	}
	if saved.OwnerID != userID {
		utils.WriteError(w, http.StatusForbidden, "Bookmark belongs to another user")
		return
	}

	if err := h.db.DeleteSavedUser(r.Context(), id); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete bookmark")
		return
	}

	utils.WriteMessage(w, "Bookmark deleted")
}
