package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"jobdesk/internal/api/middleware"
	"jobdesk/internal/models"
	"jobdesk/internal/storage"
	"jobdesk/pkg/utils"
)

// AuthHandler обработчик регистрации и входа
type AuthHandler struct {
	db     *storage.Database
	auth   *middleware.Auth
	logger *zap.Logger
}

// NewAuthHandler создает новый AuthHandler
func NewAuthHandler(db *storage.Database, auth *middleware.Auth, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		db:     db,
		auth:   auth,
		logger: logger,
	}
}

// Routes маршруты аутентификации
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Get("/occupied", h.UsernameOccupied)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Middleware)
		r.Get("/whoami", h.Whoami)
	})

	return r
}

// RegisterRequest запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// LoginRequest запрос на вход
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse ответ с токеном
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register регистрация нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utils.BindJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		utils.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("Password hash failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	user := &models.User{
		Username:  req.Username,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}
	if req.FullName != "" {
		user.FullName = &req.FullName
	}
	if req.Email != "" {
		user.Email = &req.Email
	}

	if err := h.db.CreateUser(r.Context(), user); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	token, err := h.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		h.logger.Error("Token generation failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	h.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username))

	utils.WriteCreated(w, AuthResponse{Token: token, User: user})
}

// Login вход по имени и паролю
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.BindJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		h.logger.Error("Login lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to login")
		return
	}
	if user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		h.logger.Error("Token generation failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to login")
		return
	}

	utils.WriteSuccess(w, AuthResponse{Token: token, User: user})
}

// UsernameOccupied проверяет, занято ли имя пользователя
func (h *AuthHandler) UsernameOccupied(w http.ResponseWriter, r *http.Request) {
	username := utils.GetQueryParam(r, "username", "")
	if username == "" {
		utils.WriteError(w, http.StatusBadRequest, "Username is required")
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.logger.Error("Username lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to check username")
		return
	}

	utils.WriteSuccess(w, map[string]bool{"occupied": user != nil})
}

// Whoami профиль текущего пользователя
func (h *AuthHandler) Whoami(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	user, err := h.db.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("Whoami lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	if user == nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	utils.WriteSuccess(w, user)
}
