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

// ChatHandler HTTP-операции над чатами. Сами переписки живут на websocket,
// здесь только список, явное создание и удаление.
type ChatHandler struct {
	db     *storage.Database
	chats  *services.ChatService
	auth   *middleware.Auth
	logger *zap.Logger
}

// NewChatHandler создает новый ChatHandler
func NewChatHandler(db *storage.Database, chats *services.ChatService, auth *middleware.Auth, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		db:     db,
		chats:  chats,
		auth:   auth,
		logger: logger,
	}
}

// Routes маршруты чатов
func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.auth.Middleware)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{chatKey}", h.Delete)

	return r
}

// List чаты текущего пользователя со сводками
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	summaries, err := h.chats.ListChats(r.Context(), userID)
	if err != nil {
		h.logger.Error("Chat list failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load chats")
		return
	}
	if summaries == nil {
		summaries = []models.ChatSummary{}
	}

	utils.WriteSuccess(w, summaries)
}

// CreateChatRequest тело явного создания чата
type CreateChatRequest struct {
	User    int64  `json:"user"`
	Title   string `json:"title"`
	Vacancy *int64 `json:"vacancy"`
}

// Create явно создает чат с другим пользователем. Существующая переписка
// между этими пользователями переиспользуется.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req CreateChatRequest
	if err := utils.BindJSON(r, &req); err != nil || req.User == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Peer user id is required")
		return
	}
	if req.User == userID {
		utils.WriteError(w, http.StatusBadRequest, "Cannot open a chat with yourself")
		return
	}

	peer, err := h.db.GetUserByID(r.Context(), req.User)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create chat")
		return
	}
	if peer == nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	chat, created, err := h.chats.EnsureChat(r.Context(), userID, req.User, req.Title, req.Vacancy)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}

	if created {
		utils.WriteCreated(w, chat)
		return
	}
	utils.WriteSuccess(w, chat)
}

// Delete удаляет чат участника вместе с историей
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	chatKey := chi.URLParam(r, "chatKey")

	if err := h.chats.DeleteChat(r.Context(), userID, chatKey); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteMessage(w, "Chat deleted")
}
