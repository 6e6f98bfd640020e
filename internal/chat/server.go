package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"jobdesk/internal/models"
	"jobdesk/internal/services"
	"jobdesk/internal/storage"
	"jobdesk/pkg/apperr"
)

// CloseUnauthorized код закрытия для ошибок авторизации
const CloseUnauthorized = 4001

// AuthFunc отображает bearer токен в идентификатор пользователя
type AuthFunc func(token string) (int64, error)

// Server поднимает websocket-подключения комнат чатов и персональных
// списков чатов
type Server struct {
	hub      *Hub
	chats    *services.ChatService
	db       *storage.Database
	auth     AuthFunc
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer создает Server
func NewServer(hub *Hub, chats *services.ChatService, db *storage.Database, auth AuthFunc, logger *zap.Logger) *Server {
	return &Server{
		hub:    hub,
		chats:  chats,
		db:     db,
		auth:   auth,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes маршруты websocket чатов
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/chat/{chatKey}", s.handleRoom)
	r.Get("/chat_list", s.handleChatList)
	return r
}

// inboundFrame входящий кадр комнаты
type inboundFrame struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	MessagePK  int64  `json:"message_pk"`
	NewContent string `json:"new_content"`
	NewStatus  string `json:"new_status"`
	Chunk      int    `json:"chunk"`
	ChunkSize  int    `json:"chunk_size"`
}

func (s *Server) authorize(r *http.Request) (int64, bool) {
	token := r.URL.Query().Get("authorization")
	// Клиенты могут передавать токен в форме "Bearer <токен>"
	if i := strings.LastIndex(token, " "); i >= 0 {
		token = token[i+1:]
	}
	if token == "" {
		return 0, false
	}

	userID, err := s.auth(token)
	if err != nil {
		return 0, false
	}
	return userID, true
}

func rejectUnauthorized(ws *websocket.Conn) {
	deadline := time.Now().Add(writeWait)
	ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(CloseUnauthorized, "Authorization error"), deadline)
	ws.Close()
}

// handleRoom обслуживает комнату одного чата. Подключиться может только
// участник, остальные отклоняются с кодом 4001.
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	chatKey := chi.URLParam(r, "chatKey")

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	userID, ok := s.authorize(r)
	if !ok {
		rejectUnauthorized(ws)
		return
	}

	chat, err := s.chats.GetChat(r.Context(), chatKey)
	if err != nil || !chat.HasParticipant(userID) {
		rejectUnauthorized(ws)
		return
	}

	conn := newConn(ws)
	group := services.ChatRoomGroup(chatKey)
	s.hub.Join(group, conn)
	defer func() {
		s.hub.Leave(group, conn)
		conn.close()
	}()

	s.logger.Info("Chat room joined",
		zap.String("chat_key", chatKey),
		zap.Int64("user_id", userID))

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.sendError(conn, "malformed frame")
			continue
		}

		s.dispatchFrame(r.Context(), conn, chat, userID, frame)
	}
}

func (s *Server) dispatchFrame(ctx context.Context, conn *Conn, chat *models.Chat, userID int64, frame inboundFrame) {
	switch frame.Type {
	case "send.message":
		if _, err := s.chats.StoreMessage(ctx, chat, userID, frame.Message); err != nil {
			s.sendError(conn, errorText(err))
		}

	case "edit.message":
		if err := s.chats.EditMessage(ctx, chat, userID, frame.MessagePK, frame.NewContent); err != nil {
			s.sendError(conn, errorText(err))
		}

	case "delete.message":
		if err := s.chats.DeleteMessage(ctx, chat, userID, frame.MessagePK); err != nil {
			s.sendError(conn, errorText(err))
		}

	case "update.status":
		if err := s.chats.UpdateMessageStatus(ctx, chat, frame.MessagePK, frame.NewStatus); err != nil {
			s.sendError(conn, errorText(err))
		}

	case "get_history":
		history, err := s.chats.History(ctx, chat, frame.Chunk, frame.ChunkSize)
		if err != nil {
			s.sendError(conn, errorText(err))
			return
		}
		s.sendJSON(conn, map[string]interface{}{"history": history})

	case "whoami":
		user, err := s.db.GetUserByID(ctx, userID)
		if err != nil || user == nil {
			s.sendError(conn, "user not found")
			return
		}
		s.sendJSON(conn, user)

	default:
		s.sendError(conn, "unknown frame type")
	}
}

// handleChatList обслуживает персональный канал списка чатов. Сразу после
// подключения клиент получает полный список своих чатов со счетчиками
// непрочитанных, дальше только push-события.
func (s *Server) handleChatList(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	userID, ok := s.authorize(r)
	if !ok {
		rejectUnauthorized(ws)
		return
	}

	conn := newConn(ws)
	group := services.ChatListGroup(userID)
	s.hub.Join(group, conn)
	defer func() {
		s.hub.Leave(group, conn)
		conn.close()
	}()

	summaries, err := s.chats.ListChats(r.Context(), userID)
	if err != nil {
		s.sendError(conn, "failed to load chat list")
		return
	}
	if summaries == nil {
		summaries = []models.ChatSummary{}
	}
	s.sendJSON(conn, summaries)

	// Входящие кадры не предусмотрены, читаем только ради закрытия
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) sendJSON(conn *Conn, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("Payload marshal failed", zap.Error(err))
		return
	}
	conn.enqueue(raw)
}

func (s *Server) sendError(conn *Conn, text string) {
	s.sendJSON(conn, map[string]string{"error": text})
}

func errorText(err error) string {
	if apperr.KindOf(err) == apperr.Internal {
		return "internal error"
	}
	if e, ok := err.(interface{ Message() string }); ok {
		return e.Message()
	}
	return err.Error()
}
