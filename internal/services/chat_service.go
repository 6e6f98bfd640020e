package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobdesk/internal/models"
	"jobdesk/pkg/apperr"
)

// Broadcaster доставляет событие всем подписчикам группы
type Broadcaster interface {
	Broadcast(ctx context.Context, group string, payload interface{}) error
}

// ChatStore операции хранилища, нужные переписке
type ChatStore interface {
	GetChatByKey(ctx context.Context, chatKey string) (*models.Chat, error)
	FindChatBetween(ctx context.Context, userA, userB int64) (*models.Chat, error)
	CreateChat(ctx context.Context, chat *models.Chat) error
	DeleteChat(ctx context.Context, chatID int64) error
	ListUserChats(ctx context.Context, userID int64) ([]models.ChatSummary, error)
	ChatSummaryFor(ctx context.Context, chatID, userID int64) (*models.ChatSummary, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessageByID(ctx context.Context, id int64) (*models.Message, error)
	UpdateMessageContent(ctx context.Context, id int64, content string) error
	UpdateMessageStatus(ctx context.Context, id int64, status string) error
	DeleteMessage(ctx context.Context, id int64) error
	GetChatHistory(ctx context.Context, chatID int64, limit, offset int) ([]models.Message, error)
}

// ChatRoomGroup имя группы рассылки комнаты чата
func ChatRoomGroup(chatKey string) string {
	return "chat_" + chatKey
}

// ChatListGroup имя персональной группы списка чатов пользователя
func ChatListGroup(userID int64) string {
	return fmt.Sprintf("chat_list_updates_%d", userID)
}

// DefaultHistoryChunkSize размер страницы истории по умолчанию
const DefaultHistoryChunkSize = 10

// ChatService реализует переписку: создание чатов, сообщения, историю и
// рассылку событий. Запись в хранилище всегда завершается до публикации
// события, поэтому история, запрошенная сразу после рассылки, содержит
// только что отправленное сообщение. Сбой рассылки после успешной записи
// допустим: сообщение сохранено, уведомление потеряно.
type ChatService struct {
	db     ChatStore
	hub    Broadcaster
	logger *zap.Logger
}

// NewChatService создает ChatService
func NewChatService(db ChatStore, hub Broadcaster, logger *zap.Logger) *ChatService {
	return &ChatService{
		db:     db,
		hub:    hub,
		logger: logger,
	}
}

// GetChat получает чат по ключу или NotFound
func (s *ChatService) GetChat(ctx context.Context, chatKey string) (*models.Chat, error) {
	chat, err := s.db.GetChatByKey(ctx, chatKey)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperr.New(apperr.NotFound, "chat does not exist")
	}
	return chat, nil
}

// EnsureChat находит чат между двумя пользователями или создает новый.
// Пара участников хранится в каноническом порядке и уникальна в хранилище,
// поэтому гонка двух одновременных созданий разрешается повторным поиском:
// проигравший получает чат победителя. Возвращает чат и признак создания.
func (s *ChatService) EnsureChat(ctx context.Context, userA, userB int64, title string, vacancyID *int64) (*models.Chat, bool, error) {
	existing, err := s.db.FindChatBetween(ctx, userA, userB)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if userA > userB {
		userA, userB = userB, userA
	}

	chat := &models.Chat{
		Title:     title,
		User1ID:   userA,
		User2ID:   userB,
		ChatKey:   uuid.New().String(),
		VacancyID: vacancyID,
	}
	if chat.Title == "" {
		chat.Title = "untitled"
	}

	if err := s.db.CreateChat(ctx, chat); err != nil {
		if apperr.Is(err, apperr.Conflict) {
			winner, findErr := s.db.FindChatBetween(ctx, userA, userB)
			if findErr != nil {
				return nil, false, findErr
			}
			if winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, err
	}

	s.logger.Info("Chat created",
		zap.String("chat_key", chat.ChatKey),
		zap.Int64("user1", userA),
		zap.Int64("user2", userB))

	s.notifyChatCreated(ctx, chat)

	return chat, true, nil
}

// DeleteChat удаляет чат участника вместе с историей и уведомляет обоих
// участников
func (s *ChatService) DeleteChat(ctx context.Context, userID int64, chatKey string) error {
	chat, err := s.GetChat(ctx, chatKey)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return apperr.New(apperr.Forbidden, "user does not have access to this chat")
	}

	if err := s.db.DeleteChat(ctx, chat.ID); err != nil {
		return err
	}

	s.notifyParticipants(ctx, chat, map[string]interface{}{
		"type":     "chat.list.activity",
		"event":    "chat_deleted",
		"chat_key": chat.ChatKey,
	})

	return nil
}

// ListChats получает список чатов пользователя со сводками
func (s *ChatService) ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	return s.db.ListUserChats(ctx, userID)
}

// StoreMessage сохраняет сообщение и рассылает его в комнату. Отправитель
// получает собственное сообщение через рассылку наравне с остальными.
func (s *ChatService) StoreMessage(ctx context.Context, chat *models.Chat, senderID int64, content string) (*models.Message, error) {
	if !chat.HasParticipant(senderID) {
		return nil, apperr.New(apperr.Forbidden, "user does not have access to this chat")
	}
	if content == "" {
		return nil, apperr.New(apperr.Validation, "message content is empty")
	}

	message := &models.Message{
		ChatID:   chat.ID,
		SenderID: senderID,
		Content:  content,
		Status:   models.MessageSent,
	}
	if err := s.db.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	stored, err := s.db.GetMessageByID(ctx, message.ID)
	if err != nil {
		return nil, err
	}

	s.broadcastRoom(ctx, chat, map[string]interface{}{
		"type":      "send.message",
		"pk":        stored.ID,
		"content":   stored.Content,
		"sent_date": stored.SentDate,
		"sender":    stored.Sender,
		"status":    stored.Status,
	})
	s.notifyLastUpdate(ctx, chat, stored.Content)

	return stored, nil
}

// EditMessage обновляет текст сообщения. Только автор может править свое
// сообщение.
func (s *ChatService) EditMessage(ctx context.Context, chat *models.Chat, userID, messageID int64, newContent string) error {
	message, err := s.getChatMessage(ctx, chat, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != userID {
		return apperr.New(apperr.Forbidden, "only the sender can edit a message")
	}
	if newContent == "" {
		return apperr.New(apperr.Validation, "message content is empty")
	}

	if err := s.db.UpdateMessageContent(ctx, messageID, newContent); err != nil {
		return err
	}

	s.broadcastRoom(ctx, chat, map[string]interface{}{
		"type":        "edit.message",
		"message_pk":  messageID,
		"new_content": newContent,
	})
	s.notifyLastUpdate(ctx, chat, newContent)

	return nil
}

// DeleteMessage удаляет сообщение. Только автор может удалить свое сообщение.
func (s *ChatService) DeleteMessage(ctx context.Context, chat *models.Chat, userID, messageID int64) error {
	message, err := s.getChatMessage(ctx, chat, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != userID {
		return apperr.New(apperr.Forbidden, "only the sender can delete a message")
	}

	if err := s.db.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	s.broadcastRoom(ctx, chat, map[string]interface{}{
		"type":       "delete.message",
		"message_pk": messageID,
	})

	return nil
}

// UpdateMessageStatus обновляет статус доставки сообщения и рассылает
// событие в комнату
func (s *ChatService) UpdateMessageStatus(ctx context.Context, chat *models.Chat, messageID int64, newStatus string) error {
	if !models.ValidMessageStatus(newStatus) {
		return apperr.New(apperr.Validation, "unknown message status %q", newStatus)
	}

	message, err := s.getChatMessage(ctx, chat, messageID)
	if err != nil {
		return err
	}

	if err := s.db.UpdateMessageStatus(ctx, messageID, newStatus); err != nil {
		return err
	}

	s.broadcastRoom(ctx, chat, map[string]interface{}{
		"type":       "update.status",
		"message_pk": messageID,
		"new_status": newStatus,
	})
	s.notifyLastUpdate(ctx, chat, message.Content)

	return nil
}

// History получает страницу истории чата. Страницы нумеруются с нуля от
// конца переписки, сообщения внутри страницы идут в хронологическом порядке.
func (s *ChatService) History(ctx context.Context, chat *models.Chat, chunk, chunkSize int) ([]models.Message, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultHistoryChunkSize
	}
	if chunk < 0 {
		chunk = 0
	}

	messages, err := s.db.GetChatHistory(ctx, chat.ID, chunkSize, chunk*chunkSize)
	if err != nil {
		return nil, err
	}

	// Хранилище отдает от новых к старым, страница переворачивается
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (s *ChatService) getChatMessage(ctx context.Context, chat *models.Chat, messageID int64) (*models.Message, error) {
	message, err := s.db.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message == nil || message.ChatID != chat.ID {
		return nil, apperr.New(apperr.NotFound, "no such message")
	}
	return message, nil
}

func (s *ChatService) broadcastRoom(ctx context.Context, chat *models.Chat, payload map[string]interface{}) {
	if err := s.hub.Broadcast(ctx, ChatRoomGroup(chat.ChatKey), payload); err != nil {
		s.logger.Warn("Room broadcast failed",
			zap.String("chat_key", chat.ChatKey),
			zap.Error(err))
	}
}

func (s *ChatService) notifyLastUpdate(ctx context.Context, chat *models.Chat, content string) {
	s.notifyParticipants(ctx, chat, map[string]interface{}{
		"type":        "chat.list.activity",
		"event":       "last_update",
		"chat_key":    chat.ChatKey,
		"new_message": content,
	})
}

// notifyChatCreated доставляет событие о новом чате обоим участникам,
// каждому со сводкой с его личным счетчиком непрочитанных
func (s *ChatService) notifyChatCreated(ctx context.Context, chat *models.Chat) {
	for _, userID := range []int64{chat.User1ID, chat.User2ID} {
		summary, err := s.db.ChatSummaryFor(ctx, chat.ID, userID)
		if err != nil || summary == nil {
			s.logger.Warn("Chat summary lookup failed",
				zap.Int64("user_id", userID),
				zap.Error(err))
			continue
		}

		s.notifyUser(ctx, userID, map[string]interface{}{
			"type":      "chat.list.activity",
			"event":     "chat_created",
			"chat_data": summary,
		})
	}
}

// notifyParticipants доставляет событие в персональные каналы обоих
// участников
func (s *ChatService) notifyParticipants(ctx context.Context, chat *models.Chat, event map[string]interface{}) {
	for _, userID := range []int64{chat.User1ID, chat.User2ID} {
		s.notifyUser(ctx, userID, event)
	}
}

// notifyUser оборачивает событие конвертом chat_list_update и публикует его
// в персональную группу пользователя
func (s *ChatService) notifyUser(ctx context.Context, userID int64, event map[string]interface{}) {
	payload := map[string]interface{}{
		"type":          "chat_list_update",
		"event_details": event,
	}
	if err := s.hub.Broadcast(ctx, ChatListGroup(userID), payload); err != nil {
		s.logger.Warn("Chat list broadcast failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}
