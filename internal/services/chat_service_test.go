package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobdesk/internal/models"
	"jobdesk/pkg/apperr"
)

type fakeChatStore struct {
	chats    map[string]*models.Chat
	history  []models.Message
	nextID   int64
	creates  int
	createFn func(chat *models.Chat) error

	historyLimit  int
	historyOffset int
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{chats: make(map[string]*models.Chat), nextID: 1}
}

func (f *fakeChatStore) GetChatByKey(_ context.Context, chatKey string) (*models.Chat, error) {
	return f.chats[chatKey], nil
}

func (f *fakeChatStore) FindChatBetween(_ context.Context, userA, userB int64) (*models.Chat, error) {
	for _, chat := range f.chats {
		if (chat.User1ID == userA && chat.User2ID == userB) ||
			(chat.User1ID == userB && chat.User2ID == userA) {
			return chat, nil
		}
	}
	return nil, nil
}

func (f *fakeChatStore) CreateChat(_ context.Context, chat *models.Chat) error {
	f.creates++
	if f.createFn != nil {
		if err := f.createFn(chat); err != nil {
			return err
		}
	}
	chat.ID = f.nextID
	f.nextID++
	f.chats[chat.ChatKey] = chat
	return nil
}

func (f *fakeChatStore) DeleteChat(_ context.Context, chatID int64) error {
	for key, chat := range f.chats {
		if chat.ID == chatID {
			delete(f.chats, key)
		}
	}
	return nil
}

func (f *fakeChatStore) ListUserChats(_ context.Context, _ int64) ([]models.ChatSummary, error) {
	return nil, nil
}

func (f *fakeChatStore) ChatSummaryFor(_ context.Context, chatID, userID int64) (*models.ChatSummary, error) {
	for _, chat := range f.chats {
		if chat.ID == chatID {
			return &models.ChatSummary{Title: chat.Title, ChatKey: chat.ChatKey, VacancyID: chat.VacancyID}, nil
		}
	}
	return nil, nil
}

func (f *fakeChatStore) CreateMessage(_ context.Context, message *models.Message) error {
	message.ID = f.nextID
	f.nextID++
	f.history = append([]models.Message{*message}, f.history...)
	return nil
}

func (f *fakeChatStore) GetMessageByID(_ context.Context, id int64) (*models.Message, error) {
	for i := range f.history {
		if f.history[i].ID == id {
			return &f.history[i], nil
		}
	}
	return nil, nil
}

func (f *fakeChatStore) UpdateMessageContent(_ context.Context, id int64, content string) error {
	for i := range f.history {
		if f.history[i].ID == id {
			f.history[i].Content = content
		}
	}
	return nil
}

func (f *fakeChatStore) UpdateMessageStatus(_ context.Context, id int64, status string) error {
	for i := range f.history {
		if f.history[i].ID == id {
			f.history[i].Status = status
		}
	}
	return nil
}

func (f *fakeChatStore) DeleteMessage(_ context.Context, id int64) error {
	for i := range f.history {
		if f.history[i].ID == id {
			f.history = append(f.history[:i], f.history[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeChatStore) GetChatHistory(_ context.Context, _ int64, limit, offset int) ([]models.Message, error) {
	f.historyLimit = limit
	f.historyOffset = offset

	if offset >= len(f.history) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.history) {
		end = len(f.history)
	}
	page := make([]models.Message, end-offset)
	copy(page, f.history[offset:end])
	return page, nil
}

type capturedEvent struct {
	group   string
	payload interface{}
}

type fakeBroadcaster struct {
	events []capturedEvent
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, group string, payload interface{}) error {
	f.events = append(f.events, capturedEvent{group: group, payload: payload})
	return nil
}

func (f *fakeBroadcaster) groupEvents(group string) []capturedEvent {
	var out []capturedEvent
	for _, ev := range f.events {
		if ev.group == group {
			out = append(out, ev)
		}
	}
	return out
}

func newTestChatService(store *fakeChatStore, hub *fakeBroadcaster) *ChatService {
	return NewChatService(store, hub, zap.NewNop())
}

func TestChatGroupNames(t *testing.T) {
	assert.Equal(t, "chat_a1b2", ChatRoomGroup("a1b2"))
	assert.Equal(t, "chat_list_updates_42", ChatListGroup(42))
}

func TestEnsureChatCanonicalOrder(t *testing.T) {
	store := newFakeChatStore()
	svc := newTestChatService(store, &fakeBroadcaster{})

	chat, created, err := svc.EnsureChat(context.Background(), 9, 4, "", nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(4), chat.User1ID)
	assert.Equal(t, int64(9), chat.User2ID)
	assert.Equal(t, "untitled", chat.Title)
	assert.NotEmpty(t, chat.ChatKey)
}

func TestEnsureChatReusesExisting(t *testing.T) {
	store := newFakeChatStore()
	svc := newTestChatService(store, &fakeBroadcaster{})

	first, created, err := svc.EnsureChat(context.Background(), 4, 9, "Go developer", nil)
	require.NoError(t, err)
	require.True(t, created)

	// Повторный вызов с переставленными участниками находит тот же чат
	second, created, err := svc.EnsureChat(context.Background(), 9, 4, "другое название", nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ChatKey, second.ChatKey)
	assert.Equal(t, 1, store.creates)
}

func TestEnsureChatConcurrentCreateConflict(t *testing.T) {
	store := newFakeChatStore()
	svc := newTestChatService(store, &fakeBroadcaster{})

	// Конкурент вставляет чат между проверкой и вставкой, вставка упирается
	// в уникальность пары и дает Conflict
	winner := &models.Chat{ID: 77, Title: "winner", User1ID: 4, User2ID: 9, ChatKey: "winner-key"}
	store.createFn = func(_ *models.Chat) error {
		store.chats[winner.ChatKey] = winner
		return apperr.New(apperr.Conflict, "chat between these users already exists")
	}

	chat, created, err := svc.EnsureChat(context.Background(), 9, 4, "loser", nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "winner-key", chat.ChatKey)
	assert.Equal(t, int64(77), chat.ID)
}

func TestEnsureChatCreatedPushCarriesSummary(t *testing.T) {
	store := newFakeChatStore()
	hub := &fakeBroadcaster{}
	svc := newTestChatService(store, hub)

	chat, created, err := svc.EnsureChat(context.Background(), 4, 9, "Go developer", nil)
	require.NoError(t, err)
	require.True(t, created)

	for _, userID := range []int64{4, 9} {
		events := hub.groupEvents(ChatListGroup(userID))
		require.Len(t, events, 1, "user %d", userID)

		payload, ok := events[0].payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "chat_list_update", payload["type"])

		details, ok := payload["event_details"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "chat_created", details["event"])

		summary, ok := details["chat_data"].(*models.ChatSummary)
		require.True(t, ok)
		assert.Equal(t, chat.ChatKey, summary.ChatKey)
		assert.Equal(t, "Go developer", summary.Title)
	}
}

func TestHistoryReversesToChronological(t *testing.T) {
	store := newFakeChatStore()
	svc := newTestChatService(store, &fakeBroadcaster{})

	// Хранилище отдает от новых к старым
	store.history = []models.Message{
		{ID: 5, Content: "newest"},
		{ID: 4, Content: "middle"},
		{ID: 3, Content: "oldest"},
	}

	messages, err := svc.History(context.Background(), &models.Chat{ID: 1}, 0, 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, int64(3), messages[0].ID)
	assert.Equal(t, int64(4), messages[1].ID)
	assert.Equal(t, int64(5), messages[2].ID)
}

func TestHistoryPaging(t *testing.T) {
	tests := []struct {
		name       string
		chunk      int
		chunkSize  int
		wantLimit  int
		wantOffset int
	}{
		{"defaults on zero chunk size", 0, 0, DefaultHistoryChunkSize, 0},
		{"negative chunk size falls back", 2, -5, DefaultHistoryChunkSize, 2 * DefaultHistoryChunkSize},
		{"negative chunk clamps to first page", -1, 10, 10, 0},
		{"offset is chunk times size", 2, 5, 5, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeChatStore()
			svc := newTestChatService(store, &fakeBroadcaster{})

			_, err := svc.History(context.Background(), &models.Chat{ID: 1}, tt.chunk, tt.chunkSize)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, store.historyLimit)
			assert.Equal(t, tt.wantOffset, store.historyOffset)
		})
	}
}

func TestStoreMessageRejectsOutsider(t *testing.T) {
	store := newFakeChatStore()
	svc := newTestChatService(store, &fakeBroadcaster{})

	chat := &models.Chat{ID: 1, User1ID: 4, User2ID: 9, ChatKey: "k"}
	_, err := svc.StoreMessage(context.Background(), chat, 7, "hello")
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestStoreMessageBroadcastsToRoom(t *testing.T) {
	store := newFakeChatStore()
	hub := &fakeBroadcaster{}
	svc := newTestChatService(store, hub)

	chat := &models.Chat{ID: 1, User1ID: 4, User2ID: 9, ChatKey: "k"}
	stored, err := svc.StoreMessage(context.Background(), chat, 4, "hello")
	require.NoError(t, err)
	assert.Equal(t, models.MessageSent, stored.Status)

	events := hub.groupEvents(ChatRoomGroup("k"))
	require.Len(t, events, 1)
	payload, ok := events[0].payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "send.message", payload["type"])
	assert.Equal(t, "hello", payload["content"])

	// Оба участника получают обновление списка чатов
	assert.Len(t, hub.groupEvents(ChatListGroup(4)), 1)
	assert.Len(t, hub.groupEvents(ChatListGroup(9)), 1)
}
