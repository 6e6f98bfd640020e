package models

import (
	"time"
)

// Chat переписка двух пользователей, опционально привязанная к вакансии
type Chat struct {
	ID        int64  `json:"-" db:"id"`
	Title     string `json:"title" db:"title"`
	User1ID   int64  `json:"-" db:"user1_id"`
	User2ID   int64  `json:"-" db:"user2_id"`
	ChatKey   string `json:"chat_key" db:"chat_key"`
	VacancyID *int64 `json:"vacancy" db:"vacancy_id"`
}

// HasParticipant проверяет, что пользователь является участником чата
func (c *Chat) HasParticipant(userID int64) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// ChatSummary элемент списка чатов пользователя
type ChatSummary struct {
	Title       string  `json:"title" db:"title"`
	ChatKey     string  `json:"chat_key" db:"chat_key"`
	LastMessage *string `json:"last_message" db:"last_message"`
	VacancyID   *int64  `json:"vacancy" db:"vacancy_id"`
	Unread      int     `json:"unread" db:"unread"`
}

// Статусы доставки сообщений
const (
	MessageCreated = "created"
	MessageSent    = "sent"
	MessageRead    = "read"
)

// ValidMessageStatus проверяет значение статуса сообщения
func ValidMessageStatus(status string) bool {
	switch status {
	case MessageCreated, MessageSent, MessageRead:
		return true
	}
	return false
}

// Message сообщение чата. В хранилище сообщения упорядочены от новых к старым.
type Message struct {
	ID          int64      `json:"pk" db:"id"`
	ChatID      int64      `json:"-" db:"chat_id"`
	SenderID    int64      `json:"-" db:"sender_id"`
	Sender      string     `json:"sender" db:"sender"`
	Content     string     `json:"content" db:"content"`
	Status      string     `json:"status" db:"status"`
	SentDate    time.Time  `json:"sent_date" db:"sent_date"`
	UpdatedDate *time.Time `json:"updated_date,omitempty" db:"updated_date"`
}
