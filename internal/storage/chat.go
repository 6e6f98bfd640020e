package storage

import (
	"context"
	"database/sql"
	"time"

	"jobdesk/internal/models"
	"jobdesk/pkg/apperr"
)

// Chat operations

// CreateChat создает чат между двумя пользователями. Пара участников
// хранится в каноническом порядке user1_id < user2_id и уникальна, поэтому
// гонка двух одновременных созданий дает Conflict вместо второго чата.
func (d *Database) CreateChat(ctx context.Context, chat *models.Chat) error {
	query := `
        INSERT INTO chats (title, user1_id, user2_id, chat_key, vacancy_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `

	err := d.db.GetContext(ctx, &chat.ID, query,
		chat.Title, chat.User1ID, chat.User2ID, chat.ChatKey, chat.VacancyID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.Conflict, "chat between these users already exists")
		}
		return err
	}

	return nil
}

// GetChatByKey получает чат по ключу
func (d *Database) GetChatByKey(ctx context.Context, chatKey string) (*models.Chat, error) {
	var chat models.Chat
	query := `SELECT * FROM chats WHERE chat_key = $1`

	err := d.db.GetContext(ctx, &chat, query, chatKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &chat, nil
}

// FindChatBetween ищет чат между двумя пользователями в любом порядке
func (d *Database) FindChatBetween(ctx context.Context, userA, userB int64) (*models.Chat, error) {
	var chat models.Chat
	query := `
        SELECT * FROM chats
        WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)
        ORDER BY id
        LIMIT 1
    `

	err := d.db.GetContext(ctx, &chat, query, userA, userB)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &chat, nil
}

// DeleteChat удаляет чат вместе с сообщениями (каскад в БД)
func (d *Database) DeleteChat(ctx context.Context, chatID int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM chats WHERE id = $1`, chatID)
	return err
}

// ListUserChats получает список чатов пользователя с последним сообщением и
// числом непрочитанных. Непрочитанными считаются чужие сообщения в статусе sent.
func (d *Database) ListUserChats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	var summaries []models.ChatSummary
	query := `
        SELECT c.title, c.chat_key, c.vacancy_id,
               (SELECT m.content FROM messages m
                WHERE m.chat_id = c.id
                ORDER BY m.id DESC LIMIT 1) AS last_message,
               (SELECT COUNT(*) FROM messages m
                WHERE m.chat_id = c.id AND m.status = $2 AND m.sender_id <> $1) AS unread
        FROM chats c
        WHERE c.user1_id = $1 OR c.user2_id = $1
        ORDER BY c.id
    `

	err := d.db.SelectContext(ctx, &summaries, query, userID, models.MessageSent)
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// ChatSummaryFor строит сводку одного чата для пользователя
func (d *Database) ChatSummaryFor(ctx context.Context, chatID, userID int64) (*models.ChatSummary, error) {
	var summary models.ChatSummary
	query := `
        SELECT c.title, c.chat_key, c.vacancy_id,
               (SELECT m.content FROM messages m
                WHERE m.chat_id = c.id
                ORDER BY m.id DESC LIMIT 1) AS last_message,
               (SELECT COUNT(*) FROM messages m
                WHERE m.chat_id = c.id AND m.status = $3 AND m.sender_id <> $2) AS unread
        FROM chats c
        WHERE c.id = $1
    `

	err := d.db.GetContext(ctx, &summary, query, chatID, userID, models.MessageSent)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &summary, nil
}

// Message operations

// CreateMessage сохраняет сообщение чата
func (d *Database) CreateMessage(ctx context.Context, message *models.Message) error {
	if message.SentDate.IsZero() {
		message.SentDate = time.Now().UTC()
	}

	query := `
        INSERT INTO messages (chat_id, sender_id, content, status, sent_date)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `

	return d.db.GetContext(ctx, &message.ID, query,
		message.ChatID, message.SenderID, message.Content, message.Status, message.SentDate)
}

// GetMessageByID получает сообщение вместе с именем отправителя
func (d *Database) GetMessageByID(ctx context.Context, id int64) (*models.Message, error) {
	var message models.Message
	query := `
        SELECT m.id, m.chat_id, m.sender_id, m.content, m.status,
               m.sent_date, m.updated_date, u.username AS sender
        FROM messages m
        JOIN users u ON u.id = m.sender_id
        WHERE m.id = $1
    `

	err := d.db.GetContext(ctx, &message, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &message, nil
}

// UpdateMessageContent обновляет текст сообщения и помечает его измененным
func (d *Database) UpdateMessageContent(ctx context.Context, id int64, content string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE messages SET content = $1, updated_date = $2 WHERE id = $3`,
		content, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.New(apperr.NotFound, "message does not exist")
	}

	return nil
}

// UpdateMessageStatus обновляет статус доставки сообщения
func (d *Database) UpdateMessageStatus(ctx context.Context, id int64, status string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE messages SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.New(apperr.NotFound, "message does not exist")
	}

	return nil
}

// DeleteMessage удаляет сообщение
func (d *Database) DeleteMessage(ctx context.Context, id int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

// GetChatHistory получает страницу истории чата. Хранилище упорядочено от новых
// к старым, поэтому offset отсчитывается от конца переписки.
func (d *Database) GetChatHistory(ctx context.Context, chatID int64, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	query := `
        SELECT m.id, m.chat_id, m.sender_id, m.content, m.status,
               m.sent_date, m.updated_date, u.username AS sender
        FROM messages m
        JOIN users u ON u.id = m.sender_id
        WHERE m.chat_id = $1
        ORDER BY m.id DESC
        LIMIT $2 OFFSET $3
    `

	err := d.db.SelectContext(ctx, &messages, query, chatID, limit, offset)
	if err != nil {
		return nil, err
	}

	return messages, nil
}
