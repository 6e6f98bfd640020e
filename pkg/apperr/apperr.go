package apperr

import (
	"errors"
	"fmt"
)

// Kind категория ошибки, определяет HTTP статус на границе API
type Kind int

const (
	Validation Kind = iota // некорректный ввод, операция не выполнялась
	NotFound               // сущность не найдена
	Forbidden              // аутентифицирован, но не имеет права
	Conflict               // дубликат или несовместимая пара, без частичных изменений
	Internal
)

// Error типизированная ошибка приложения
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Message текст ошибки без обернутой причины, пригодный для ответа клиенту
func (e *Error) Message() string { return e.msg }

// New создает ошибку заданной категории
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap оборачивает причину, сохраняя категорию для границы API
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// KindOf возвращает категорию ошибки. Нетипизированные ошибки считаются Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return Internal
}

// Is проверяет принадлежность ошибки категории
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
