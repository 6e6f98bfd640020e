package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"jobdesk/pkg/apperr"
)

// JSONResponse стандартный JSON ответ
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteJSON записывает JSON ответ
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteSuccess успешный ответ
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	response := JSONResponse{
		Success: true,
		Data:    data,
	}
	WriteJSON(w, http.StatusOK, response)
}

// WriteCreated ответ о созданной сущности
func WriteCreated(w http.ResponseWriter, data interface{}) {
	response := JSONResponse{
		Success: true,
		Data:    data,
	}
	WriteJSON(w, http.StatusCreated, response)
}

// WriteError ответ с ошибкой
func WriteError(w http.ResponseWriter, status int, message string) {
	response := JSONResponse{
		Success: false,
		Error:   message,
	}
	WriteJSON(w, status, response)
}

// WriteMessage ответ с сообщением
func WriteMessage(w http.ResponseWriter, message string) {
	response := JSONResponse{
		Success: true,
		Message: message,
	}
	WriteJSON(w, http.StatusOK, response)
}

// WriteAppError отображает категорию ошибки приложения на HTTP статус
func WriteAppError(w http.ResponseWriter, err error) {
	var message string
	if e, ok := err.(interface{ Message() string }); ok {
		message = e.Message()
	} else {
		message = "Internal server error"
	}

	switch apperr.KindOf(err) {
	case apperr.Validation:
		WriteError(w, http.StatusBadRequest, message)
	case apperr.NotFound:
		WriteError(w, http.StatusNotFound, message)
	case apperr.Forbidden:
		WriteError(w, http.StatusForbidden, message)
	case apperr.Conflict:
		WriteError(w, http.StatusConflict, message)
	default:
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// HealthCheckResponse ответ для health check
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// WriteHealthCheck записывает health check ответ
func WriteHealthCheck(w http.ResponseWriter, status string, services map[string]string) {
	response := HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	}
	WriteJSON(w, http.StatusOK, response)
}

// BindJSON парсит JSON из тела запроса
func BindJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}

	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// GetQueryParam получает параметр из query string
func GetQueryParam(r *http.Request, key string, defaultValue string) string {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetQueryInt получает int параметр из query string
func GetQueryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
