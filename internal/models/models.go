package models

import (
	"time"
)

// User пользователь системы
type User struct {
	ID          int64     `json:"pk" db:"id"`
	Username    string    `json:"username" db:"username"`
	Password    string    `json:"-" db:"password"`
	FullName    *string   `json:"full_name,omitempty" db:"full_name"`
	Email       *string   `json:"email,omitempty" db:"email"`
	Phone       *string   `json:"phone,omitempty" db:"phone"`
	Photo       *string   `json:"photo,omitempty" db:"photo"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ExtrasKind тип расширения профиля, привязанного к роли
type ExtrasKind string

const (
	ExtrasWorker ExtrasKind = "worker"
	ExtrasHR     ExtrasKind = "hr"
	ExtrasNone   ExtrasKind = ""
)

// Role роль пользователя (Worker, HR, Moderator)
type Role struct {
	ID         int64      `json:"pk" db:"id"`
	Name       string     `json:"name" db:"name"`
	ExtrasKind ExtrasKind `json:"extras_kind" db:"extras_kind"`
}

// UserRole связка пользователь-роль, уникальна по паре (user, role)
type UserRole struct {
	ID     int64 `json:"pk" db:"id"`
	UserID int64 `json:"user" db:"user_id"`
	RoleID int64 `json:"role" db:"role_id"`
}

// WorkerExtras расширение профиля для роли Worker
type WorkerExtras struct {
	ID     int64 `json:"pk" db:"id"`
	UserID int64 `json:"user" db:"user_id"`
}

// HRExtras расширение профиля для роли HR
type HRExtras struct {
	ID     int64 `json:"pk" db:"id"`
	UserID int64 `json:"user" db:"user_id"`
}

// Применимость требования
const (
	RequirementWorker  = "Worker"
	RequirementVacancy = "Vacancy"
	RequirementBoth    = "Both"
)

// Requirement именованный настраиваемый атрибут анкеты
type Requirement struct {
	ID              int64  `json:"pk" db:"id"`
	Name            string `json:"name" db:"name"`
	AppliesTo       string `json:"requirement_type" db:"applies_to"`
	MultipleAnswers bool   `json:"multiple_answers" db:"multiple_answers"`
}

// RequirementOption одно из допустимых значений требования
type RequirementOption struct {
	ID            int64  `json:"pk" db:"id"`
	RequirementID int64  `json:"requirement" db:"requirement_id"`
	Value         string `json:"value" db:"value"`
}

// AnswerKind вид ответа на требование
type AnswerKind string

const (
	AnswerCustom   AnswerKind = "custom"
	AnswerNone     AnswerKind = "none"
	AnswerSingle   AnswerKind = "single"
	AnswerMultiple AnswerKind = "multiple"
)

// Answer классифицированный ответ на требование
type Answer struct {
	Kind   AnswerKind `json:"type"`
	Values []string   `json:"value,omitempty"`
}

// AnswerBinding привязка требования к анкете работника или вакансии.
// Хранит либо произвольный текст, либо набор выбранных опций.
type AnswerBinding struct {
	ID              int64               `json:"pk" db:"id"`
	RequirementID   int64               `json:"requirement" db:"requirement_id"`
	RequirementName string              `json:"requirement_name" db:"requirement_name"`
	CustomAnswer    *string             `json:"-" db:"custom_answer"`
	Options         []RequirementOption `json:"-"`
}

// Answer возвращает классифицированный ответ. Заполненный custom_answer
// имеет приоритет, выбранные опции при этом игнорируются.
func (b *AnswerBinding) Answer() Answer {
	if b.CustomAnswer != nil && *b.CustomAnswer != "" {
		return Answer{Kind: AnswerCustom, Values: []string{*b.CustomAnswer}}
	}
	switch len(b.Options) {
	case 0:
		return Answer{Kind: AnswerNone}
	case 1:
		return Answer{Kind: AnswerSingle, Values: []string{b.Options[0].Value}}
	default:
		values := make([]string, len(b.Options))
		for i, o := range b.Options {
			values[i] = o.Value
		}
		return Answer{Kind: AnswerMultiple, Values: values}
	}
}

// Skill навык с набором тегов
type Skill struct {
	ID   int64    `json:"pk" db:"id"`
	Name string   `json:"name" db:"name"`
	Tags []string `json:"tags,omitempty"`
}

// SkillTag тег навыка
type SkillTag struct {
	ID   int64  `json:"pk" db:"id"`
	Name string `json:"name" db:"name"`
}

// Уровни опыта
const (
	LevelTrainee = "Trainee"
	LevelJunior  = "Junior"
	LevelMiddle  = "Middle"
	LevelSenior  = "Senior"
)

// ValidExperienceLevel проверяет значение уровня опыта
func ValidExperienceLevel(level string) bool {
	switch level {
	case LevelTrainee, LevelJunior, LevelMiddle, LevelSenior:
		return true
	}
	return false
}

// SkillBinding привязка навыка к анкете работника или вакансии.
// Relevance используется только для вакансий и задает вес навыка при скоринге.
type SkillBinding struct {
	ID                 int64   `json:"pk" db:"id"`
	SkillID            int64   `json:"skill" db:"skill_id"`
	SkillName          string  `json:"skill_name" db:"skill_name"`
	ExperienceLevel    *string `json:"experience_level,omitempty" db:"experience_level"`
	ExperienceDuration *string `json:"experience_duration,omitempty" db:"experience_duration"`
	Description        *string `json:"description,omitempty" db:"description"`
	Relevance          int     `json:"relevance,omitempty" db:"relevance"`
}

// Vacancy вакансия, принадлежит HR
type Vacancy struct {
	ID          int64   `json:"pk" db:"id"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description,omitempty" db:"description"`
	HRID        int64   `json:"hr" db:"hr_id"`
	Visible     bool    `json:"visible" db:"visible"`
}

// VacancyListItem элемент списка вакансий с опциональной релевантностью
type VacancyListItem struct {
	Vacancy
	Relevance *float64           `json:"relevance,omitempty"`
	Explain   map[string]float64 `json:"explain,omitempty"`
}

// WorkerListItem элемент списка работников с опциональной релевантностью
type WorkerListItem struct {
	ID        int64              `json:"pk" db:"id"`
	UserID    int64              `json:"user" db:"user_id"`
	Username  string             `json:"username" db:"username"`
	FullName  *string            `json:"full_name,omitempty" db:"full_name"`
	Relevance *float64           `json:"relevance,omitempty"`
	Explain   map[string]float64 `json:"explain,omitempty"`
}

// ResponseStatus статус отклика на вакансию
type ResponseStatus struct {
	ID   int64  `json:"pk" db:"id"`
	Name string `json:"name" db:"name"`
}

// Имена статусов откликов
const (
	ResponseCreated  = "Created"
	ResponsePending  = "Pending"
	ResponseAccepted = "Accepted"
	ResponseRejected = "Rejected"
)

// VacancyResponse отклик работника на вакансию, уникален по паре (worker, vacancy)
type VacancyResponse struct {
	ID         int64     `json:"pk" db:"id"`
	WorkerID   int64     `json:"worker" db:"worker_id"`
	VacancyID  int64     `json:"vacancy" db:"vacancy_id"`
	StatusID   int64     `json:"-" db:"status_id"`
	StatusName string    `json:"status" db:"status_name"`
	CreatedAt  time.Time `json:"creation_date" db:"created_at"`
}

// VacancyQuickResponse заготовленный ответ вакансии для статуса отклика
type VacancyQuickResponse struct {
	ID         int64  `json:"pk" db:"id"`
	VacancyID  int64  `json:"vacancy" db:"vacancy_id"`
	StatusID   int64  `json:"-" db:"status_id"`
	StatusName string `json:"status" db:"status_name"`
	Name       string `json:"name" db:"name"`
	Text       string `json:"response_text" db:"response_text"`
}

// SavedVacancy закладка работника на вакансию
type SavedVacancy struct {
	ID        int64 `json:"pk" db:"id"`
	OwnerID   int64 `json:"owner" db:"owner_id"`
	VacancyID int64 `json:"vacancy" db:"vacancy_id"`
}

// SavedUser закладка пользователя на другого пользователя
type SavedUser struct {
	ID          int64  `json:"pk" db:"id"`
	OwnerID     int64  `json:"owner" db:"owner_id"`
	SavedID     int64  `json:"saved" db:"saved_id"`
	Description string `json:"description" db:"description"`
}

// ComplaintReason причина жалобы из каталога
type ComplaintReason struct {
	ID       int64  `json:"pk" db:"id"`
	Name     string `json:"name" db:"name"`
	Priority int    `json:"priority" db:"priority"`
}

// Цели и статусы жалоб
const (
	ComplaintTargetProfile = "Profile"
	ComplaintTargetVacancy = "Vacancy"

	ComplaintPending  = "Pending"
	ComplaintResolved = "Resolved"
	ComplaintClosed   = "Closed"
)

// Complaint жалоба на профиль или вакансию
type Complaint struct {
	ID          int64     `json:"pk" db:"id"`
	ComplierID  int64     `json:"complier" db:"complier_id"`
	CompliedID  int64     `json:"complied" db:"complied_id"`
	ReasonID    int64     `json:"reason" db:"reason_id"`
	TargetType  string    `json:"target_type" db:"target_type"`
	TargetPK    int64     `json:"target_pk" db:"target_pk"`
	Status      string    `json:"status" db:"status"`
	Description *string   `json:"description,omitempty" db:"description"`
	Screenshot  *string   `json:"screenshot,omitempty" db:"screenshot"`
	CreatedAt   time.Time `json:"date" db:"created_at"`
}

// VacancyFilter критерии отбора вакансий. Поля комбинируются через AND,
// значения внутри поля через OR.
type VacancyFilter struct {
	Title        string  `json:"title,omitempty"`
	HR           int64   `json:"hr,omitempty"`
	Requirements []int64 `json:"requirements,omitempty"`
	Skills       []int64 `json:"skills,omitempty"`
	Options      []int64 `json:"options,omitempty"`
}

// WorkerFilter критерии отбора работников
type WorkerFilter struct {
	Requirements []int64 `json:"requirements,omitempty"`
	Skills       []int64 `json:"skills,omitempty"`
	Options      []int64 `json:"options,omitempty"`
}
