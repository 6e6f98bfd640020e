package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"jobdesk/internal/models"
	"jobdesk/pkg/apperr"
)

// Vacancy operations

// CreateVacancy создает вакансию
func (d *Database) CreateVacancy(ctx context.Context, vacancy *models.Vacancy) error {
	query := `
        INSERT INTO vacancies (title, description, hr_id, visible)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `

	return d.db.GetContext(ctx, &vacancy.ID, query,
		vacancy.Title, vacancy.Description, vacancy.HRID, vacancy.Visible)
}

// GetVacancyByID получает вакансию по ID
func (d *Database) GetVacancyByID(ctx context.Context, id int64) (*models.Vacancy, error) {
	var vacancy models.Vacancy
	query := `SELECT * FROM vacancies WHERE id = $1`

	err := d.db.GetContext(ctx, &vacancy, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &vacancy, nil
}

// UpdateVacancy обновляет вакансию
func (d *Database) UpdateVacancy(ctx context.Context, vacancy *models.Vacancy) error {
	query := `
        UPDATE vacancies
        SET title = :title, description = :description, visible = :visible
        WHERE id = :id
    `

	_, err := d.db.NamedExecContext(ctx, query, vacancy)
	return err
}

// DeleteVacancy удаляет вакансию
func (d *Database) DeleteVacancy(ctx context.Context, id int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM vacancies WHERE id = $1`, id)
	return err
}

// GetVacanciesByHR получает вакансии HR-пользователя, включая скрытые
func (d *Database) GetVacanciesByHR(ctx context.Context, hrID int64) ([]models.Vacancy, error) {
	var vacancies []models.Vacancy
	query := `SELECT * FROM vacancies WHERE hr_id = $1 ORDER BY id`

	err := d.db.SelectContext(ctx, &vacancies, query, hrID)
	if err != nil {
		return nil, err
	}

	return vacancies, nil
}

// ListVacancies получает видимые вакансии по фильтру. Критерии комбинируются
// через AND, значения внутри критерия через OR, порядок стабилен по id.
func (d *Database) ListVacancies(ctx context.Context, filter models.VacancyFilter) ([]models.Vacancy, error) {
	conditions := []string{"v.visible = TRUE"}
	args := []interface{}{}

	if filter.Title != "" {
		args = append(args, "%"+filter.Title+"%")
		conditions = append(conditions, fmt.Sprintf("v.title ILIKE $%d", len(args)))
	}
	if filter.HR != 0 {
		args = append(args, filter.HR)
		conditions = append(conditions, fmt.Sprintf("v.hr_id = $%d", len(args)))
	}
	if len(filter.Requirements) > 0 {
		args = append(args, pq.Array(filter.Requirements))
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM vacancy_requirements vr
             WHERE vr.vacancy_id = v.id AND vr.requirement_id = ANY($%d))`, len(args)))
	}
	if len(filter.Skills) > 0 {
		args = append(args, pq.Array(filter.Skills))
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM vacancy_skills vs
             WHERE vs.vacancy_id = v.id AND vs.skill_id = ANY($%d))`, len(args)))
	}
	if len(filter.Options) > 0 {
		args = append(args, pq.Array(filter.Options))
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM vacancy_requirements vr
             JOIN vacancy_requirement_options vro ON vro.binding_id = vr.id
             WHERE vr.vacancy_id = v.id AND vro.option_id = ANY($%d))`, len(args)))
	}

	query := fmt.Sprintf(
		`SELECT v.* FROM vacancies v WHERE %s ORDER BY v.id`,
		strings.Join(conditions, " AND "))

	var vacancies []models.Vacancy
	if err := d.db.SelectContext(ctx, &vacancies, query, args...); err != nil {
		return nil, err
	}

	return vacancies, nil
}

// ListWorkers получает анкеты работников по фильтру
func (d *Database) ListWorkers(ctx context.Context, filter models.WorkerFilter) ([]models.WorkerListItem, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}

	if len(filter.Requirements) > 0 {
		args = append(args, pq.Array(filter.Requirements))
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM worker_requirements wr
             WHERE wr.worker_id = we.id AND wr.requirement_id = ANY($%d))`, len(args)))
	}
	if len(filter.Skills) > 0 {
		args = append(args, pq.Array(filter.Skills))
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM worker_skills ws
             WHERE ws.worker_id = we.id AND ws.skill_id = ANY($%d))`, len(args)))
	}
	if len(filter.Options) > 0 {
		args = append(args, pq.Array(filter.Options))
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM worker_requirements wr
             JOIN worker_requirement_options wro ON wro.binding_id = wr.id
             WHERE wr.worker_id = we.id AND wro.option_id = ANY($%d))`, len(args)))
	}

	query := fmt.Sprintf(`
        SELECT we.id, we.user_id, u.username, u.full_name
        FROM worker_extras we
        JOIN users u ON u.id = we.user_id
        WHERE %s
        ORDER BY we.id
    `, strings.Join(conditions, " AND "))

	var workers []models.WorkerListItem
	if err := d.db.SelectContext(ctx, &workers, query, args...); err != nil {
		return nil, err
	}

	return workers, nil
}

// Response operations

// CreateResponse создает отклик работника на вакансию со статусом Created.
// Повторный отклик на ту же вакансию запрещен.
func (d *Database) CreateResponse(ctx context.Context, workerID, vacancyID, statusID int64) (*models.VacancyResponse, error) {
	response := models.VacancyResponse{
		WorkerID:  workerID,
		VacancyID: vacancyID,
		StatusID:  statusID,
		CreatedAt: time.Now().UTC(),
	}

	query := `
        INSERT INTO vacancy_responses (worker_id, vacancy_id, status_id, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `

	err := d.db.GetContext(ctx, &response.ID, query,
		workerID, vacancyID, statusID, response.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Conflict, "response to this vacancy already exists")
		}
		return nil, err
	}

	return &response, nil
}

// GetResponseByID получает отклик по ID
func (d *Database) GetResponseByID(ctx context.Context, id int64) (*models.VacancyResponse, error) {
	var response models.VacancyResponse
	query := `
        SELECT r.id, r.worker_id, r.vacancy_id, r.status_id, r.created_at, s.name AS status_name
        FROM vacancy_responses r
        JOIN response_statuses s ON s.id = r.status_id
        WHERE r.id = $1
    `

	err := d.db.GetContext(ctx, &response, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &response, nil
}

// GetResponsesByWorker получает отклики работника
func (d *Database) GetResponsesByWorker(ctx context.Context, workerID int64) ([]models.VacancyResponse, error) {
	var responses []models.VacancyResponse
	query := `
        SELECT r.id, r.worker_id, r.vacancy_id, r.status_id, r.created_at, s.name AS status_name
        FROM vacancy_responses r
        JOIN response_statuses s ON s.id = r.status_id
        WHERE r.worker_id = $1
        ORDER BY r.id
    `

	err := d.db.SelectContext(ctx, &responses, query, workerID)
	if err != nil {
		return nil, err
	}

	return responses, nil
}

// GetResponsesByVacancy получает отклики на вакансию
func (d *Database) GetResponsesByVacancy(ctx context.Context, vacancyID int64) ([]models.VacancyResponse, error) {
	var responses []models.VacancyResponse
	query := `
        SELECT r.id, r.worker_id, r.vacancy_id, r.status_id, r.created_at, s.name AS status_name
        FROM vacancy_responses r
        JOIN response_statuses s ON s.id = r.status_id
        WHERE r.vacancy_id = $1
        ORDER BY r.id
    `

	err := d.db.SelectContext(ctx, &responses, query, vacancyID)
	if err != nil {
		return nil, err
	}

	return responses, nil
}

// UpdateResponseStatus обновляет статус отклика
func (d *Database) UpdateResponseStatus(ctx context.Context, responseID, statusID int64) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE vacancy_responses SET status_id = $1 WHERE id = $2`, statusID, responseID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.New(apperr.NotFound, "response does not exist")
	}

	return nil
}

// DeleteResponse удаляет отклик
func (d *Database) DeleteResponse(ctx context.Context, id int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM vacancy_responses WHERE id = $1`, id)
	return err
}

// Quick response operations

// CreateQuickResponse создает заготовленный ответ вакансии для статуса отклика
func (d *Database) CreateQuickResponse(ctx context.Context, qr *models.VacancyQuickResponse) error {
	query := `
        INSERT INTO vacancy_quick_responses (vacancy_id, status_id, name, response_text)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `

	return d.db.GetContext(ctx, &qr.ID, query, qr.VacancyID, qr.StatusID, qr.Name, qr.Text)
}

// GetQuickResponses получает заготовленные ответы вакансии
func (d *Database) GetQuickResponses(ctx context.Context, vacancyID int64) ([]models.VacancyQuickResponse, error) {
	var items []models.VacancyQuickResponse
	query := `
        SELECT qr.id, qr.vacancy_id, qr.status_id, qr.name, qr.response_text, s.name AS status_name
        FROM vacancy_quick_responses qr
        JOIN response_statuses s ON s.id = qr.status_id
        WHERE qr.vacancy_id = $1
        ORDER BY qr.id
    `

	err := d.db.SelectContext(ctx, &items, query, vacancyID)
	if err != nil {
		return nil, err
	}

	return items, nil
}

// GetQuickResponseByID получает заготовленный ответ по ID
func (d *Database) GetQuickResponseByID(ctx context.Context, id int64) (*models.VacancyQuickResponse, error) {
	var qr models.VacancyQuickResponse
	query := `
        SELECT qr.id, qr.vacancy_id, qr.status_id, qr.name, qr.response_text, s.name AS status_name
        FROM vacancy_quick_responses qr
        JOIN response_statuses s ON s.id = qr.status_id
        WHERE qr.id = $1
    `

	err := d.db.GetContext(ctx, &qr, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &qr, nil
}

// DeleteQuickResponse удаляет заготовленный ответ
func (d *Database) DeleteQuickResponse(ctx context.Context, id int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM vacancy_quick_responses WHERE id = $1`, id)
	return err
}

// Saved bookmarks

// SaveVacancy сохраняет вакансию в закладки работника
func (d *Database) SaveVacancy(ctx context.Context, ownerID, vacancyID int64) (*models.SavedVacancy, error) {
	saved := models.SavedVacancy{OwnerID: ownerID, VacancyID: vacancyID}
	query := `
        INSERT INTO saved_vacancies (owner_id, vacancy_id)
        VALUES ($1, $2)
        RETURNING id
    `

	err := d.db.GetContext(ctx, &saved.ID, query, ownerID, vacancyID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Conflict, "vacancy is already saved")
		}
		return nil, err
	}

	return &saved, nil
}

// GetSavedVacancies получает закладки работника на вакансии
func (d *Database) GetSavedVacancies(ctx context.Context, ownerID int64) ([]models.SavedVacancy, error) {
	var items []models.SavedVacancy
	query := `SELECT * FROM saved_vacancies WHERE owner_id = $1 ORDER BY id`

	err := d.db.SelectContext(ctx, &items, query, ownerID)
	if err != nil {
		return nil, err
	}

	return items, nil
}

// GetSavedVacancyByID получает закладку на вакансию по ID
func (d *Database) GetSavedVacancyByID(ctx context.Context, id int64) (*models.SavedVacancy, error) {
	var saved models.SavedVacancy
	query := `SELECT * FROM saved_vacancies WHERE id = $1`

	err := d.db.GetContext(ctx, &saved, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &saved, nil
}

// DeleteSavedVacancy удаляет закладку на вакансию
func (d *Database) DeleteSavedVacancy(ctx context.Context, id int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM saved_vacancies WHERE id = $1`, id)
	return err
}

// SaveUser сохраняет пользователя в закладки
func (d *Database) SaveUser(ctx context.Context, saved *models.SavedUser) error {
	query := `
        INSERT INTO saved_users (owner_id, saved_id, description)
        VALUES ($1, $2, $3)
        RETURNING id
    `

	err := d.db.GetContext(ctx, &saved.ID, query, saved.OwnerID, saved.SavedID, saved.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.Conflict, "user is already saved")
		}
		return err
	}

	return nil
}

// GetSavedUsers получает закладки пользователя на других пользователей
func (d *Database) GetSavedUsers(ctx context.Context, ownerID int64) ([]models.SavedUser, error) {
	var items []models.SavedUser
	query := `SELECT * FROM saved_users WHERE owner_id = $1 ORDER BY id`

	err := d.db.SelectContext(ctx, &items, query, ownerID)
	if err != nil {
		return nil, err
	}

	return items, nil
}

// GetSavedUserByID получает закладку на пользователя по ID
func (d *Database) GetSavedUserByID(ctx context.Context, id int64) (*models.SavedUser, error) {
	var saved models.SavedUser
	query := `SELECT * FROM saved_users WHERE id = $1`

	err := d.db.GetContext(ctx, &saved, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &saved, nil
}

// DeleteSavedUser удаляет закладку на пользователя
func (d *Database) DeleteSavedUser(ctx context.Context, id int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM saved_users WHERE id = $1`, id)
	return err
}

// Complaint operations

// CreateComplaint создает жалобу
func (d *Database) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	query := `
        INSERT INTO complaints (complier_id, complied_id, reason_id, target_type, target_pk,
                                status, description, screenshot, created_at)
        VALUES (:complier_id, :complied_id, :reason_id, :target_type, :target_pk,
                :status, :description, :screenshot, :created_at)
        RETURNING id
    `

	rows, err := d.db.NamedQueryContext(ctx, query, complaint)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&complaint.ID); err != nil {
			return err
		}
	}

	return rows.Err()
}

// GetComplaints получает жалобы, опционально фильтруя по статусу
func (d *Database) GetComplaints(ctx context.Context, status string) ([]models.Complaint, error) {
	var complaints []models.Complaint

	if status != "" {
		query := `SELECT * FROM complaints WHERE status = $1 ORDER BY id`
		if err := d.db.SelectContext(ctx, &complaints, query, status); err != nil {
			return nil, err
		}
	} else {
		query := `SELECT * FROM complaints ORDER BY id`
		if err := d.db.SelectContext(ctx, &complaints, query); err != nil {
			return nil, err
		}
	}

	return complaints, nil
}

// GetComplaintByID получает жалобу по ID
func (d *Database) GetComplaintByID(ctx context.Context, id int64) (*models.Complaint, error) {
	var complaint models.Complaint
	query := `SELECT * FROM complaints WHERE id = $1`

	err := d.db.GetContext(ctx, &complaint, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &complaint, nil
}

// UpdateComplaintStatus обновляет статус жалобы
func (d *Database) UpdateComplaintStatus(ctx context.Context, id int64, status string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE complaints SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.New(apperr.NotFound, "complaint does not exist")
	}

	return nil
}

// DeleteComplaint удаляет жалобу
func (d *Database) DeleteComplaint(ctx context.Context, id int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM complaints WHERE id = $1`, id)
	return err
}

// Stats counters

// CountVisibleVacancies считает видимые вакансии
func (d *Database) CountVisibleVacancies(ctx context.Context) (int, error) {
	var count int
	err := d.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM vacancies WHERE visible = TRUE`)
	return count, err
}

// CountResponsesByStatus считает отклики по имени статуса
func (d *Database) CountResponsesByStatus(ctx context.Context) (map[string]int, error) {
	type row struct {
		Name  string `db:"name"`
		Count int    `db:"count"`
	}

	var rows []row
	query := `
        SELECT s.name, COUNT(r.id) AS count
        FROM response_statuses s
        LEFT JOIN vacancy_responses r ON r.status_id = s.id
        GROUP BY s.name
    `

	if err := d.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Name] = r.Count
	}

	return counts, nil
}

// CountChats считает открытые чаты
func (d *Database) CountChats(ctx context.Context) (int, error) {
	var count int
	err := d.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM chats`)
	return count, err
}
