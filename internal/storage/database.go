package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"jobdesk/internal/models"
	"jobdesk/pkg/apperr"
)

// Database обертка над sqlx.DB
type Database struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewDatabase создает новое подключение к БД
func NewDatabase(dsn string, logger *zap.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка соединения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established")

	return &Database{
		db:     db,
		logger: logger,
	}, nil
}

// WrapDB оборачивает готовое подключение без настройки пула. Используется
// в тестах с подменой драйвера.
func WrapDB(db *sqlx.DB, logger *zap.Logger) *Database {
	return &Database{db: db, logger: logger}
}

// Close закрывает подключение к БД
func (d *Database) Close() error {
	return d.db.Close()
}

// HealthCheck проверка здоровья БД
func (d *Database) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// WithTx выполняет fn в транзакции с откатом при ошибке
func (d *Database) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.logger.Error("Transaction rollback failed", zap.Error(rbErr))
		}
		return err
	}

	return tx.Commit()
}

// isUniqueViolation проверяет нарушение уникального ограничения Postgres
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// User operations

// CreateUser создает нового пользователя
func (d *Database) CreateUser(ctx context.Context, user *models.User) error {
	query := `
        INSERT INTO users (username, password, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `

	err := d.db.GetContext(ctx, &user.ID, query, user.Username, user.Password, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.Conflict, "user with such username already exists")
		}
		return err
	}

	return nil
}

// GetUserByID получает пользователя по ID
func (d *Database) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE id = $1`

	err := d.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetUserByUsername получает пользователя по имени
func (d *Database) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE username = $1`

	err := d.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// UpdateUser обновляет профиль пользователя
func (d *Database) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
        UPDATE users
        SET full_name = :full_name, email = :email, phone = :phone,
            photo = :photo, description = :description
        WHERE id = :id
    `

	_, err := d.db.NamedExecContext(ctx, query, user)
	return err
}

// DeleteUser удаляет пользователя вместе со связанными записями (каскад в БД)
func (d *Database) DeleteUser(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := d.db.ExecContext(ctx, query, id)
	return err
}

// Role operations

// GetRoleByName получает роль по имени
func (d *Database) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	query := `SELECT * FROM roles WHERE name = $1`

	err := d.db.GetContext(ctx, &role, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &role, nil
}

// ListUserRoles получает роли пользователя
func (d *Database) ListUserRoles(ctx context.Context, userID int64) ([]models.Role, error) {
	var roles []models.Role
	query := `
        SELECT r.* FROM roles r
        JOIN users_roles ur ON ur.role_id = r.id
        WHERE ur.user_id = $1
        ORDER BY r.id
    `

	err := d.db.SelectContext(ctx, &roles, query, userID)
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// HasUserRole проверяет, что пользователь держит роль
func (d *Database) HasUserRole(ctx context.Context, userID, roleID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM users_roles WHERE user_id = $1 AND role_id = $2`

	err := d.db.GetContext(ctx, &count, query, userID, roleID)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// InsertUserRole создает связку пользователь-роль в рамках транзакции
func (d *Database) InsertUserRole(ctx context.Context, tx *sqlx.Tx, userID, roleID int64) error {
	query := `INSERT INTO users_roles (user_id, role_id) VALUES ($1, $2)`

	_, err := tx.ExecContext(ctx, query, userID, roleID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.Conflict, "user already holds this role")
		}
		return err
	}

	return nil
}

// DeleteUserRole удаляет связку пользователь-роль в рамках транзакции
func (d *Database) DeleteUserRole(ctx context.Context, tx *sqlx.Tx, userID, roleID int64) error {
	query := `DELETE FROM users_roles WHERE user_id = $1 AND role_id = $2`

	res, err := tx.ExecContext(ctx, query, userID, roleID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.New(apperr.NotFound, "user does not hold this role")
	}

	return nil
}

// Extras operations

// CreateWorkerExtras создает WorkerExtras в рамках транзакции
func (d *Database) CreateWorkerExtras(ctx context.Context, tx *sqlx.Tx, userID int64) (*models.WorkerExtras, error) {
	extras := models.WorkerExtras{UserID: userID}
	query := `INSERT INTO worker_extras (user_id) VALUES ($1) RETURNING id`

	if err := tx.GetContext(ctx, &extras.ID, query, userID); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Conflict, "worker extras already exist")
		}
		return nil, err
	}

	return &extras, nil
}

// CreateHRExtras создает HRExtras в рамках транзакции
func (d *Database) CreateHRExtras(ctx context.Context, tx *sqlx.Tx, userID int64) (*models.HRExtras, error) {
	extras := models.HRExtras{UserID: userID}
	query := `INSERT INTO hr_extras (user_id) VALUES ($1) RETURNING id`

	if err := tx.GetContext(ctx, &extras.ID, query, userID); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Conflict, "hr extras already exist")
		}
		return nil, err
	}

	return &extras, nil
}

// GetWorkerExtrasByID получает WorkerExtras по ID
func (d *Database) GetWorkerExtrasByID(ctx context.Context, id int64) (*models.WorkerExtras, error) {
	var extras models.WorkerExtras
	query := `SELECT * FROM worker_extras WHERE id = $1`

	err := d.db.GetContext(ctx, &extras, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &extras, nil
}

// GetWorkerExtrasByUser получает WorkerExtras пользователя
func (d *Database) GetWorkerExtrasByUser(ctx context.Context, userID int64) (*models.WorkerExtras, error) {
	var extras models.WorkerExtras
	query := `SELECT * FROM worker_extras WHERE user_id = $1`

	err := d.db.GetContext(ctx, &extras, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &extras, nil
}

// GetHRExtrasByID получает HRExtras по ID
func (d *Database) GetHRExtrasByID(ctx context.Context, id int64) (*models.HRExtras, error) {
	var extras models.HRExtras
	query := `SELECT * FROM hr_extras WHERE id = $1`

	err := d.db.GetContext(ctx, &extras, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &extras, nil
}

// GetHRExtrasByUser получает HRExtras пользователя
func (d *Database) GetHRExtrasByUser(ctx context.Context, userID int64) (*models.HRExtras, error) {
	var extras models.HRExtras
	query := `SELECT * FROM hr_extras WHERE user_id = $1`

	err := d.db.GetContext(ctx, &extras, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &extras, nil
}

// DeleteWorkerExtrasByUser удаляет WorkerExtras пользователя, идемпотентно
func (d *Database) DeleteWorkerExtrasByUser(ctx context.Context, tx *sqlx.Tx, userID int64) error {
	query := `DELETE FROM worker_extras WHERE user_id = $1`
	_, err := tx.ExecContext(ctx, query, userID)
	return err
}

// DeleteHRExtrasByUser удаляет HRExtras пользователя, идемпотентно
func (d *Database) DeleteHRExtrasByUser(ctx context.Context, tx *sqlx.Tx, userID int64) error {
	query := `DELETE FROM hr_extras WHERE user_id = $1`
	_, err := tx.ExecContext(ctx, query, userID)
	return err
}

// Answer binding operations

// AddWorkerRequirement создает привязку требования к анкете работника.
// Каждая опция обязана принадлежать тому же требованию, иначе вся операция
// откатывается и привязка не создается.
func (d *Database) AddWorkerRequirement(ctx context.Context, workerID, requirementID int64, optionIDs []int64, customAnswer *string) (int64, error) {
	var bindingID int64

	err := d.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := d.checkOptionsBelong(ctx, tx, requirementID, optionIDs); err != nil {
			return err
		}

		query := `
            INSERT INTO worker_requirements (worker_id, requirement_id, custom_answer)
            VALUES ($1, $2, $3)
            RETURNING id
        `
		if err := tx.GetContext(ctx, &bindingID, query, workerID, requirementID, customAnswer); err != nil {
			return err
		}

		for _, optionID := range optionIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO worker_requirement_options (binding_id, option_id) VALUES ($1, $2)`,
				bindingID, optionID)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return bindingID, nil
}

// AddVacancyRequirement создает привязку требования к вакансии
func (d *Database) AddVacancyRequirement(ctx context.Context, vacancyID, requirementID int64, optionIDs []int64, customAnswer *string) (int64, error) {
	var bindingID int64

	err := d.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := d.checkOptionsBelong(ctx, tx, requirementID, optionIDs); err != nil {
			return err
		}

		query := `
            INSERT INTO vacancy_requirements (vacancy_id, requirement_id, custom_answer)
            VALUES ($1, $2, $3)
            RETURNING id
        `
		if err := tx.GetContext(ctx, &bindingID, query, vacancyID, requirementID, customAnswer); err != nil {
			return err
		}

		for _, optionID := range optionIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO vacancy_requirement_options (binding_id, option_id) VALUES ($1, $2)`,
				bindingID, optionID)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return bindingID, nil
}

// checkOptionsBelong проверяет, что все опции принадлежат требованию
func (d *Database) checkOptionsBelong(ctx context.Context, tx *sqlx.Tx, requirementID int64, optionIDs []int64) error {
	if len(optionIDs) == 0 {
		return nil
	}

	var count int
	query := `SELECT COUNT(*) FROM requirement_options WHERE id = ANY($1) AND requirement_id = $2`

	if err := tx.GetContext(ctx, &count, query, pq.Array(optionIDs), requirementID); err != nil {
		return err
	}

	if count != len(optionIDs) {
		return apperr.New(apperr.Conflict, "requirement type is incompatible with option type")
	}

	return nil
}

// GetWorkerRequirements получает привязки требований работника вместе с опциями
func (d *Database) GetWorkerRequirements(ctx context.Context, workerID int64) ([]models.AnswerBinding, error) {
	return d.getAnswerBindings(ctx, `
        SELECT wr.id, wr.requirement_id, r.name AS requirement_name, wr.custom_answer
        FROM worker_requirements wr
        JOIN requirements r ON r.id = wr.requirement_id
        WHERE wr.worker_id = $1
        ORDER BY wr.id
    `, `
        SELECT wro.binding_id, ro.id, ro.requirement_id, ro.value
        FROM worker_requirement_options wro
        JOIN requirement_options ro ON ro.id = wro.option_id
        JOIN worker_requirements wr ON wr.id = wro.binding_id
        WHERE wr.worker_id = $1
        ORDER BY wro.id
    `, workerID)
}

// GetVacancyRequirements получает привязки требований вакансии вместе с опциями
func (d *Database) GetVacancyRequirements(ctx context.Context, vacancyID int64) ([]models.AnswerBinding, error) {
	return d.getAnswerBindings(ctx, `
        SELECT vr.id, vr.requirement_id, r.name AS requirement_name, vr.custom_answer
        FROM vacancy_requirements vr
        JOIN requirements r ON r.id = vr.requirement_id
        WHERE vr.vacancy_id = $1
        ORDER BY vr.id
    `, `
        SELECT vro.binding_id, ro.id, ro.requirement_id, ro.value
        FROM vacancy_requirement_options vro
        JOIN requirement_options ro ON ro.id = vro.option_id
        JOIN vacancy_requirements vr ON vr.id = vro.binding_id
        WHERE vr.vacancy_id = $1
        ORDER BY vro.id
    `, vacancyID)
}

type bindingOptionRow struct {
	BindingID     int64  `db:"binding_id"`
	ID            int64  `db:"id"`
	RequirementID int64  `db:"requirement_id"`
	Value         string `db:"value"`
}

func (d *Database) getAnswerBindings(ctx context.Context, bindingsQuery, optionsQuery string, ownerID int64) ([]models.AnswerBinding, error) {
	var bindings []models.AnswerBinding
	if err := d.db.SelectContext(ctx, &bindings, bindingsQuery, ownerID); err != nil {
		return nil, err
	}

	var rows []bindingOptionRow
	if err := d.db.SelectContext(ctx, &rows, optionsQuery, ownerID); err != nil {
		return nil, err
	}

	byBinding := make(map[int64][]models.RequirementOption)
	for _, row := range rows {
		byBinding[row.BindingID] = append(byBinding[row.BindingID], models.RequirementOption{
			ID:            row.ID,
			RequirementID: row.RequirementID,
			Value:         row.Value,
		})
	}

	for i := range bindings {
		bindings[i].Options = byBinding[bindings[i].ID]
	}

	return bindings, nil
}

// GetWorkerRequirementOwner получает владельца привязки требования работника
func (d *Database) GetWorkerRequirementOwner(ctx context.Context, bindingID int64) (int64, error) {
	return d.getBindingOwner(ctx, `SELECT worker_id FROM worker_requirements WHERE id = $1`, bindingID, "requirement binding")
}

// GetVacancyRequirementVacancy получает вакансию привязки требования
func (d *Database) GetVacancyRequirementVacancy(ctx context.Context, bindingID int64) (int64, error) {
	return d.getBindingOwner(ctx, `SELECT vacancy_id FROM vacancy_requirements WHERE id = $1`, bindingID, "requirement binding")
}

func (d *Database) getBindingOwner(ctx context.Context, query string, bindingID int64, what string) (int64, error) {
	var ownerID int64
	err := d.db.GetContext(ctx, &ownerID, query, bindingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperr.New(apperr.NotFound, "%s does not exist", what)
		}
		return 0, err
	}
	return ownerID, nil
}

// DeleteWorkerRequirement удаляет привязку требования работника
func (d *Database) DeleteWorkerRequirement(ctx context.Context, bindingID int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM worker_requirements WHERE id = $1`, bindingID)
	return err
}

// DeleteVacancyRequirement удаляет привязку требования вакансии
func (d *Database) DeleteVacancyRequirement(ctx context.Context, bindingID int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM vacancy_requirements WHERE id = $1`, bindingID)
	return err
}

// Skill binding operations

// AddWorkerSkill создает привязку навыка к анкете работника
func (d *Database) AddWorkerSkill(ctx context.Context, workerID, skillID int64, level, duration, description *string) (int64, error) {
	var bindingID int64
	query := `
        INSERT INTO worker_skills (worker_id, skill_id, experience_level, experience_duration, description)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `

	err := d.db.GetContext(ctx, &bindingID, query, workerID, skillID, level, duration, description)
	if err != nil {
		return 0, err
	}

	return bindingID, nil
}

// AddVacancySkill создает привязку навыка к вакансии с весом релевантности
func (d *Database) AddVacancySkill(ctx context.Context, vacancyID, skillID int64, level, duration, description *string, relevance int) (int64, error) {
	if relevance <= 0 {
		relevance = 1
	}

	var bindingID int64
	query := `
        INSERT INTO vacancy_skills (vacancy_id, skill_id, experience_level, experience_duration, description, relevance)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `

	err := d.db.GetContext(ctx, &bindingID, query, vacancyID, skillID, level, duration, description, relevance)
	if err != nil {
		return 0, err
	}

	return bindingID, nil
}

// GetWorkerSkills получает навыки работника
func (d *Database) GetWorkerSkills(ctx context.Context, workerID int64) ([]models.SkillBinding, error) {
	var skills []models.SkillBinding
	query := `
        SELECT ws.id, ws.skill_id, s.name AS skill_name,
               ws.experience_level, ws.experience_duration, ws.description, 0 AS relevance
        FROM worker_skills ws
        JOIN skills s ON s.id = ws.skill_id
        WHERE ws.worker_id = $1
        ORDER BY ws.id
    `

	err := d.db.SelectContext(ctx, &skills, query, workerID)
	if err != nil {
		return nil, err
	}

	return skills, nil
}

// GetVacancySkills получает навыки вакансии с весами
func (d *Database) GetVacancySkills(ctx context.Context, vacancyID int64) ([]models.SkillBinding, error) {
	var skills []models.SkillBinding
	query := `
        SELECT vs.id, vs.skill_id, s.name AS skill_name,
               vs.experience_level, vs.experience_duration, vs.description, vs.relevance
        FROM vacancy_skills vs
        JOIN skills s ON s.id = vs.skill_id
        WHERE vs.vacancy_id = $1
        ORDER BY vs.id
    `

	err := d.db.SelectContext(ctx, &skills, query, vacancyID)
	if err != nil {
		return nil, err
	}

	return skills, nil
}

// GetWorkerSkillOwner получает владельца привязки навыка работника
func (d *Database) GetWorkerSkillOwner(ctx context.Context, bindingID int64) (int64, error) {
	return d.getBindingOwner(ctx, `SELECT worker_id FROM worker_skills WHERE id = $1`, bindingID, "skill binding")
}

// GetVacancySkillVacancy получает вакансию привязки навыка
func (d *Database) GetVacancySkillVacancy(ctx context.Context, bindingID int64) (int64, error) {
	return d.getBindingOwner(ctx, `SELECT vacancy_id FROM vacancy_skills WHERE id = $1`, bindingID, "skill binding")
}

// DeleteWorkerSkill удаляет привязку навыка работника
func (d *Database) DeleteWorkerSkill(ctx context.Context, bindingID int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM worker_skills WHERE id = $1`, bindingID)
	return err
}

// DeleteVacancySkill удаляет привязку навыка вакансии
func (d *Database) DeleteVacancySkill(ctx context.Context, bindingID int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM vacancy_skills WHERE id = $1`, bindingID)
	return err
}
