package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"jobdesk/internal/models"
)

// Catalog operations: requirements, options, skills, tags, response statuses,
// complaint reasons.

// GetRequirements получает требования, применимые к части анкеты (Worker или Vacancy)
func (d *Database) GetRequirements(ctx context.Context, appliesTo string) ([]models.Requirement, error) {
	var requirements []models.Requirement
	query := `
        SELECT * FROM requirements
        WHERE applies_to = $1 OR applies_to = $2
        ORDER BY id
    `

	err := d.db.SelectContext(ctx, &requirements, query, appliesTo, models.RequirementBoth)
	if err != nil {
		return nil, err
	}

	return requirements, nil
}

// GetRequirementByID получает требование по ID
func (d *Database) GetRequirementByID(ctx context.Context, id int64) (*models.Requirement, error) {
	var requirement models.Requirement
	query := `SELECT * FROM requirements WHERE id = $1`

	err := d.db.GetContext(ctx, &requirement, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &requirement, nil
}

// GetRequirementOptions получает опции требования
func (d *Database) GetRequirementOptions(ctx context.Context, requirementID int64) ([]models.RequirementOption, error) {
	var options []models.RequirementOption
	query := `SELECT * FROM requirement_options WHERE requirement_id = $1 ORDER BY id`

	err := d.db.SelectContext(ctx, &options, query, requirementID)
	if err != nil {
		return nil, err
	}

	return options, nil
}

// GetSkills получает навыки, опционально фильтруя по тегам
func (d *Database) GetSkills(ctx context.Context, tagIDs []int64) ([]models.Skill, error) {
	var skills []models.Skill

	if len(tagIDs) > 0 {
		query := `
            SELECT DISTINCT s.id, s.name FROM skills s
            JOIN skills_tags st ON st.skill_id = s.id
            WHERE st.tag_id = ANY($1)
            ORDER BY s.id
        `
		if err := d.db.SelectContext(ctx, &skills, query, pq.Array(tagIDs)); err != nil {
			return nil, err
		}
	} else {
		query := `SELECT id, name FROM skills ORDER BY id`
		if err := d.db.SelectContext(ctx, &skills, query); err != nil {
			return nil, err
		}
	}

	for i := range skills {
		tags, err := d.getSkillTags(ctx, skills[i].ID)
		if err != nil {
			return nil, err
		}
		skills[i].Tags = tags
	}

	return skills, nil
}

// GetSkillByID получает навык по ID
func (d *Database) GetSkillByID(ctx context.Context, id int64) (*models.Skill, error) {
	var skill models.Skill
	query := `SELECT id, name FROM skills WHERE id = $1`

	err := d.db.GetContext(ctx, &skill, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	tags, err := d.getSkillTags(ctx, id)
	if err != nil {
		return nil, err
	}
	skill.Tags = tags

	return &skill, nil
}

func (d *Database) getSkillTags(ctx context.Context, skillID int64) ([]string, error) {
	var tags []string
	query := `
        SELECT t.name FROM skill_tags t
        JOIN skills_tags st ON st.tag_id = t.id
        WHERE st.skill_id = $1
        ORDER BY t.id
    `

	err := d.db.SelectContext(ctx, &tags, query, skillID)
	if err != nil {
		return nil, err
	}

	return tags, nil
}

// GetSkillTags получает каталог тегов
func (d *Database) GetSkillTags(ctx context.Context) ([]models.SkillTag, error) {
	var tags []models.SkillTag
	query := `SELECT * FROM skill_tags ORDER BY id`

	err := d.db.SelectContext(ctx, &tags, query)
	if err != nil {
		return nil, err
	}

	return tags, nil
}

// GetResponseStatusByName получает статус отклика по имени
func (d *Database) GetResponseStatusByName(ctx context.Context, name string) (*models.ResponseStatus, error) {
	var status models.ResponseStatus
	query := `SELECT * FROM response_statuses WHERE name = $1`

	err := d.db.GetContext(ctx, &status, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &status, nil
}

// GetComplaintReasons получает каталог причин жалоб
func (d *Database) GetComplaintReasons(ctx context.Context) ([]models.ComplaintReason, error) {
	var reasons []models.ComplaintReason
	query := `SELECT * FROM complaint_reasons ORDER BY priority, id`

	err := d.db.SelectContext(ctx, &reasons, query)
	if err != nil {
		return nil, err
	}

	return reasons, nil
}

// GetComplaintReasonByID получает причину жалобы по ID
func (d *Database) GetComplaintReasonByID(ctx context.Context, id int64) (*models.ComplaintReason, error) {
	var reason models.ComplaintReason
	query := `SELECT * FROM complaint_reasons WHERE id = $1`

	err := d.db.GetContext(ctx, &reason, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &reason, nil
}

// Seed заполняет справочники начальными данными. Операция идемпотентна:
// повторный запуск не создает дубликатов и не трогает существующие записи.
func (d *Database) Seed(ctx context.Context) error {
	err := d.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := seedRoles(ctx, tx); err != nil {
			return err
		}
		if err := seedRequirements(ctx, tx); err != nil {
			return err
		}
		if err := seedSkills(ctx, tx); err != nil {
			return err
		}
		if err := seedStatuses(ctx, tx); err != nil {
			return err
		}
		return seedComplaintReasons(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	d.logger.Info("Catalog seed complete")
	return nil
}

func seedRoles(ctx context.Context, tx *sqlx.Tx) error {
	roles := []models.Role{
		{Name: "Worker", ExtrasKind: models.ExtrasWorker},
		{Name: "HR", ExtrasKind: models.ExtrasHR},
		{Name: "Moderator", ExtrasKind: models.ExtrasNone},
	}

	for _, role := range roles {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO roles (name, extras_kind) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			role.Name, role.ExtrasKind)
		if err != nil {
			return err
		}
	}

	return nil
}

func seedRequirements(ctx context.Context, tx *sqlx.Tx) error {
	requirements := []struct {
		name      string
		appliesTo string
		multiple  bool
		options   []string
	}{
		{"Working day", models.RequirementBoth, true, []string{"8 hours", "6 hours", "4 hours"}},
		{"Salary", models.RequirementBoth, false, []string{"10"}},
		{"Education", models.RequirementBoth, true, []string{"Courses", "Bachelor"}},
		{"City", models.RequirementBoth, true, []string{"Kyiv", "Lviv"}},
	}

	for _, req := range requirements {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO requirements (name, applies_to, multiple_answers)
            VALUES ($1, $2, $3)
            ON CONFLICT (name) DO NOTHING
        `, req.name, req.appliesTo, req.multiple)
		if err != nil {
			return err
		}

		var reqID int64
		if err := tx.GetContext(ctx, &reqID, `SELECT id FROM requirements WHERE name = $1`, req.name); err != nil {
			return err
		}

		for _, value := range req.options {
			_, err := tx.ExecContext(ctx, `
                INSERT INTO requirement_options (requirement_id, value)
                VALUES ($1, $2)
                ON CONFLICT (requirement_id, value) DO NOTHING
            `, reqID, value)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func seedSkills(ctx context.Context, tx *sqlx.Tx) error {
	skills := map[string][]string{
		"Django": {"Backend", "Python"},
		"React":  {"Frontend", "JavaScript"},
	}

	for skill, tags := range skills {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO skills (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, skill)
		if err != nil {
			return err
		}

		var skillID int64
		if err := tx.GetContext(ctx, &skillID, `SELECT id FROM skills WHERE name = $1`, skill); err != nil {
			return err
		}

		for _, tag := range tags {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO skill_tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, tag)
			if err != nil {
				return err
			}

			var tagID int64
			if err := tx.GetContext(ctx, &tagID, `SELECT id FROM skill_tags WHERE name = $1`, tag); err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, `
                INSERT INTO skills_tags (skill_id, tag_id)
                VALUES ($1, $2)
                ON CONFLICT (skill_id, tag_id) DO NOTHING
            `, skillID, tagID)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func seedStatuses(ctx context.Context, tx *sqlx.Tx) error {
	statuses := []string{
		models.ResponseCreated,
		models.ResponsePending,
		models.ResponseAccepted,
		models.ResponseRejected,
	}

	for _, status := range statuses {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO response_statuses (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, status)
		if err != nil {
			return err
		}
	}

	return nil
}

func seedComplaintReasons(ctx context.Context, tx *sqlx.Tx) error {
	reasons := []models.ComplaintReason{
		{Name: "Spam", Priority: 1},
		{Name: "Fraud", Priority: 3},
		{Name: "Offensive content", Priority: 2},
	}

	for _, reason := range reasons {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO complaint_reasons (name, priority)
            VALUES ($1, $2)
            ON CONFLICT (name) DO NOTHING
        `, reason.Name, reason.Priority)
		if err != nil {
			return err
		}
	}

	return nil
}
