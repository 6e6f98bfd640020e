package services

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"jobdesk/internal/models"
	"jobdesk/pkg/apperr"
)

// RoleStore операции хранилища, нужные управлению ролями
type RoleStore interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	GetRoleByName(ctx context.Context, name string) (*models.Role, error)
	ListUserRoles(ctx context.Context, userID int64) ([]models.Role, error)
	HasUserRole(ctx context.Context, userID, roleID int64) (bool, error)
	InsertUserRole(ctx context.Context, tx *sqlx.Tx, userID, roleID int64) error
	DeleteUserRole(ctx context.Context, tx *sqlx.Tx, userID, roleID int64) error
	CreateWorkerExtras(ctx context.Context, tx *sqlx.Tx, userID int64) (*models.WorkerExtras, error)
	CreateHRExtras(ctx context.Context, tx *sqlx.Tx, userID int64) (*models.HRExtras, error)
	GetWorkerExtrasByUser(ctx context.Context, userID int64) (*models.WorkerExtras, error)
	GetHRExtrasByUser(ctx context.Context, userID int64) (*models.HRExtras, error)
	DeleteWorkerExtrasByUser(ctx context.Context, tx *sqlx.Tx, userID int64) error
	DeleteHRExtrasByUser(ctx context.Context, tx *sqlx.Tx, userID int64) error
}

// RoleService управляет ролями пользователей и привязанными к ним
// расширениями профиля. Вид расширения определяется записью роли в каталоге,
// без рефлексии.
type RoleService struct {
	db     RoleStore
	logger *zap.Logger
}

// NewRoleService создает RoleService
func NewRoleService(db RoleStore, logger *zap.Logger) *RoleService {
	return &RoleService{
		db:     db,
		logger: logger,
	}
}

// AddRole выдает пользователю роль и атомарно создает расширение профиля,
// если роль его требует. Возвращает роль и созданное расширение либо nil,
// если роль расширения не требует. Неизвестная роль дает NotFound, повторная
// выдача той же роли дает Conflict.
func (s *RoleService) AddRole(ctx context.Context, userID int64, roleName string) (*models.Role, interface{}, error) {
	role, err := s.db.GetRoleByName(ctx, roleName)
	if err != nil {
		return nil, nil, err
	}
	if role == nil {
		return nil, nil, apperr.New(apperr.NotFound, "role %q does not exist", roleName)
	}

	var extras interface{}
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.db.InsertUserRole(ctx, tx, userID, role.ID); err != nil {
			return err
		}

		switch role.ExtrasKind {
		case models.ExtrasWorker:
			created, err := s.db.CreateWorkerExtras(ctx, tx, userID)
			if err != nil {
				return err
			}
			extras = created
		case models.ExtrasHR:
			created, err := s.db.CreateHRExtras(ctx, tx, userID)
			if err != nil {
				return err
			}
			extras = created
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Role granted",
		zap.Int64("user_id", userID),
		zap.String("role", roleName))

	return role, extras, nil
}

// DeleteRole снимает роль с пользователя. Сначала удаляется расширение
// профиля (идемпотентно), затем связка с ролью. Отсутствие роли дает NotFound.
func (s *RoleService) DeleteRole(ctx context.Context, userID int64, roleName string) error {
	role, err := s.db.GetRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	if role == nil {
		return apperr.New(apperr.NotFound, "role %q does not exist", roleName)
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		switch role.ExtrasKind {
		case models.ExtrasWorker:
			if err := s.db.DeleteWorkerExtrasByUser(ctx, tx, userID); err != nil {
				return err
			}
		case models.ExtrasHR:
			if err := s.db.DeleteHRExtrasByUser(ctx, tx, userID); err != nil {
				return err
			}
		}
		return s.db.DeleteUserRole(ctx, tx, userID, role.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Role revoked",
		zap.Int64("user_id", userID),
		zap.String("role", roleName))

	return nil
}

// ListRoles получает роли пользователя
func (s *RoleService) ListRoles(ctx context.Context, userID int64) ([]models.Role, error) {
	return s.db.ListUserRoles(ctx, userID)
}

// HasRole проверяет, что пользователь держит роль с данным именем
func (s *RoleService) HasRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	role, err := s.db.GetRoleByName(ctx, roleName)
	if err != nil {
		return false, err
	}
	if role == nil {
		return false, nil
	}
	return s.db.HasUserRole(ctx, userID, role.ID)
}

// GetExtrasForRole получает расширение профиля пользователя для роли.
// Отсутствие роли у пользователя и отсутствие самого расширения различимы:
// первое дает Forbidden, второе NotFound.
func (s *RoleService) GetExtrasForRole(ctx context.Context, userID int64, roleName string) (json.RawMessage, error) {
	role, err := s.db.GetRoleByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, apperr.New(apperr.NotFound, "role %q does not exist", roleName)
	}

	held, err := s.db.HasUserRole(ctx, userID, role.ID)
	if err != nil {
		return nil, err
	}
	if !held {
		return nil, apperr.New(apperr.Forbidden, "user does not hold role %q", roleName)
	}

	switch role.ExtrasKind {
	case models.ExtrasWorker:
		extras, err := s.db.GetWorkerExtrasByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if extras == nil {
			return nil, apperr.New(apperr.NotFound, "worker extras are missing")
		}
		return json.Marshal(extras)
	case models.ExtrasHR:
		extras, err := s.db.GetHRExtrasByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if extras == nil {
			return nil, apperr.New(apperr.NotFound, "hr extras are missing")
		}
		return json.Marshal(extras)
	}

	return nil, apperr.New(apperr.NotFound, "role %q has no extras", roleName)
}

// WorkerExtrasOf получает WorkerExtras пользователя или Forbidden
func (s *RoleService) WorkerExtrasOf(ctx context.Context, userID int64) (*models.WorkerExtras, error) {
	extras, err := s.db.GetWorkerExtrasByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if extras == nil {
		return nil, apperr.New(apperr.Forbidden, "user is not a worker")
	}
	return extras, nil
}

// HRExtrasOf получает HRExtras пользователя или Forbidden
func (s *RoleService) HRExtrasOf(ctx context.Context, userID int64) (*models.HRExtras, error) {
	extras, err := s.db.GetHRExtrasByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if extras == nil {
		return nil, apperr.New(apperr.Forbidden, "user is not an hr")
	}
	return extras, nil
}
