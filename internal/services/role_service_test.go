package services

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobdesk/internal/models"
	"jobdesk/pkg/apperr"
)

type fakeRoleStore struct {
	roles     map[string]*models.Role
	userRoles map[int64]map[int64]struct{}
	workers   map[int64]*models.WorkerExtras
	hrs       map[int64]*models.HRExtras
	nextID    int64
}

func newFakeRoleStore(roles ...*models.Role) *fakeRoleStore {
	f := &fakeRoleStore{
		roles:     make(map[string]*models.Role),
		userRoles: make(map[int64]map[int64]struct{}),
		workers:   make(map[int64]*models.WorkerExtras),
		hrs:       make(map[int64]*models.HRExtras),
		nextID:    1,
	}
	for _, role := range roles {
		f.roles[role.Name] = role
	}
	return f
}

func (f *fakeRoleStore) WithTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

func (f *fakeRoleStore) GetRoleByName(_ context.Context, name string) (*models.Role, error) {
	return f.roles[name], nil
}

func (f *fakeRoleStore) ListUserRoles(_ context.Context, userID int64) ([]models.Role, error) {
	var out []models.Role
	for _, role := range f.roles {
		if _, ok := f.userRoles[userID][role.ID]; ok {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (f *fakeRoleStore) HasUserRole(_ context.Context, userID, roleID int64) (bool, error) {
	_, ok := f.userRoles[userID][roleID]
	return ok, nil
}

func (f *fakeRoleStore) InsertUserRole(_ context.Context, _ *sqlx.Tx, userID, roleID int64) error {
	held, ok := f.userRoles[userID]
	if !ok {
		held = make(map[int64]struct{})
		f.userRoles[userID] = held
	}
	if _, exists := held[roleID]; exists {
		return apperr.New(apperr.Conflict, "user already holds this role")
	}
	held[roleID] = struct{}{}
	return nil
}

func (f *fakeRoleStore) DeleteUserRole(_ context.Context, _ *sqlx.Tx, userID, roleID int64) error {
	delete(f.userRoles[userID], roleID)
	return nil
}

func (f *fakeRoleStore) CreateWorkerExtras(_ context.Context, _ *sqlx.Tx, userID int64) (*models.WorkerExtras, error) {
	extras := &models.WorkerExtras{ID: f.nextID, UserID: userID}
	f.nextID++
	f.workers[userID] = extras
	return extras, nil
}

func (f *fakeRoleStore) CreateHRExtras(_ context.Context, _ *sqlx.Tx, userID int64) (*models.HRExtras, error) {
	extras := &models.HRExtras{ID: f.nextID, UserID: userID}
	f.nextID++
	f.hrs[userID] = extras
	return extras, nil
}

func (f *fakeRoleStore) GetWorkerExtrasByUser(_ context.Context, userID int64) (*models.WorkerExtras, error) {
	return f.workers[userID], nil
}

func (f *fakeRoleStore) GetHRExtrasByUser(_ context.Context, userID int64) (*models.HRExtras, error) {
	return f.hrs[userID], nil
}

func (f *fakeRoleStore) DeleteWorkerExtrasByUser(_ context.Context, _ *sqlx.Tx, userID int64) error {
	delete(f.workers, userID)
	return nil
}

func (f *fakeRoleStore) DeleteHRExtrasByUser(_ context.Context, _ *sqlx.Tx, userID int64) error {
	delete(f.hrs, userID)
	return nil
}

func testRoles() []*models.Role {
	return []*models.Role{
		{ID: 1, Name: "Worker", ExtrasKind: models.ExtrasWorker},
		{ID: 2, Name: "HR", ExtrasKind: models.ExtrasHR},
		{ID: 3, Name: "Moderator", ExtrasKind: models.ExtrasNone},
	}
}

func TestAddRoleReturnsCreatedExtras(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		wantKind models.ExtrasKind
	}{
		{"worker role creates worker extras", "Worker", models.ExtrasWorker},
		{"hr role creates hr extras", "HR", models.ExtrasHR},
		{"moderator role has no extras", "Moderator", models.ExtrasNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeRoleStore(testRoles()...)
			svc := NewRoleService(store, zap.NewNop())

			role, extras, err := svc.AddRole(context.Background(), 42, tt.role)
			require.NoError(t, err)
			require.NotNil(t, role)
			assert.Equal(t, tt.role, role.Name)

			switch tt.wantKind {
			case models.ExtrasWorker:
				created, ok := extras.(*models.WorkerExtras)
				require.True(t, ok)
				assert.Equal(t, int64(42), created.UserID)
				assert.NotZero(t, created.ID)
			case models.ExtrasHR:
				created, ok := extras.(*models.HRExtras)
				require.True(t, ok)
				assert.Equal(t, int64(42), created.UserID)
				assert.NotZero(t, created.ID)
			default:
				assert.Nil(t, extras)
			}
		})
	}
}

func TestAddRoleUnknownRole(t *testing.T) {
	store := newFakeRoleStore(testRoles()...)
	svc := NewRoleService(store, zap.NewNop())

	role, extras, err := svc.AddRole(context.Background(), 42, "Admin")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Nil(t, role)
	assert.Nil(t, extras)
}

func TestAddRoleTwiceConflicts(t *testing.T) {
	store := newFakeRoleStore(testRoles()...)
	svc := NewRoleService(store, zap.NewNop())

	_, _, err := svc.AddRole(context.Background(), 42, "Worker")
	require.NoError(t, err)

	_, _, err = svc.AddRole(context.Background(), 42, "Worker")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestDeleteRoleRemovesExtras(t *testing.T) {
	store := newFakeRoleStore(testRoles()...)
	svc := NewRoleService(store, zap.NewNop())

	_, _, err := svc.AddRole(context.Background(), 42, "Worker")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRole(context.Background(), 42, "Worker"))

	held, err := svc.HasRole(context.Background(), 42, "Worker")
	require.NoError(t, err)
	assert.False(t, held)
	assert.Nil(t, store.workers[42])
}
