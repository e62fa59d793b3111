package users

import (
	"context"
	"fmt"

	"siap/internal/repository"
	custom_error "siap/pkg/errors"
	"siap/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type UserRepository interface {
	PersistUser(ctx context.Context, req models.CreateUserRequest, hashedPassword []byte) (int, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int, changes *models.UserChanges) error
}

var userColumns = []interface{}{"id", "username", "fullname", "email", "password_hash", "role", "is_active", "external_id", "token_version"}

type UsersRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *UsersRepository {
	return &UsersRepository{repository: r}
}

func (r *UsersRepository) WithTransaction(ctx context.Context, fn func(tx *goqu.TxDatabase) error) error {
	return r.repository.WithTransaction(ctx, fn)
}

func (r *UsersRepository) PersistUser(ctx context.Context, req models.CreateUserRequest, hashedPassword []byte) (int, error) {
	query := r.repository.GoquDBWrapper.Insert("users").
		Rows(goqu.Record{
			"password_hash": string(hashedPassword),
			"username":      req.Username,
			"fullname":      req.Fullname,
			"email":         req.Email,
			"role":          req.Role,
		}).
		Returning("id")

	var id int
	if _, err := query.Executor().ScanValContext(ctx, &id); err != nil {
		return 0, custom_error.FromPQ(err, fmt.Sprintf("failed to insert user %s", req.Username))
	}
	return id, nil
}

func (r *UsersRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	query := r.repository.GoquDBWrapper.From("users").
		Select(userColumns...).
		Order(goqu.C("username").Asc())

	if err := query.ScanStructsContext(ctx, &users); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return users, nil
}

func (r *UsersRepository) findOne(ctx context.Context, where goqu.Ex, key interface{}) (*models.User, error) {
	var user models.User
	found, err := r.repository.GoquDBWrapper.From("users").
		Select(userColumns...).
		Where(where).
		ScanStructContext(ctx, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("user", key)
	}
	return &user, nil
}

func (r *UsersRepository) GetUser(ctx context.Context, id int) (*models.User, error) {
	return r.findOne(ctx, goqu.Ex{"id": id}, id)
}

func (r *UsersRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, goqu.Ex{"username": username}, username)
}

// GetSessionState backs the JWT middleware revocation check.
func (r *UsersRepository) GetSessionState(ctx context.Context, userID int) (bool, int, error) {
	var state struct {
		IsActive     bool `db:"is_active"`
		TokenVersion int  `db:"token_version"`
	}
	found, err := r.repository.GoquDBWrapper.From("users").
		Select("is_active", "token_version").
		Where(goqu.Ex{"id": userID}).
		ScanStructContext(ctx, &state)
	if err != nil {
		return false, 0, fmt.Errorf("failed to read session of user %d: %w", userID, err)
	}
	if !found {
		return false, 0, nil
	}
	return state.IsActive, state.TokenVersion, nil
}

func (r *UsersRepository) UpdateUser(ctx context.Context, id int, changes *models.UserChanges) error {
	record := goqu.Record{}
	if changes.Fullname != nil {
		record["fullname"] = *changes.Fullname
	}
	if changes.Email != nil {
		record["email"] = *changes.Email
	}
	if changes.PasswordHash != nil {
		record["password_hash"] = *changes.PasswordHash
	}
	if changes.Role != nil {
		record["role"] = *changes.Role
	}
	if changes.IsActive != nil {
		record["is_active"] = *changes.IsActive
	}
	if changes.RevokesSessions() {
		record["token_version"] = goqu.L("token_version + 1")
	}
	if len(record) == 0 {
		return nil
	}

	result, err := r.repository.GoquDBWrapper.Update("users").
		Set(record).
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return custom_error.FromPQ(err, fmt.Sprintf("failed to update user %d", id))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows of user %d: %w", id, err)
	}
	if affected == 0 {
		return custom_error.NewNotFound("user", id)
	}
	return nil
}

// External directory

func (r *UsersRepository) ListExternalUsers(ctx context.Context, tx *goqu.TxDatabase) ([]models.User, error) {
	var users []models.User
	query := r.repository.Runner(tx).From("users").
		Select(userColumns...).
		Where(goqu.C("external_id").IsNotNull())

	if err := query.ScanStructsContext(ctx, &users); err != nil {
		return nil, fmt.Errorf("unable to list directory users: %w", err)
	}
	return users, nil
}

func (r *UsersRepository) InsertExternalUser(ctx context.Context, tx *goqu.TxDatabase, user *models.User) (int, error) {
	query := r.repository.Runner(tx).Insert("users").
		Rows(goqu.Record{
			"username":      user.Username,
			"fullname":      user.Fullname,
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"role":          user.Role,
			"is_active":     user.IsActive,
			"external_id":   user.ExternalID,
		}).
		Returning("id")

	var id int
	if _, err := query.Executor().ScanValContext(ctx, &id); err != nil {
		return 0, custom_error.FromPQ(err, fmt.Sprintf("failed to insert directory user %s", user.Username))
	}
	return id, nil
}

// UpdateExternalUser writes directory-owned fields. Passwords stay local.
func (r *UsersRepository) UpdateExternalUser(ctx context.Context, tx *goqu.TxDatabase, user *models.User, revoke bool) error {
	record := goqu.Record{
		"username":  user.Username,
		"fullname":  user.Fullname,
		"email":     user.Email,
		"role":      user.Role,
		"is_active": user.IsActive,
	}
	if revoke {
		record["token_version"] = goqu.L("token_version + 1")
	}

	_, err := r.repository.Runner(tx).Update("users").
		Set(record).
		Where(goqu.Ex{"id": user.ID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return custom_error.FromPQ(err, fmt.Sprintf("failed to update directory user %s", user.Username))
	}
	return nil
}
