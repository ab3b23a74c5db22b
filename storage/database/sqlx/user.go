package sqlxrepos

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/user"
	"github.com/infort/rh/storage/database"
)

const userColumns = "id, name, email, password, role, needs_password_setup, status, created_at, updated_at"

type userRepository struct {
	baseRepository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{baseRepository{exec: exec}}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	id, err := insertReturningID(ctx, repo.getExec(exec),
		`INSERT INTO users (name, email, password, role, needs_password_setup, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		usr.Name, usr.Email, usr.PasswordHash, usr.Role, usr.NeedsPasswordSetup, usr.Status, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.ID = id
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != 0:
		where, arg = "id = ?", filter.ID
	case filter.Email != "":
		where, arg = "email = ?", strings.ToLower(filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	err := get(ctx, repo.getExec(exec), &usr, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, exec ...core.DBExecutor) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		conds = append(conds, "(LOWER(name) LIKE ? OR email LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	if len(filter.IDs) > 0 {
		conds = append(conds, "id IN (?)")
		args = append(args, filter.IDs)
	}

	query := "SELECT " + userColumns + " FROM users"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name, id"

	users := make([]user.User, 0)
	if err := selIn(ctx, repo.getExec(exec), &users, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, repo.getExec(exec).Rebind(
		`UPDATE users SET name = ?, email = ?, password = ?, role = ?, needs_password_setup = ?, status = ?, updated_at = ?
		WHERE id = ?`),
		usr.Name, usr.Email, usr.PasswordHash, usr.Role, usr.NeedsPasswordSetup, usr.Status, usr.UpdatedAt.UTC(), usr.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
