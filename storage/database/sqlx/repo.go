// Package sqlxrepos implements the domain repositories on top of jmoiron/sqlx.
// Queries use `?` placeholders and are rebound for the executor's driver.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/infort/rh/core"
)

type baseRepository struct {
	exec core.DBExecutor
}

func (repo baseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps sql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func get(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	return exec.GetContext(ctx, dest, exec.Rebind(query), args...)
}

func sel(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	return exec.SelectContext(ctx, dest, exec.Rebind(query), args...)
}

// in expands slice arguments (`IN (?)`) before running a select.
func selIn(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return sel(ctx, exec, dest, query, args...)
}

func execIn(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (sql.Result, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	return exec.ExecContext(ctx, exec.Rebind(query), args...)
}

func insertReturningID(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (int, error) {
	var id int
	err := get(ctx, exec, &id, query+" RETURNING id", args...)
	return id, err
}

// setStatus is the compare-and-set shared by request tables.
func setStatus(ctx context.Context, exec core.DBExecutor, table string, id int, from, to interface{}, at interface{}) (bool, error) {
	res, err := exec.ExecContext(ctx, exec.Rebind(
		"UPDATE "+table+" SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
	), to, at, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
