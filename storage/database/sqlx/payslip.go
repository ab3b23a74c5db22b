package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/payslip"
	"github.com/infort/rh/storage/database"
)

const payslipSelect = `SELECT p.id, p.user_id, u.name AS user_name, p.month, p.year, p.file_url, p.created_at
	FROM payslips p JOIN users u ON u.id = p.user_id`

type payslipRepository struct {
	baseRepository
}

var _ payslip.Repository = (*payslipRepository)(nil) // interface compliance check

func NewPayslipRepository(exec core.DBExecutor) *payslipRepository {
	return &payslipRepository{baseRepository{exec: exec}}
}

func (repo payslipRepository) CreatePayslip(ctx context.Context, ps payslip.Payslip, exec ...core.DBExecutor) (payslip.Payslip, error) {
	id, err := insertReturningID(ctx, repo.getExec(exec),
		"INSERT INTO payslips (user_id, month, year, file_url, created_at) VALUES (?, ?, ?, ?, ?)",
		ps.UserID, ps.Month, ps.Year, ps.FileURL, ps.CreatedAt.UTC(),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return payslip.Payslip{}, payslip.ErrDuplicate
		}
		return payslip.Payslip{}, errors.Wrap(err, "inserting payslip")
	}
	ps.ID = id
	return ps, nil
}

func (repo payslipRepository) GetPayslip(ctx context.Context, id int, exec ...core.DBExecutor) (payslip.Payslip, error) {
	var ps payslip.Payslip
	if err := get(ctx, repo.getExec(exec), &ps, payslipSelect+" WHERE p.id = ?", id); err != nil {
		return payslip.Payslip{}, trapNoRowsErr(err, payslip.ErrNotFound, "getting payslip")
	}
	return ps, nil
}

func (repo payslipRepository) QueryPayslips(ctx context.Context, filter payslip.ListFilter, exec ...core.DBExecutor) ([]payslip.Payslip, error) {
	query := payslipSelect
	var args []interface{}
	if filter.UserID != 0 {
		query += " WHERE p.user_id = ?"
		args = append(args, filter.UserID)
	}
	query += " ORDER BY p.year DESC, p.month DESC, u.name"

	slips := make([]payslip.Payslip, 0)
	if err := sel(ctx, repo.getExec(exec), &slips, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying payslips")
	}
	return slips, nil
}
