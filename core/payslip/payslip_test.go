package payslip_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/payslip"
	"github.com/infort/rh/core/user"
	"github.com/infort/rh/services/filestore"
	sqlxrepos "github.com/infort/rh/storage/database/sqlx"
	"github.com/infort/rh/testutil"
)

func pdf(content string) core.Upload {
	return core.Upload{Filename: "holerite.pdf", ContentType: "application/pdf", Content: strings.NewReader(content)}
}

func TestPayslips(t *testing.T) {
	conf := testutil.Config(t)
	db := testutil.OpenDB(t, conf)
	userRepo := sqlxrepos.NewUserRepository(db)
	files, err := filestore.NewDisk(conf.Uploads.Dir)
	require.NoError(t, err)
	svc := payslip.NewService(sqlxrepos.NewPayslipRepository(db), user.NewService(userRepo, nil, conf), files)
	ctx := context.Background()

	ana := testutil.CreateUser(t, userRepo, "Ana", "ana@infort.test", "secret", user.RoleEmployee, user.StatusActive)
	bob := testutil.CreateUser(t, userRepo, "Bruno", "bruno@infort.test", "secret", user.RoleEmployee, user.StatusActive)
	carlos := testutil.CreateUser(t, userRepo, "Carlos", "carlos@infort.test", "secret", user.RoleHR, user.StatusActive)

	countFiles := func() int {
		entries, err := os.ReadDir(filepath.Join(files.Root(), core.BucketPayslips))
		require.NoError(t, err)
		return len(entries)
	}

	_, err = svc.Upload(ctx, payslip.NewPayslip{UserID: ana.ID, Month: 13, Year: 2024}, pdf("x"))
	assert.IsType(t, &core.ValidationError{}, err)
	_, err = svc.Upload(ctx, payslip.NewPayslip{UserID: 999, Month: 1, Year: 2024}, pdf("x"))
	assert.Equal(t, user.ErrNotFound, err)

	for _, p := range []payslip.NewPayslip{
		{UserID: ana.ID, Month: 11, Year: 2023},
		{UserID: ana.ID, Month: 2, Year: 2024},
		{UserID: ana.ID, Month: 7, Year: 2024},
		{UserID: bob.ID, Month: 7, Year: 2024},
	} {
		_, err = svc.Upload(ctx, p, pdf("%PDF-1.4"))
		require.NoError(t, err)
	}
	assert.Equal(t, 4, countFiles())

	t.Run("duplicate period", func(t *testing.T) {
		_, err := svc.Upload(ctx, payslip.NewPayslip{UserID: ana.ID, Month: 7, Year: 2024}, pdf("again"))
		assert.Equal(t, payslip.ErrDuplicate, err)
		assert.Equal(t, 4, countFiles(), "no file left behind")
		slips, err := svc.ListFor(ctx, ana.ID)
		require.NoError(t, err)
		assert.Len(t, slips, 3)
	})

	t.Run("newest period first", func(t *testing.T) {
		slips, err := svc.ListFor(ctx, ana.ID)
		require.NoError(t, err)
		periods := make([][2]int, len(slips))
		for i, s := range slips {
			periods[i] = [2]int{s.Year, s.Month}
		}
		assert.Equal(t, [][2]int{{2024, 7}, {2024, 2}, {2023, 11}}, periods)
		assert.Equal(t, "Ana", slips[0].UserName)
		assert.Contains(t, slips[0].FileURL, "/uploads/payslips/payslip-")

		all, err := svc.List(ctx, payslip.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("download", func(t *testing.T) {
		slips, err := svc.ListFor(ctx, ana.ID)
		require.NoError(t, err)
		id := slips[0].ID

		for _, requester := range []user.User{ana, carlos} {
			rc, name, err := svc.Open(ctx, requester, id)
			require.NoError(t, err)
			data, _ := io.ReadAll(rc)
			_ = rc.Close()
			assert.Equal(t, "%PDF-1.4", string(data))
			assert.True(t, strings.HasPrefix(name, "payslip-"))
		}

		_, _, err = svc.Open(ctx, bob, id)
		assert.Equal(t, core.ErrPermissionDenied, err)
		_, _, err = svc.Open(ctx, ana, 999)
		assert.Equal(t, payslip.ErrNotFound, err)

		require.NoError(t, files.Remove(slips[0].FileURL))
		_, _, err = svc.Open(ctx, ana, id)
		assert.Equal(t, core.ErrFileMissing, err)
	})
}
