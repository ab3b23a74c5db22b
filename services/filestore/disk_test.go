package filestore

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
)

func TestDisk(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := d.Save(ctx, core.BucketPayslips, "payslip-1-2024-08-x.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/payslips/payslip-1-2024-08-x.pdf", ref)

	rc, err := d.Open(ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	// names are never overwritten
	_, err = d.Save(ctx, core.BucketPayslips, "payslip-1-2024-08-x.pdf", strings.NewReader("other"))
	assert.Error(t, err)

	require.NoError(t, d.Remove(ref))
	_, err = os.Stat(filepath.Join(d.Root(), core.BucketPayslips, "payslip-1-2024-08-x.pdf"))
	assert.True(t, os.IsNotExist(err))

	_, err = d.Open(ref)
	assert.Equal(t, core.ErrFileMissing, err)
	assert.NoError(t, d.Remove(ref), "removing twice is a no-op")
}

func TestDiskRejectsTraversal(t *testing.T) {
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	_, err = d.Save(context.Background(), core.BucketPayslips, "../escape.pdf", strings.NewReader("x"))
	assert.Error(t, err)

	for _, ref := range []string{"", "/etc/passwd", "/uploads/../secret", "/uploads/payslips/../../x", "/uploads/a/b/c"} {
		_, err = d.Open(ref)
		assert.Equal(t, core.ErrFileMissing, err, ref)
	}
}
