package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infort/rh/core"
)

func Test_sqliteDSN(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: ":memory:", want: ":memory:?_pragma=foreign_keys(1)"},
		{url: "data/rh.db", want: "data/rh.db?_pragma=foreign_keys(1)"},
		{url: "file:rh.db?cache=shared", want: "file:rh.db?cache=shared&_pragma=foreign_keys(1)"},
		{url: "rh.db?_pragma=foreign_keys(0)", want: "rh.db?_pragma=foreign_keys(0)"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.url))
		})
	}
}

func TestOpen_sqliteForeignKeysOnEveryConnection(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{Engine: SQLite, URL: filepath.Join(t.TempDir(), "rh.db")}}
	db, err := Open(conf)
	require.NoError(t, err)
	defer db.Close()

	db.SetMaxOpenConns(3)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		conn, err := db.Connx(ctx)
		require.NoError(t, err)
		defer conn.Close()

		var on int
		require.NoError(t, conn.GetContext(ctx, &on, "PRAGMA foreign_keys"))
		assert.Equal(t, 1, on, "connection %d", i)
	}
}
