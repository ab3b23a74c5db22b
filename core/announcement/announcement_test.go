package announcement_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/announcement"
	"github.com/infort/rh/services/filestore"
	sqlxrepos "github.com/infort/rh/storage/database/sqlx"
	"github.com/infort/rh/testutil"
)

func TestPublish(t *testing.T) {
	conf := testutil.Config(t)
	db := testutil.OpenDB(t, conf)
	files, err := filestore.NewDisk(conf.Uploads.Dir)
	require.NoError(t, err)
	svc := announcement.NewService(sqlxrepos.NewAnnouncementRepository(db), files)
	ctx := context.Background()

	tests := []struct {
		name    string
		na      announcement.NewAnnouncement
		image   *core.Upload
		wantErr bool
	}{
		{name: "no title", na: announcement.NewAnnouncement{Content: "texto"}, wantErr: true},
		{name: "neither content nor image", na: announcement.NewAnnouncement{Title: "Aviso", Content: "   "}, wantErr: true},
		{name: "content only", na: announcement.NewAnnouncement{Title: "Aviso", Content: "Expediente reduzido"}},
		{name: "image url only", na: announcement.NewAnnouncement{Title: "Festa", ImageURL: "https://cdn.infort.test/festa.png"}},
		{
			name:  "uploaded image",
			na:    announcement.NewAnnouncement{Title: "Campanha"},
			image: &core.Upload{Filename: "campanha.png", ContentType: "image/png", Content: strings.NewReader("\x89PNG")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ann, err := svc.Publish(ctx, tt.na, tt.image)
			if tt.wantErr {
				assert.IsType(t, &core.ValidationError{}, err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, ann.ID)
			assert.True(t, ann.Content.Valid || ann.ImageURL.Valid)
			if tt.image != nil {
				assert.True(t, strings.HasPrefix(ann.ImageURL.String, "/uploads/announcements/announcement-"))
				assert.True(t, strings.HasSuffix(ann.ImageURL.String, ".png"))
			}
		})
	}

	anns, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, anns, 3)
	assert.Equal(t, []string{"Aviso", "Festa", "Campanha"}, []string{anns[0].Title, anns[1].Title, anns[2].Title})
	assert.False(t, anns[1].Content.Valid)
}
