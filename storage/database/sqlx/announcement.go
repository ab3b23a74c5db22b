package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/announcement"
)

type announcementRepository struct {
	baseRepository
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(exec core.DBExecutor) *announcementRepository {
	return &announcementRepository{baseRepository{exec: exec}}
}

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	id, err := insertReturningID(ctx, repo.getExec(exec),
		"INSERT INTO announcements (title, content, image_url, created_at) VALUES (?, ?, ?, ?)",
		ann.Title, ann.Content, ann.ImageURL, ann.Date.UTC(),
	)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	ann.ID = id
	return ann, nil
}

func (repo announcementRepository) QueryAnnouncements(ctx context.Context, exec ...core.DBExecutor) ([]announcement.Announcement, error) {
	anns := make([]announcement.Announcement, 0)
	err := sel(ctx, repo.getExec(exec), &anns,
		"SELECT id, title, content, image_url, created_at FROM announcements ORDER BY created_at, id",
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	return anns, nil
}
