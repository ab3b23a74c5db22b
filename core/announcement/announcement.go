package announcement

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/infort/rh/core"
)

var errContentOrImage = errors.New("either content or an image is required")

type Announcement struct {
	ID       int         `json:"id" db:"id"`
	Title    string      `json:"title" db:"title"`
	Content  null.String `json:"content" db:"content"`
	ImageURL null.String `json:"imageUrl" db:"image_url"`
	Date     time.Time   `json:"date" db:"created_at"`
}

type NewAnnouncement struct {
	Title    string `json:"title" form:"title" validate:"required"`
	Content  string `json:"content" form:"content"`
	ImageURL string `json:"imageUrl" form:"imageUrl" validate:"omitempty,uri"`
}

func (na *NewAnnouncement) Clean() {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	na.ImageURL = core.CleanString(na.ImageURL)
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Clean()
	return validate.Struct(na)
}

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, ann Announcement, exec ...core.DBExecutor) (Announcement, error)
		// QueryAnnouncements returns every announcement, oldest first.
		QueryAnnouncements(ctx context.Context, exec ...core.DBExecutor) ([]Announcement, error)
	}

	Service struct {
		repo  Repository
		files core.FileStore
	}
)

func NewService(repo Repository, files core.FileStore) *Service {
	return &Service{repo: repo, files: files}
}

// Publish creates an announcement. An uploaded image takes precedence over NewAnnouncement.ImageURL.
func (svc *Service) Publish(ctx context.Context, na NewAnnouncement, image *core.Upload) (Announcement, error) {
	na.Clean()
	if na.Title == "" {
		return Announcement{}, core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field is required"})
	}
	if na.Content == "" && na.ImageURL == "" && image == nil {
		return Announcement{}, core.NewValidationError(errContentOrImage, core.FieldError{Field: "content", Error: errContentOrImage.Error()})
	}

	ann := Announcement{Title: na.Title, Date: time.Now().UTC()}
	if na.Content != "" {
		ann.Content = null.StringFrom(na.Content)
	}
	if na.ImageURL != "" {
		ann.ImageURL = null.StringFrom(na.ImageURL)
	}

	var saved string
	if image != nil {
		name := fmt.Sprintf("announcement-%s%s", uuid.NewString(), path.Ext(image.Filename))
		ref, err := svc.files.Save(ctx, core.BucketAnnouncements, name, image.Content)
		if err != nil {
			return Announcement{}, errors.Wrap(err, "saving announcement image")
		}
		saved = ref
		ann.ImageURL = null.StringFrom(ref)
	}

	ann, err := svc.repo.CreateAnnouncement(ctx, ann)
	if err != nil {
		if saved != "" {
			_ = svc.files.Remove(saved)
		}
		return Announcement{}, errors.Wrap(err, "creating announcement")
	}
	return ann, nil
}

func (svc *Service) List(ctx context.Context) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx)
}
