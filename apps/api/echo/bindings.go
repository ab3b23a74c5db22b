package echoapi

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infort/rh/core"
)

// accepted upload types
var (
	pdfTypes         = []string{"application/pdf"}
	certificateTypes = []string{"application/pdf", "image/jpeg", "image/png"}
	imageTypes       = []string{"image/jpeg", "image/png", "image/gif"}
)

func paramID(ctx echo.Context, name ...string) (int, error) {
	param := "id"
	if len(name) > 0 {
		param = name[0]
	}
	id, err := strconv.Atoi(ctx.Param(param))
	if err != nil || id <= 0 {
		return 0, errInvalidIDPath
	}
	return id, nil
}

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

type uploadRules struct {
	maxSize int64
}

// formFile is an uploaded file whose content type was sniffed from its first bytes.
type formFile struct {
	core.Upload
	file multipart.File
}

// Ref returns the upload to hand to services; nil when no file was sent.
func (f *formFile) Ref() *core.Upload {
	if f == nil {
		return nil
	}
	return &f.Upload
}

func (f *formFile) Close() error {
	if f == nil {
		return nil
	}
	return f.file.Close()
}

// file reads the multipart file `field`. It returns nil (and no error) when the field is absent
// and a validation error when the file is too large or not of one of the allowed types.
func (rules uploadRules) file(ctx echo.Context, field string, allowed ...string) (*formFile, error) {
	if !isMultipart(ctx) {
		return nil, nil
	}
	fh, err := ctx.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading form file %q", field)
	}
	if fh.Size == 0 {
		return nil, fieldError(field, "file is empty")
	}
	if fh.Size > rules.maxSize {
		return nil, fieldError(field, fmt.Sprintf("file must not exceed %d MB", rules.maxSize>>20))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "opening form file %q", field)
	}
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "detecting type of %q", field)
	}
	if !mimeAllowed(mtype, allowed) {
		_ = f.Close()
		return nil, fieldError(field, "file type not allowed, expected one of: "+strings.Join(allowed, ", "))
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "rewinding form file %q", field)
	}

	return &formFile{
		Upload: core.Upload{
			Filename:    fh.Filename,
			ContentType: mtype.String(),
			Size:        fh.Size,
			Content:     f,
		},
		file: f,
	}, nil
}

func mimeAllowed(mtype *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mtype.Is(a) {
			return true
		}
	}
	return false
}

func fieldError(field, msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: field, Error: msg})
}

// sendFile streams a stored file as an attachment.
func sendFile(ctx echo.Context, rc io.ReadCloser, filename string) error {
	defer rc.Close()

	ctype := mime.TypeByExtension(filepath.Ext(filename))
	if ctype == "" {
		ctype = echo.MIMEOctetStream
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Stream(http.StatusOK, ctype, rc)
}
