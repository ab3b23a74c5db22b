package filestore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/infort/rh/core"
)

// URLPrefix is the path prefix of every stored file reference.
const URLPrefix = "/uploads/"

var errInvalidRef = errors.New("invalid file reference")

// Disk stores files under a root directory, one sub directory per bucket.
type Disk struct {
	root string
}

var _ core.FileStore = (*Disk)(nil)

func NewDisk(root string) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolving uploads directory")
	}
	for _, bucket := range []string{core.BucketPayslips, core.BucketMedicalCertificates, core.BucketAnnouncements} {
		if err = os.MkdirAll(filepath.Join(abs, bucket), 0o755); err != nil {
			return nil, errors.Wrap(err, "creating bucket directory")
		}
	}
	return &Disk{root: abs}, nil
}

// Root returns the directory files are stored under.
func (d *Disk) Root() string {
	return d.root
}

func (d *Disk) Save(ctx context.Context, bucket, name string, r io.Reader) (string, error) {
	if name != path.Base(name) || strings.HasPrefix(name, ".") {
		return "", errors.Wrap(errInvalidRef, name)
	}
	ref := URLPrefix + bucket + "/" + name
	fp, err := d.resolve(ref)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(fp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		_ = f.Close()
		_ = os.Remove(fp)
		return "", errors.Wrap(err, "writing file")
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(fp)
		return "", errors.Wrap(err, "closing file")
	}
	return ref, nil
}

func (d *Disk) Open(ref string) (io.ReadCloser, error) {
	fp, err := d.resolve(ref)
	if err != nil {
		return nil, core.ErrFileMissing
	}
	f, err := os.Open(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrFileMissing
		}
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (d *Disk) Remove(ref string) error {
	fp, err := d.resolve(ref)
	if err != nil {
		return err
	}
	if err = os.Remove(fp); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}

// resolve maps a reference to a path inside root.
func (d *Disk) resolve(ref string) (string, error) {
	if !strings.HasPrefix(ref, URLPrefix) {
		return "", errors.Wrap(errInvalidRef, ref)
	}
	rel := path.Clean(strings.TrimPrefix(ref, URLPrefix))
	if rel == "." || strings.HasPrefix(rel, "..") || strings.Count(rel, "/") != 1 {
		return "", errors.Wrap(errInvalidRef, ref)
	}
	return filepath.Join(d.root, filepath.FromSlash(rel)), nil
}

// ctxReader stops copying once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
