package upload

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PathPrefix is prepended to stored names in the paths handed to callers;
// files are served back under /uploads/.
const PathPrefix = "uploads/"

var (
	ErrStorageIO = errors.New("upload storage failure")
	ErrNotFound  = errors.New("upload not found")
)

// Object is an opened upload ready to be streamed.
type Object struct {
	io.ReadSeekCloser
	Name    string
	ModTime time.Time
}

type Store interface {
	// Save stores data under a fresh random name and returns "uploads/<name>".
	Save(ctx context.Context, data []byte, originalName string) (string, error)
	Open(ctx context.Context, name string) (*Object, error)
	// Remove deletes an object given the path Save returned.
	Remove(ctx context.Context, path string) error
}

// imageTypes lists the extensions kept on stored names and the only types
// served inline.
var imageTypes = map[string]string{
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// newObjectName keeps the client's extension when it is a known image type.
func newObjectName(originalName string) string {
	return uuid.New().String() + extension(originalName)
}

func extension(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if _, ok := imageTypes[ext]; !ok {
		return ""
	}
	return ext
}

// contentType reports the image type for a stored name.
func contentType(name string) (string, bool) {
	ct, ok := imageTypes[strings.ToLower(filepath.Ext(name))]
	return ct, ok
}

// nameFromPath strips PathPrefix and rejects anything that is not a bare name.
func nameFromPath(path string) (string, bool) {
	name := strings.TrimPrefix(path, PathPrefix)
	return name, validName(name)
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
