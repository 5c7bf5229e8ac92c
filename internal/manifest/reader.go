package manifest

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Reader returns the raw bytes of a manifest file. The package repository's
// ManifestCache implements it; OS reads the filesystem directly.
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

type osReader struct{}

func (osReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// OS is the uncached Reader.
var OS Reader = osReader{}

// Or returns r, or OS when r is nil.
func Or(r Reader) Reader {
	if r == nil {
		return OS
	}
	return r
}

// ErrMalformed marks a manifest that exists but is not valid JSON.
var ErrMalformed = errors.New("manifest: malformed json")

// ReadJSON decodes {dir}/{name} into v. It returns fs.ErrNotExist (wrapped)
// for a missing file and ErrMalformed for bad JSON; callers treat both as an
// absent manifest.
func ReadJSON(r Reader, dir, name string, v any) error {
	data, err := Or(r).ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(ErrMalformed, err)
	}
	return nil
}

// IsMissing reports whether err means the manifest file does not exist.
func IsMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
