// Package media serves the files shipped under a package's media directory.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Dir is the package subdirectory holding media files.
const Dir = "media"

const sniffLen = 512

var (
	// ErrBadPath rejects empty or traversing media paths.
	ErrBadPath = goerrors.New("Bad media path.", goerrors.CategoryValidation).
			WithTextCode("BAD_MEDIA_PATH")
	// ErrNotFound reports a missing media file.
	ErrNotFound = goerrors.New("Media not found.", goerrors.CategoryNotFound).
			WithTextCode("MEDIA_NOT_FOUND")
)

// File is a resolved media file.
type File struct {
	Path string
	Size int64
}

// Server serves media files with no-cache headers.
type Server struct {
	logger interfaces.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger interfaces.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer constructs a media Server.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CleanPath normalises a requested media path. Backslashes and NUL bytes
// become slashes and leading slashes are dropped. Empty paths and paths
// containing ".." are rejected.
func CleanPath(rel string) (string, error) {
	rel = strings.NewReplacer(`\`, "/", "\x00", "/").Replace(rel)
	rel = strings.TrimLeft(rel, "/")
	if rel == "" || strings.Contains(rel, "..") {
		return "", ErrBadPath
	}
	return rel, nil
}

// Resolve locates relPath under {packageDir}/media.
func Resolve(packageDir, relPath string) (File, error) {
	rel, err := CleanPath(relPath)
	if err != nil {
		return File{}, err
	}
	root, err := filepath.Abs(filepath.Join(packageDir, Dir))
	if err != nil {
		return File{}, goerrors.Wrap(err, goerrors.CategoryInternal, "media root")
	}
	target := filepath.Clean(filepath.Join(root, filepath.FromSlash(rel)))
	if !within(root, target) {
		return File{}, ErrBadPath
	}

	// symlinks must not lead outside the media directory either
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return File{}, ErrNotFound
	}
	realTarget, err := filepath.EvalSymlinks(target)
	if err != nil {
		return File{}, ErrNotFound
	}
	if !within(realRoot, realTarget) {
		return File{}, ErrBadPath
	}

	info, err := os.Stat(realTarget)
	if err != nil || !info.Mode().IsRegular() {
		return File{}, ErrNotFound
	}
	return File{Path: realTarget, Size: info.Size()}, nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Serve writes the media file relPath of the package at packageDir.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, packageDir, relPath string) {
	logger := logging.WithFields(s.logger, map[string]any{"media_path": relPath})

	file, err := Resolve(packageDir, relPath)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrBadPath):
			status = http.StatusBadRequest
		case errors.Is(err, ErrNotFound):
			status = http.StatusNotFound
		}
		logging.WithError(logger, err).Debug("media.server.rejected")
		writeText(w, status, messageFor(err))
		return
	}

	f, err := os.Open(file.Path)
	if err != nil {
		logging.WithError(logger, err).Warn("media.server.open_failed")
		writeText(w, http.StatusNotFound, ErrNotFound.Message)
		return
	}
	defer f.Close()

	contentType, err := detectType(f, file.Path)
	if err != nil {
		logging.WithError(logger, err).Warn("media.server.read_failed")
		writeText(w, http.StatusInternalServerError, "Media read failed.")
		return
	}

	noCache(w.Header())
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.CopyN(w, f, file.Size); err != nil {
		logging.WithError(logger, err).Debug("media.server.copy_interrupted")
	}
}

// detectType uses the extension, then content sniffing. The file offset is
// rewound afterwards.
func detectType(f *os.File, path string) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct, nil
	}
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if n == 0 {
		return "application/octet-stream", nil
	}
	return http.DetectContentType(buf[:n]), nil
}

func messageFor(err error) string {
	var typed *goerrors.Error
	if errors.As(err, &typed) {
		return typed.Message
	}
	return fmt.Sprintf("Media error: %v", err)
}

func noCache(h http.Header) {
	h.Set("Cache-Control", "no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "Wed, 11 Jan 1984 05:00:00 GMT")
}

func writeText(w http.ResponseWriter, status int, body string) {
	noCache(w.Header())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
