package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/leeforge/logfactory/errors"
	"github.com/leeforge/logfactory/utils"
	"go.uber.org/zap/zapcore"
)

// KindStream appends records to a file or a standard stream.
const KindStream = "stream"

// StreamOptions configures a stream handler.
type StreamOptions struct {
	Path           string `mapstructure:"path" validate:"required"`
	Level          string `mapstructure:"level" validate:"required"`
	FilePermission string `mapstructure:"file_permission" default:"0644"`
}

// StreamHandler appends formatted records to Path. stdout and stderr (also
// spelled php://stdout, php://stderr) write to the process streams; any other
// path is a file, created with its directory on the first write.
type StreamHandler struct {
	baseHandler
	path   string
	out    zapcore.WriteSyncer
	file   *fileWriter
	stdout bool
}

// NewStreamHandlerFromOptions is the HandlerConstructor for KindStream.
func NewStreamHandlerFromOptions(options map[string]any) (Handler, error) {
	var opts StreamOptions
	if err := decodeOptions(KindStream, options, &opts); err != nil {
		return nil, err
	}
	h, err := NewStreamHandler(opts)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func NewStreamHandler(opts StreamOptions) (*StreamHandler, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, errors.Wrap(err, KindStream).WithDetail("handler", KindStream)
	}
	perm, err := strconv.ParseUint(opts.FilePermission, 8, 32)
	if err != nil {
		return nil, errors.NewInvalid("file_permission", opts.FilePermission, "not an octal mode").
			WithDetail("handler", KindStream)
	}

	h := &StreamHandler{
		baseHandler: baseHandler{kind: KindStream, level: level},
		path:        opts.Path,
	}
	switch strings.ToLower(opts.Path) {
	case "stdout", "php://stdout", "php://output":
		h.out, h.stdout = standardStream(os.Stdout), true
	case "stderr", "php://stderr":
		h.out, h.stdout = standardStream(os.Stderr), true
	default:
		h.file = &fileWriter{path: opts.Path, perm: os.FileMode(perm)}
		h.out = h.file
	}
	return h, nil
}

// standardStream wraps a process stream. Only the Writer side is exposed, so
// AddSync gives it a no-op Sync: syncing a terminal fails on most platforms.
func standardStream(f *os.File) zapcore.WriteSyncer {
	return zapcore.Lock(zapcore.AddSync(struct{ io.Writer }{f}))
}

// Path returns the configured destination.
func (h *StreamHandler) Path() string { return h.path }

func (h *StreamHandler) Core() zapcore.Core {
	return zapcore.NewCore(h.Formatter().Encoder(), h.out, h.level)
}

func (h *StreamHandler) Sync() error {
	return h.out.Sync()
}

// Close closes the file; the next record reopens it.
func (h *StreamHandler) Close() error {
	if h.file == nil {
		return nil
	}
	return h.file.Close()
}

// fileWriter is a zapcore.WriteSyncer over a file opened in append mode on
// the first write.
type fileWriter struct {
	path string
	perm os.FileMode

	mu   sync.Mutex
	file *os.File
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	if err != nil {
		return n, errors.NewExternal(KindStream, err).WithDetail("path", w.path)
	}
	return n, nil
}

func (w *fileWriter) open() error {
	if err := utils.EnsureParentDir(w.path); err != nil {
		return errors.NewExternal(KindStream, err).WithDetail("path", w.path)
	}
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, w.perm)
	if err != nil {
		return errors.NewExternal(KindStream, err).WithDetail("path", w.path)
	}
	w.file = f
	return nil
}

func (w *fileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *fileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
