package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DirSink saves files into a directory, creating it on first use. Files are
// written to a temporary name and renamed, so a reader never sees a partial
// export.
type DirSink struct {
	Dir    string
	logger *slog.Logger
}

// NewDirSink creates a sink writing into dir.
func NewDirSink(dir string, logger *slog.Logger) *DirSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirSink{
		Dir:    dir,
		logger: logger.With(slog.String("component", "dir_sink")),
	}
}

// Name implements FileSink.
func (s *DirSink) Name() string { return "file" }

// Path returns where filename is stored.
func (s *DirSink) Path(filename string) string {
	return filepath.Join(s.Dir, filename)
}

// Save implements FileSink.
func (s *DirSink) Save(ctx context.Context, data []byte, filename, mimeType string) error {
	if err := checkFileName(filename); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+filename+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filename, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", filename, err)
	}

	path := s.Path(filename)
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}

	s.logger.InfoContext(ctx, "export saved",
		slog.String("path", path),
		slog.String("mime_type", mimeType),
		slog.Int("size_bytes", len(data)),
	)
	return nil
}

func checkFileName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}
