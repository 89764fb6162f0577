package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"go.uber.org/zap"
)

// LocalFileStorage implements port.ExportStore for a local directory
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage rooted at baseDir
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Create opens a temporary file next to name. Commit renames it into place.
func (s *LocalFileStorage) Create(ctx context.Context, name string) (port.PendingFile, error) {
	fullPath := s.Path(name)
	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", parentDir),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	f, err := os.CreateTemp(parentDir, "."+filepath.Base(fullPath)+".*.part")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &pendingFile{file: f, target: fullPath, logger: s.logger}, nil
}

// Open reads a committed file
func (s *LocalFileStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	fullPath := s.Path(name)
	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		s.logger.Error("Failed to open file",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Path converts a file name to its full path
func (s *LocalFileStorage) Path(name string) string {
	return filepath.Join(s.baseDir, name)
}

// validatePath checks that the path is safe and within baseDir
func (s *LocalFileStorage) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

type pendingFile struct {
	file   *os.File
	target string
	done   bool
	logger *zap.Logger
}

func (p *pendingFile) Write(b []byte) (int, error) {
	return p.file.Write(b)
}

func (p *pendingFile) Commit() error {
	if p.done {
		return fmt.Errorf("file already finished: %s", p.target)
	}
	p.done = true

	if err := p.file.Close(); err != nil {
		_ = os.Remove(p.file.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(p.file.Name(), p.target); err != nil {
		_ = os.Remove(p.file.Name())
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	p.logger.Debug("File saved successfully", zap.String("path", p.target))
	return nil
}

func (p *pendingFile) Discard() error {
	if p.done {
		return nil
	}
	p.done = true

	_ = p.file.Close()
	if err := os.Remove(p.file.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove partial file: %w", err)
	}
	return nil
}

var _ port.ExportStore = (*LocalFileStorage)(nil)
