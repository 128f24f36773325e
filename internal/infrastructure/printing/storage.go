package printing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erp/orderprint/internal/domain/artifact"
	"go.uber.org/zap"
)

// ArtifactStorage persists rendered documents at resolved locations
type ArtifactStorage interface {
	// EnsureDir creates the location's directory tree. It is idempotent.
	EnsureDir(ctx context.Context, loc artifact.Location) error
	// WriteAtomic replaces the file at loc with data. Readers observe either
	// the previous file or the complete new one.
	WriteAtomic(ctx context.Context, loc artifact.Location, data []byte) (int64, error)
	// Open returns the stored file for reading
	Open(ctx context.Context, loc artifact.Location) (*StoredFile, error)
	// GetURL returns the static URL path for a relative location
	GetURL(relative string) string
	// Root returns the storage root directory
	Root() string
}

// StoredFile is an open artifact. The caller must Close it.
type StoredFile struct {
	*os.File
	Name    string
	Size    int64
	ModTime time.Time
}

// FileSystemStorageConfig contains configuration for file system storage
type FileSystemStorageConfig struct {
	// BasePath is the root directory for PDF storage. Default: ./assets
	BasePath string
	// BaseURL is the URL prefix under which BasePath is served. Default: /static
	BaseURL string
	// Logger for operations
	Logger *zap.Logger
}

// FileSystemStorage stores PDFs on the local file system
type FileSystemStorage struct {
	config *FileSystemStorageConfig
	logger *zap.Logger
}

// NewFileSystemStorage creates a new file system based PDF storage
func NewFileSystemStorage(config *FileSystemStorageConfig) (*FileSystemStorage, error) {
	if config == nil {
		config = &FileSystemStorageConfig{}
	}

	if config.BasePath == "" {
		config.BasePath = "./assets"
	}
	if config.BaseURL == "" {
		config.BaseURL = "/static"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			fmt.Sprintf("failed to create storage directory: %s", config.BasePath), err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileSystemStorage{
		config: config,
		logger: logger,
	}, nil
}

// Root returns the storage root directory
func (s *FileSystemStorage) Root() string {
	return s.config.BasePath
}

// EnsureDir creates the directory for loc
func (s *FileSystemStorage) EnsureDir(ctx context.Context, loc artifact.Location) error {
	if err := ctx.Err(); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	if err := s.checkContained(loc.Dir); err != nil {
		return err
	}
	// MkdirAll succeeds when another writer created the tree concurrently.
	if err := os.MkdirAll(loc.Dir, 0755); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "failed to create directory", err)
	}
	return nil
}

// WriteAtomic writes data to a temp file in the target directory, syncs it
// and renames it over the final name. On any failure the temp file is
// removed and the previous artifact is left untouched.
func (s *FileSystemStorage) WriteAtomic(ctx context.Context, loc artifact.Location, data []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	if len(data) == 0 {
		return 0, NewRenderError(ErrCodeStorageFailed, "PDF data is empty", nil)
	}
	if err := s.checkContained(loc.File); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(loc.Dir, "."+filepath.Base(loc.File)+".*.tmp")
	if err != nil {
		return 0, NewRenderError(ErrCodeStorageFailed, "failed to create temp file", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return 0, NewRenderError(ErrCodeStorageFailed, "failed to write PDF file", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, NewRenderError(ErrCodeStorageFailed, "failed to sync PDF file", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return 0, NewRenderError(ErrCodeStorageFailed, "failed to set PDF file mode", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, NewRenderError(ErrCodeStorageFailed, "failed to close PDF file", err)
	}
	if err := os.Rename(tmpPath, loc.File); err != nil {
		return 0, NewRenderError(ErrCodeStorageFailed, "failed to move PDF into place", err)
	}
	committed = true

	s.logger.Debug("PDF stored",
		zap.String("path", loc.File),
		zap.Int("size", len(data)))

	return int64(len(data)), nil
}

// Open opens the artifact at loc. A missing file yields ErrCodeArtifactNotFound.
func (s *FileSystemStorage) Open(ctx context.Context, loc artifact.Location) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	if err := s.checkContained(loc.File); err != nil {
		return nil, err
	}

	file, err := os.Open(loc.File)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewRenderError(ErrCodeArtifactNotFound, "PDF not found", err)
		}
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to open PDF file", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to stat PDF file", err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, NewRenderError(ErrCodeArtifactNotFound, "PDF not found", nil)
	}

	return &StoredFile{
		File:    file,
		Name:    filepath.Base(loc.File),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Probe verifies the root is writable by creating and removing a temp file
func (s *FileSystemStorage) Probe() error {
	f, err := os.CreateTemp(s.config.BasePath, ".probe-*")
	if err != nil {
		return NewRenderError(ErrCodeStorageFailed, "storage root is not writable", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// GetURL returns the accessible URL for a stored PDF
func (s *FileSystemStorage) GetURL(relative string) string {
	cleanPath := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(relative)), "/")
	return fmt.Sprintf("%s/%s", s.config.BaseURL, cleanPath)
}

// checkContained rejects any path that resolves outside the storage root.
// Identities are validated upstream; this guards the filesystem boundary itself.
func (s *FileSystemStorage) checkContained(path string) error {
	absBase, err := filepath.Abs(s.config.BasePath)
	if err != nil {
		return NewRenderError(ErrCodeStorageFailed, "failed to resolve base path", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return NewRenderError(ErrCodeStorageFailed, "failed to resolve file path", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked",
			zap.String("path", path),
			zap.String("absPath", absPath),
			zap.String("absBase", absBase))
		return NewRenderError(ErrCodeStorageFailed, "invalid path", nil)
	}
	return nil
}

// Ensure FileSystemStorage implements ArtifactStorage
var _ ArtifactStorage = (*FileSystemStorage)(nil)
