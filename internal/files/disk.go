package files

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	apperrors "github.com/botmakerhq/hostbot/internal/errors"
)

const (
	userDirPerm  = 0o755
	userFilePerm = 0o600
)

// DiskStore keeps each user's files in a dedicated directory under baseDir,
// permissioned owner-only.
type DiskStore struct {
	baseDir string
	policy  Policy
	log     *slog.Logger
}

// NewDiskStore creates a disk-backed Store rooted at baseDir and ensures the
// root directory exists.
func NewDiskStore(baseDir string, policy Policy, log *slog.Logger) (*DiskStore, error) {
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(baseDir, userDirPerm); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	return &DiskStore{
		baseDir: baseDir,
		policy:  policy,
		log:     log,
	}, nil
}

// List returns the user's files ordered by name.
func (s *DiskStore) List(ctx context.Context, userID int64) ([]FileInfo, error) {
	entries, err := os.ReadDir(s.userDir(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}

		s.log.Error("failed to read user directory", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, apperrors.NewStorageError(err)
	}

	result := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		result = append(result, FileInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// Exists reports whether the named file is present for the user.
func (s *DiskStore) Exists(ctx context.Context, userID int64, name string) (bool, error) {
	if !validName(name) {
		return false, nil
	}

	info, err := os.Stat(filepath.Join(s.userDir(userID), name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, apperrors.NewStorageError(err)
	}

	return info.Mode().IsRegular(), nil
}

// Save enforces quota, size and collision policy, then writes the file with
// owner-only permissions.
func (s *DiskStore) Save(ctx context.Context, userID int64, name string, content []byte) error {
	if !validName(name) {
		return apperrors.NewValidationError("missing or invalid filename.")
	}

	count, err := s.Count(ctx, userID)
	if err != nil {
		return err
	}
	if count >= s.policy.MaxFiles {
		return apperrors.NewQuotaExceededError(s.policy.MaxFiles)
	}

	if int64(len(content)) > s.policy.MaxFileSize {
		return apperrors.NewTooLargeError(FormatBytes(s.policy.MaxFileSize, 2))
	}

	exists, err := s.Exists(ctx, userID, name)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.NewNameConflictError(name)
	}

	dir := s.userDir(userID)
	if err := os.MkdirAll(dir, userDirPerm); err != nil {
		s.log.Error("failed to create user directory", slog.Int64("user_id", userID), slog.Any("error", err))
		return apperrors.NewStorageError(err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, userFilePerm); err != nil {
		s.log.Error("failed to write file", slog.String("path", path), slog.Any("error", err))
		return apperrors.NewStorageError(err)
	}

	return nil
}

// Delete removes the named file.
func (s *DiskStore) Delete(ctx context.Context, userID int64, name string) error {
	if !validName(name) {
		return apperrors.NewNotFoundError(name)
	}

	path := filepath.Join(s.userDir(userID), name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewNotFoundError(name)
		}

		return apperrors.NewStorageError(err)
	}

	if err := os.Remove(path); err != nil {
		s.log.Error("failed to delete file", slog.String("path", path), slog.Any("error", err))
		return apperrors.NewStorageError(err)
	}

	return nil
}

// Count returns the user's current file count.
func (s *DiskStore) Count(ctx context.Context, userID int64) (int, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}

	return len(list), nil
}

// HealthCheck verifies that the base directory is writable.
func (s *DiskStore) HealthCheck(ctx context.Context) error {
	probe := filepath.Join(s.baseDir, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), userFilePerm); err != nil {
		return err
	}

	return os.Remove(probe)
}

func (s *DiskStore) userDir(userID int64) string {
	return filepath.Join(s.baseDir, strconv.FormatInt(userID, 10))
}
