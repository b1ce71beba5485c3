// Package adapters provides concrete implementations of the domain.FS and
// domain.Logger capability ports.
package adapters

import (
	"context"
	"io/fs"
	"os"

	"github.com/winstow/winstow/internal/domain"
)

// OSFilesystem implements domain.FS against the real operating system.
// Reparse-point classification (IsSymlink vs IsReparsePoint) is platform-
// specific; see osfs_windows.go and osfs_other.go.
type OSFilesystem struct{}

// NewOSFilesystem creates an OS-backed filesystem adapter.
func NewOSFilesystem() *OSFilesystem {
	return &OSFilesystem{}
}

func (f *OSFilesystem) Stat(ctx context.Context, name string) (domain.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	return WrapFileInfo(info), nil
}

func (f *OSFilesystem) Lstat(ctx context.Context, name string) (domain.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Lstat(name)
	if err != nil {
		return nil, err
	}
	return WrapFileInfo(info), nil
}

func (f *OSFilesystem) ReadDir(ctx context.Context, name string) ([]domain.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(name)
	if err != nil {
		return nil, err
	}
	result := make([]domain.DirEntry, len(entries))
	for i, entry := range entries {
		result[i] = WrapDirEntry(entry)
	}
	return result, nil
}

func (f *OSFilesystem) ReadLink(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return os.Readlink(name)
}

func (f *OSFilesystem) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(name)
}

func (f *OSFilesystem) WriteFile(ctx context.Context, name string, data []byte, perm fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(name, data, perm)
}

func (f *OSFilesystem) Mkdir(ctx context.Context, name string, perm fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Mkdir(name, perm)
}

func (f *OSFilesystem) MkdirAll(ctx context.Context, name string, perm fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.MkdirAll(name, perm)
}

func (f *OSFilesystem) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Remove(name)
}

func (f *OSFilesystem) RemoveAll(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.RemoveAll(name)
}

func (f *OSFilesystem) Symlink(ctx context.Context, oldname, newname string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Symlink(oldname, newname)
}

func (f *OSFilesystem) Rename(ctx context.Context, oldname, newname string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(oldname, newname)
}

func (f *OSFilesystem) Exists(ctx context.Context, name string) bool {
	if err := ctx.Err(); err != nil {
		return false
	}
	_, err := os.Lstat(name)
	return err == nil
}

func (f *OSFilesystem) IsDir(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(name)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// osFileInfo wraps fs.FileInfo to implement domain.FileInfo.
type osFileInfo struct {
	info fs.FileInfo
}

// WrapFileInfo wraps a standard library fs.FileInfo.
func WrapFileInfo(info fs.FileInfo) domain.FileInfo {
	return osFileInfo{info: info}
}

func (i osFileInfo) Name() string      { return i.info.Name() }
func (i osFileInfo) Size() int64       { return i.info.Size() }
func (i osFileInfo) Mode() fs.FileMode { return i.info.Mode() }
func (i osFileInfo) IsDir() bool       { return i.info.IsDir() }

// osDirEntry wraps fs.DirEntry to implement domain.DirEntry.
type osDirEntry struct {
	entry fs.DirEntry
}

// WrapDirEntry wraps a standard library fs.DirEntry.
func WrapDirEntry(entry fs.DirEntry) domain.DirEntry {
	return osDirEntry{entry: entry}
}

func (e osDirEntry) Name() string      { return e.entry.Name() }
func (e osDirEntry) IsDir() bool       { return e.entry.IsDir() }
func (e osDirEntry) Type() fs.FileMode { return e.entry.Type() }

func (e osDirEntry) Info() (domain.FileInfo, error) {
	info, err := e.entry.Info()
	if err != nil {
		return nil, err
	}
	return WrapFileInfo(info), nil
}
