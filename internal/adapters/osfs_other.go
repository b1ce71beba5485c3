//go:build !windows

package adapters

import (
	"context"
	"io/fs"
	"os"
)

// IsSymlink on non-Windows hosts (used for cross-platform development and
// CI) falls back to the standard library's symlink bit; there is no
// junction/mount-point concept to distinguish from it outside Windows.
func (f *OSFilesystem) IsSymlink(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Lstat(name)
	if err != nil {
		return false, err
	}
	return info.Mode()&fs.ModeSymlink != 0, nil
}

// IsReparsePoint has no non-Windows analogue; a plain symlink check is the
// closest available approximation.
func (f *OSFilesystem) IsReparsePoint(ctx context.Context, name string) (bool, error) {
	return f.IsSymlink(ctx, name)
}
