package scanner

import (
	"context"

	"github.com/winstow/winstow/internal/domain"
	"github.com/winstow/winstow/internal/ignore"
)

// OpenPackage verifies that name exists as a directory under stowDir and
// returns a Walker rooted at it. ignoreSet filters the walk.
func OpenPackage(ctx context.Context, fs domain.FS, stowDir domain.AbsolutePath, name string, ignoreSet *ignore.Set) (*Walker, error) {
	root, err := stowDir.Join(name)
	if err != nil {
		return nil, err
	}

	if !fs.Exists(ctx, root.String()) {
		return nil, domain.ErrPackageNotFound{Package: name}
	}
	isDir, err := fs.IsDir(ctx, root.String())
	if err != nil {
		return nil, domain.ErrIO{Operation: "is_dir", Path: root.String(), Err: err}
	}
	if !isDir {
		return nil, domain.ErrPackageNotFound{Package: name}
	}

	return New(fs, root, ignoreSet), nil
}
