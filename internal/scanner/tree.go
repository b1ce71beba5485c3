// Package scanner walks a package's source tree: a deterministic, lazy,
// restartable pre-order traversal filtered by an ignore pattern set. It
// performs no mutation; every probe goes through domain.FS.
package scanner

import (
	"context"
	"sort"
	"strings"

	"github.com/winstow/winstow/internal/domain"
	"github.com/winstow/winstow/internal/ignore"
)

// Walker yields a package's entries on demand. Unlike a single eager scan,
// Walker.Children is called by the planner one directory at a time: when
// the planner folds a directory into a single symlink, it never calls
// Children for that subtree, so an ignored or folded-away subtree is never
// even read from disk.
type Walker struct {
	fs     domain.FS
	root   domain.AbsolutePath // absolute package source root
	ignore *ignore.Set
}

// New creates a Walker rooted at root (the package's absolute source
// directory), filtering entries through ignoreSet (nil means no filter).
func New(fs domain.FS, root domain.AbsolutePath, ignoreSet *ignore.Set) *Walker {
	return &Walker{fs: fs, root: root, ignore: ignoreSet}
}

// Root returns the package's absolute source root.
func (w *Walker) Root() domain.AbsolutePath {
	return w.root
}

// Resolve returns the absolute source path for a package-relative path.
func (w *Walker) Resolve(rel domain.RelativePath) (domain.AbsolutePath, error) {
	if rel.Empty() {
		return w.root, nil
	}
	return w.root.Join(rel.String())
}

// Children returns the ignore-filtered, case-folded-sorted immediate
// children of rel (rel's zero value addresses the package root), each
// tagged with its kind. A symlink inside the package is reported as a
// File-kind leaf: the walker never recurses into or dereferences it.
func (w *Walker) Children(ctx context.Context, rel domain.RelativePath) ([]domain.PackageEntry, error) {
	dirAbs, err := w.Resolve(rel)
	if err != nil {
		return nil, err
	}

	dirEntries, err := w.fs.ReadDir(ctx, dirAbs.String())
	if err != nil {
		return nil, domain.ErrIO{Operation: "read_dir", Path: dirAbs.String(), Err: err}
	}

	sort.Slice(dirEntries, func(i, j int) bool {
		return strings.ToLower(dirEntries[i].Name()) < strings.ToLower(dirEntries[j].Name())
	})

	result := make([]domain.PackageEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		childRel := rel.Join(de.Name())
		relStr := childRel.String()

		if w.ignore != nil && w.ignore.Matches(relStr) {
			continue
		}

		childAbs, err := w.Resolve(childRel)
		if err != nil {
			return nil, err
		}

		isLink, err := w.fs.IsSymlink(ctx, childAbs.String())
		if err != nil {
			return nil, domain.ErrIO{Operation: "is_symlink", Path: childAbs.String(), Err: err}
		}

		kind := domain.File
		if !isLink {
			isDir, err := w.fs.IsDir(ctx, childAbs.String())
			if err != nil {
				return nil, domain.ErrIO{Operation: "is_dir", Path: childAbs.String(), Err: err}
			}
			if isDir {
				kind = domain.Directory
			}
		}

		result = append(result, domain.PackageEntry{Rel: childRel, Kind: kind, Source: childAbs})
	}

	return result, nil
}
