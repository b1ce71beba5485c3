package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winstow/winstow/internal/adapters"
	"github.com/winstow/winstow/internal/domain"
	"github.com/winstow/winstow/internal/ignore"
)

func newPackageFS(t *testing.T) (*adapters.MemFS, domain.AbsolutePath) {
	t.Helper()
	fs := adapters.NewMemFS()
	fs.MkVolume("C:")
	root, err := domain.NewAbsolutePath(`C:\stow\vim`)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, fs.MkdirAll(ctx, root.String(), 0o755))
	autoload, _ := root.Join("autoload")
	require.NoError(t, fs.MkdirAll(ctx, autoload.String(), 0o755))
	vimrc, _ := root.Join("dot-vimrc")
	require.NoError(t, fs.WriteFile(ctx, vimrc.String(), []byte("\" vimrc"), 0o644))
	plug, _ := autoload.Join("plug.vim")
	require.NoError(t, fs.WriteFile(ctx, plug.String(), []byte("\" plug"), 0o644))
	backup, _ := root.Join("dot-vimrc.bak")
	require.NoError(t, fs.WriteFile(ctx, backup.String(), []byte("old"), 0o644))

	return fs, root
}

func TestWalker_ChildrenSortedAndTagged(t *testing.T) {
	fs, root := newPackageFS(t)
	w := New(fs, root, nil)

	entries, err := w.Children(context.Background(), domain.RelativePath{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "autoload", entries[0].Rel.String())
	assert.Equal(t, domain.Directory, entries[0].Kind)
	assert.Equal(t, "dot-vimrc", entries[1].Rel.String())
	assert.Equal(t, domain.File, entries[1].Kind)
	assert.Equal(t, "dot-vimrc.bak", entries[2].Rel.String())
}

func TestWalker_IgnoreSetFiltersEntries(t *testing.T) {
	fs, root := newPackageFS(t)
	ignoreSet := ignore.NewSet()
	require.NoError(t, ignoreSet.Add("*.bak"))
	w := New(fs, root, ignoreSet)

	entries, err := w.Children(context.Background(), domain.RelativePath{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotContains(t, e.Rel.String(), ".bak")
	}
}

func TestWalker_ChildrenOfSubdirectory(t *testing.T) {
	fs, root := newPackageFS(t)
	w := New(fs, root, nil)

	autoloadRel, err := domain.NewRelativePath("autoload")
	require.NoError(t, err)

	entries, err := w.Children(context.Background(), autoloadRel)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "autoload/plug.vim", entries[0].Rel.String())
}

func TestOpenPackage_MissingDirectoryIsPackageNotFound(t *testing.T) {
	fs := adapters.NewMemFS()
	fs.MkVolume("C:")
	stowDir, _ := domain.NewAbsolutePath(`C:\stow`)
	require.NoError(t, fs.MkdirAll(context.Background(), stowDir.String(), 0o755))

	_, err := OpenPackage(context.Background(), fs, stowDir, "missing", nil)
	require.Error(t, err)
	assert.IsType(t, domain.ErrPackageNotFound{}, err)
}

func TestOpenPackage_RootsWalkerAtPackageDirectory(t *testing.T) {
	fs, root := newPackageFS(t)
	stowDir, _ := root.Parent()

	w, err := OpenPackage(context.Background(), fs, stowDir, "vim", nil)
	require.NoError(t, err)
	assert.True(t, w.Root().Equal(root))
}
