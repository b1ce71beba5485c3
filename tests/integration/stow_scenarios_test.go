// Package integration exercises full stow/unstow/restow scenarios against
// an in-memory filesystem, the way a real Windows install would see them.
package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winstow/winstow/internal/adapters"
	"github.com/winstow/winstow/internal/domain"
	"github.com/winstow/winstow/internal/ignore"
	"github.com/winstow/winstow/internal/orchestrator"
)

type harness struct {
	fs      *adapters.MemFS
	stowDir domain.AbsolutePath
	target  domain.AbsolutePath
	orch    *orchestrator.Orchestrator
}

func newHarness(t *testing.T, opts func(*orchestrator.Orchestrator)) *harness {
	t.Helper()
	fs := adapters.NewMemFS()
	fs.MkVolume("C:")
	ctx := context.Background()

	stowDir, err := domain.NewAbsolutePath(`C:\stow`)
	require.NoError(t, err)
	target, err := domain.NewAbsolutePath(`C:\home`)
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll(ctx, stowDir.String(), 0o755))
	require.NoError(t, fs.MkdirAll(ctx, target.String(), 0o755))

	orch := &orchestrator.Orchestrator{
		FS:        fs,
		Log:       adapters.NewNoopLogger(),
		StowDir:   stowDir,
		Target:    target,
		IgnoreSet: ignore.NewSet(),
		DeferSet:  ignore.NewSet(),
	}
	if opts != nil {
		opts(orch)
	}

	return &harness{fs: fs, stowDir: stowDir, target: target, orch: orch}
}

func (h *harness) addFile(t *testing.T, pkg, rel, content string) {
	t.Helper()
	pkgRoot, err := h.stowDir.Join(pkg)
	require.NoError(t, err)
	abs, err := pkgRoot.Join(rel)
	require.NoError(t, err)
	ctx := context.Background()
	if parent, ok := abs.Parent(); ok {
		require.NoError(t, h.fs.MkdirAll(ctx, parent.String(), 0o755))
	}
	require.NoError(t, h.fs.WriteFile(ctx, abs.String(), []byte(content), 0o644))
}

func (h *harness) targetPath(rel string) domain.AbsolutePath {
	p, _ := h.target.Join(rel)
	return p
}

func TestScenario_StowSimplePackage(t *testing.T) {
	h := newHarness(t, nil)
	h.addFile(t, "vim", "dot-vimrc", "\" vimrc")

	results := h.orch.Stow(context.Background(), []string{"vim"})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	assert.True(t, h.fs.Exists(context.Background(), h.targetPath("dot-vimrc").String()))
}

func TestScenario_StowFoldsWholeDirectory(t *testing.T) {
	h := newHarness(t, nil)
	h.addFile(t, "vim", "autoload/plug.vim", "\" plug")
	h.addFile(t, "vim", "autoload/sensible.vim", "\" sensible")

	results := h.orch.Stow(context.Background(), []string{"vim"})
	require.NoError(t, results[0].Err)
	require.Len(t, results[0].Executed.Completed, 1, "a single package contributing a whole directory folds to one symlink")

	isSymlink, err := h.fs.IsSymlink(context.Background(), h.targetPath("autoload").String())
	require.NoError(t, err)
	assert.True(t, isSymlink)
}

func TestScenario_SecondPackageUnfoldsSharedDirectory(t *testing.T) {
	h := newHarness(t, nil)
	h.addFile(t, "vim", "autoload/plug.vim", "\" plug")
	h.addFile(t, "vim-extra", "autoload/sensible.vim", "\" sensible")

	ctx := context.Background()
	r1 := h.orch.Stow(ctx, []string{"vim"})
	require.NoError(t, r1[0].Err)

	r2 := h.orch.Stow(ctx, []string{"vim-extra"})
	require.NoError(t, r2[0].Err)

	isDir, err := h.fs.IsDir(ctx, h.targetPath("autoload").String())
	require.NoError(t, err)
	assert.True(t, isDir, "autoload must now be a real directory, not a symlink")

	assert.True(t, h.fs.Exists(ctx, h.targetPath("autoload/plug.vim").String()))
	assert.True(t, h.fs.Exists(ctx, h.targetPath("autoload/sensible.vim").String()))
}

func TestScenario_ConflictAbortsByDefault(t *testing.T) {
	h := newHarness(t, nil)
	h.addFile(t, "vim", "dot-vimrc", "\" vimrc")
	require.NoError(t, h.fs.WriteFile(context.Background(), h.targetPath("dot-vimrc").String(), []byte("mine"), 0o644))

	results := h.orch.Stow(context.Background(), []string{"vim"})
	require.Error(t, results[0].Err)
	assert.IsType(t, domain.ErrConflict{}, results[0].Err)
}

func TestScenario_AdoptMovesExistingFileIntoPackageThenLinks(t *testing.T) {
	h := newHarness(t, func(o *orchestrator.Orchestrator) { o.Adopt = true })
	h.addFile(t, "vim", "dot-vimrc", "\" vimrc")
	ctx := context.Background()
	require.NoError(t, h.fs.WriteFile(ctx, h.targetPath("dot-vimrc").String(), []byte("mine"), 0o644))

	results := h.orch.Stow(ctx, []string{"vim"})
	require.NoError(t, results[0].Err)

	pkgVimrc, _ := h.stowDir.Join("vim/dot-vimrc")
	content, err := h.fs.ReadFile(ctx, pkgVimrc.String())
	require.NoError(t, err)
	assert.Equal(t, "mine", string(content))

	isSymlink, err := h.fs.IsSymlink(ctx, h.targetPath("dot-vimrc").String())
	require.NoError(t, err)
	assert.True(t, isSymlink)
}

func TestScenario_OverrideDeletesExistingThenLinks(t *testing.T) {
	h := newHarness(t, func(o *orchestrator.Orchestrator) { o.Override = true })
	h.addFile(t, "vim", "dot-vimrc", "\" vimrc")
	ctx := context.Background()
	require.NoError(t, h.fs.WriteFile(ctx, h.targetPath("dot-vimrc").String(), []byte("stale"), 0o644))

	results := h.orch.Stow(ctx, []string{"vim"})
	require.NoError(t, results[0].Err)

	isSymlink, err := h.fs.IsSymlink(ctx, h.targetPath("dot-vimrc").String())
	require.NoError(t, err)
	assert.True(t, isSymlink)
}

func TestScenario_UnstowRemovesFoldedDirectoryLink(t *testing.T) {
	h := newHarness(t, nil)
	h.addFile(t, "vim", "autoload/plug.vim", "\" plug")
	ctx := context.Background()
	require.NoError(t, h.orch.Stow(ctx, []string{"vim"})[0].Err)

	results := h.orch.Unstow(ctx, []string{"vim"})
	require.NoError(t, results[0].Err)
	assert.False(t, h.fs.Exists(ctx, h.targetPath("autoload").String()))
}

func TestScenario_RestowRelinksStowedPackage(t *testing.T) {
	h := newHarness(t, nil)
	h.addFile(t, "vim", "dot-vimrc", "\" vimrc v1")
	ctx := context.Background()
	require.NoError(t, h.orch.Stow(ctx, []string{"vim"})[0].Err)

	results := h.orch.Restow(ctx, []string{"vim"})
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)

	assert.True(t, h.fs.Exists(ctx, h.targetPath("dot-vimrc").String()))
}

func TestScenario_DeferLeavesExistingFileUntouched(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.orch.DeferSet.Add("dot-vimrc"))
	h.addFile(t, "vim", "dot-vimrc", "\" vimrc")
	ctx := context.Background()
	require.NoError(t, h.fs.WriteFile(ctx, h.targetPath("dot-vimrc").String(), []byte("mine, leave it"), 0o644))

	results := h.orch.Stow(ctx, []string{"vim"})
	require.NoError(t, results[0].Err)
	assert.True(t, results[0].Plan.IsEmpty())

	content, err := h.fs.ReadFile(ctx, h.targetPath("dot-vimrc").String())
	require.NoError(t, err)
	assert.Equal(t, "mine, leave it", string(content))
}

func TestScenario_IgnorePatternExcludesPackageEntry(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.orch.IgnoreSet.Add("*.bak"))
	h.addFile(t, "vim", "dot-vimrc", "\" vimrc")
	h.addFile(t, "vim", "dot-vimrc.bak", "stale")

	results := h.orch.Stow(context.Background(), []string{"vim"})
	require.NoError(t, results[0].Err)
	require.Len(t, results[0].Executed.Completed, 1)

	assert.False(t, h.fs.Exists(context.Background(), h.targetPath("dot-vimrc.bak").String()))
}

func TestScenario_MultiplePackagesAggregatesFailures(t *testing.T) {
	h := newHarness(t, nil)
	h.addFile(t, "vim", "dot-vimrc", "\" vimrc")

	results := h.orch.Stow(context.Background(), []string{"vim", "does-not-exist"})
	err := orchestrator.Aggregate(results)
	require.Error(t, err)
	assert.IsType(t, domain.ErrPackageNotFound{}, err, "a single failure among many passes through unwrapped")
}
