package domain

import (
	"context"
	"fmt"
)

// EntryKind distinguishes files from directories, both for package entries
// and for the kind of an existing symlink's target.
type EntryKind int

const (
	// File is a regular file entry or file-kind symlink.
	File EntryKind = iota
	// Directory is a directory entry or directory-kind symlink.
	Directory
)

func (k EntryKind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

// PackageEntry is one node the Package Walker yields: a package-relative
// path, its kind, and the absolute path of its source inside the package.
type PackageEntry struct {
	Rel    RelativePath
	Kind   EntryKind
	Source AbsolutePath
}

// ProbeKind classifies the observed state at a target path.
type ProbeKind int

const (
	// Absent means nothing exists at the probed path.
	Absent ProbeKind = iota
	// ProbeFile means a regular, non-link file exists.
	ProbeFile
	// ProbeDirectory means a real, non-link directory exists.
	ProbeDirectory
	// ProbeSymlink means a symlink exists, pointing at PointsTo.
	ProbeSymlink
	// OtherReparsePoint means a junction, mount point, or other reparse
	// point exists. Treated as a non-link obstruction for conflict
	// purposes; never dereferenced or created by this program.
	OtherReparsePoint
)

func (k ProbeKind) String() string {
	switch k {
	case Absent:
		return "absent"
	case ProbeFile:
		return "file"
	case ProbeDirectory:
		return "directory"
	case ProbeSymlink:
		return "symlink"
	case OtherReparsePoint:
		return "reparse point"
	default:
		return "unknown"
	}
}

// TargetProbe is the observed state of an absolute target path at the
// moment it was probed.
type TargetProbe struct {
	Kind     ProbeKind
	PointsTo AbsolutePath // valid when Kind == ProbeSymlink
	LinkKind EntryKind    // valid when Kind == ProbeSymlink
}

// ActionKind identifies the tagged variant of an Action.
type ActionKind int

const (
	ActionCreateDirSymlink ActionKind = iota
	ActionCreateFileSymlink
	ActionRemoveSymlink
	ActionCreateDirectory
	ActionRemoveDirectoryIfEmpty
	ActionUnfoldDirectorySymlink
	ActionAdoptFile
	ActionOverrideRemove
)

func (k ActionKind) String() string {
	switch k {
	case ActionCreateDirSymlink:
		return "CreateDirSymlink"
	case ActionCreateFileSymlink:
		return "CreateFileSymlink"
	case ActionRemoveSymlink:
		return "RemoveSymlink"
	case ActionCreateDirectory:
		return "CreateDirectory"
	case ActionRemoveDirectoryIfEmpty:
		return "RemoveDirectoryIfEmpty"
	case ActionUnfoldDirectorySymlink:
		return "UnfoldDirectorySymlink"
	case ActionAdoptFile:
		return "AdoptFile"
	case ActionOverrideRemove:
		return "OverrideRemove"
	default:
		return "Unknown"
	}
}

// Action is one step of a Plan. Concrete variants below implement it.
// Actions are pure data; all side effects happen in Execute.
type Action interface {
	Kind() ActionKind
	// LinkPath is the target-side path this action concerns, used for
	// invariant checks (no duplicate create per link_path) and for
	// touched-directory tracking.
	LinkPath() AbsolutePath
	// Execute performs the action's filesystem mutation. In dry-run the
	// caller logs String() instead of calling Execute.
	Execute(ctx context.Context, fs FS) error
	String() string
}

// CreateDirSymlink creates a directory symlink at LinkPathV whose stored
// target is Relative, pointing at TargetAbs. LinkPathV must be Absent at
// execution time; the executor re-probes and fails with Race otherwise.
type CreateDirSymlink struct {
	LinkPathV AbsolutePath
	TargetAbs AbsolutePath
	Relative  string
}

func (a CreateDirSymlink) Kind() ActionKind       { return ActionCreateDirSymlink }
func (a CreateDirSymlink) LinkPath() AbsolutePath { return a.LinkPathV }
func (a CreateDirSymlink) String() string {
	return fmt.Sprintf("CreateDirSymlink %s -> %s", a.LinkPathV.String(), a.Relative)
}
func (a CreateDirSymlink) Execute(ctx context.Context, fs FS) error {
	if err := fs.Symlink(ctx, a.Relative, a.LinkPathV.String()); err != nil {
		return fsErr("create_dir_symlink", a.LinkPathV.String(), err)
	}
	return nil
}

// CreateFileSymlink creates a file symlink. Same precondition as
// CreateDirSymlink.
type CreateFileSymlink struct {
	LinkPathV AbsolutePath
	TargetAbs AbsolutePath
	Relative  string
}

func (a CreateFileSymlink) Kind() ActionKind       { return ActionCreateFileSymlink }
func (a CreateFileSymlink) LinkPath() AbsolutePath { return a.LinkPathV }
func (a CreateFileSymlink) String() string {
	return fmt.Sprintf("CreateFileSymlink %s -> %s", a.LinkPathV.String(), a.Relative)
}
func (a CreateFileSymlink) Execute(ctx context.Context, fs FS) error {
	if err := fs.Symlink(ctx, a.Relative, a.LinkPathV.String()); err != nil {
		return fsErr("create_file_symlink", a.LinkPathV.String(), err)
	}
	return nil
}

// RemoveSymlink removes a symlink, file- or directory-kind alike.
// LinkPathV must be a Symlink at execution time.
type RemoveSymlink struct {
	LinkPathV AbsolutePath
}

func (a RemoveSymlink) Kind() ActionKind       { return ActionRemoveSymlink }
func (a RemoveSymlink) LinkPath() AbsolutePath { return a.LinkPathV }
func (a RemoveSymlink) String() string         { return fmt.Sprintf("RemoveSymlink %s", a.LinkPathV.String()) }
func (a RemoveSymlink) Execute(ctx context.Context, fs FS) error {
	if err := fs.Remove(ctx, a.LinkPathV.String()); err != nil {
		return fsErr("remove_symlink", a.LinkPathV.String(), err)
	}
	return nil
}

// CreateDirectory creates a real directory. Idempotent: it is a no-op if
// the directory already exists.
type CreateDirectory struct {
	PathV AbsolutePath
}

func (a CreateDirectory) Kind() ActionKind       { return ActionCreateDirectory }
func (a CreateDirectory) LinkPath() AbsolutePath { return a.PathV }
func (a CreateDirectory) String() string         { return fmt.Sprintf("CreateDirectory %s", a.PathV.String()) }
func (a CreateDirectory) Execute(ctx context.Context, fs FS) error {
	if err := fs.MkdirAll(ctx, a.PathV.String(), 0o755); err != nil {
		return fsErr("create_directory", a.PathV.String(), err)
	}
	return nil
}

// RemoveDirectoryIfEmpty removes PathV only if, at execution time, it
// contains no entries. A no-op if the directory is non-empty or absent.
type RemoveDirectoryIfEmpty struct {
	PathV AbsolutePath
}

func (a RemoveDirectoryIfEmpty) Kind() ActionKind       { return ActionRemoveDirectoryIfEmpty }
func (a RemoveDirectoryIfEmpty) LinkPath() AbsolutePath { return a.PathV }
func (a RemoveDirectoryIfEmpty) String() string {
	return fmt.Sprintf("RemoveDirectoryIfEmpty %s", a.PathV.String())
}
func (a RemoveDirectoryIfEmpty) Execute(ctx context.Context, fs FS) error {
	entries, err := fs.ReadDir(ctx, a.PathV.String())
	if err != nil {
		if !fs.Exists(ctx, a.PathV.String()) {
			return nil
		}
		return fsErr("remove_directory_if_empty", a.PathV.String(), err)
	}
	if len(entries) > 0 {
		return nil
	}
	if err := fs.Remove(ctx, a.PathV.String()); err != nil {
		return fsErr("remove_directory_if_empty", a.PathV.String(), err)
	}
	return nil
}

// UnfoldDirectorySymlink removes a folded directory symlink so its former
// children can be re-materialized as individual symlinks by subsequent
// CreateDirectory/Create*Symlink actions the planner appends.
type UnfoldDirectorySymlink struct {
	LinkPathV           AbsolutePath
	PreviouslyPointedTo AbsolutePath
}

func (a UnfoldDirectorySymlink) Kind() ActionKind       { return ActionUnfoldDirectorySymlink }
func (a UnfoldDirectorySymlink) LinkPath() AbsolutePath { return a.LinkPathV }
func (a UnfoldDirectorySymlink) String() string {
	return fmt.Sprintf("UnfoldDirectorySymlink %s (was -> %s)", a.LinkPathV.String(), a.PreviouslyPointedTo.String())
}
func (a UnfoldDirectorySymlink) Execute(ctx context.Context, fs FS) error {
	if err := fs.Remove(ctx, a.LinkPathV.String()); err != nil {
		return fsErr("unfold_directory_symlink", a.LinkPathV.String(), err)
	}
	return nil
}

// AdoptFile moves an existing target-side file or directory into the
// package at FromTarget's package-relative position, overwriting whatever
// already sits there in the package. A CreateFileSymlink/CreateDirSymlink
// for the same path follows in the plan.
type AdoptFile struct {
	FromTarget  AbsolutePath
	IntoPackage AbsolutePath
	Kind_       EntryKind
}

func (a AdoptFile) Kind() ActionKind       { return ActionAdoptFile }
func (a AdoptFile) LinkPath() AbsolutePath { return a.FromTarget }
func (a AdoptFile) String() string {
	return fmt.Sprintf("AdoptFile %s -> %s", a.FromTarget.String(), a.IntoPackage.String())
}
func (a AdoptFile) Execute(ctx context.Context, fs FS) error {
	if err := fs.Rename(ctx, a.FromTarget.String(), a.IntoPackage.String()); err != nil {
		return fsErr("adopt_file", a.FromTarget.String(), err)
	}
	return nil
}

// OverrideRemove deletes a non-link file or directory at PathV to make
// room for a link. A Create*Symlink for the same path follows in the plan.
type OverrideRemove struct {
	PathV  AbsolutePath
	WasDir bool
}

func (a OverrideRemove) Kind() ActionKind       { return ActionOverrideRemove }
func (a OverrideRemove) LinkPath() AbsolutePath { return a.PathV }
func (a OverrideRemove) String() string         { return fmt.Sprintf("OverrideRemove %s", a.PathV.String()) }
func (a OverrideRemove) Execute(ctx context.Context, fs FS) error {
	var err error
	if a.WasDir {
		err = fs.RemoveAll(ctx, a.PathV.String())
	} else {
		err = fs.Remove(ctx, a.PathV.String())
	}
	if err != nil {
		return fsErr("override_remove", a.PathV.String(), err)
	}
	return nil
}

// Plan is an ordered sequence of Actions plus the set of directories an
// unstow pass touched, consumed by the pruner.
type Plan struct {
	Actions            []Action
	TouchedDirectories []AbsolutePath
}

// IsEmpty reports whether the plan has no actions.
func (p Plan) IsEmpty() bool {
	return len(p.Actions) == 0
}
