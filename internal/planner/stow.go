package planner

import (
	"context"
	"sort"
	"strings"

	"github.com/winstow/winstow/internal/domain"
	"github.com/winstow/winstow/internal/ignore"
	"github.com/winstow/winstow/internal/scanner"
)

// Options configures a single stow planning pass. Ignore patterns are
// already applied by the walker; DeferSet is evaluated here because defer
// depends on live target state, which the walker never observes.
type Options struct {
	Adopt    bool
	Override bool
	DeferSet *ignore.Set
}

// Stower plans a stow: it folds, unfolds, and resolves conflicts for one
// package against live target state.
type Stower struct {
	FS      domain.FS
	Prober  Prober
	Log     domain.Logger
	StowDir domain.AbsolutePath
	Target  domain.AbsolutePath
	Opts    Options

	planned map[string]struct{} // case-folded link paths already carrying a create action in this plan
}

// Plan walks w and returns the ordered actions needed to stow its package
// into Target. A fresh Stower (or a call to Plan) must be used per
// package: the planner re-probes live state for every package so that a
// later package can observe and unfold an earlier one's fold.
func (s *Stower) Plan(ctx context.Context, w *scanner.Walker) (domain.Plan, error) {
	s.planned = make(map[string]struct{})
	plan := &domain.Plan{}
	if err := s.planEntries(ctx, w, domain.RelativePath{}, plan); err != nil {
		return domain.Plan{}, err
	}
	return *plan, nil
}

func (s *Stower) planEntries(ctx context.Context, w *scanner.Walker, rel domain.RelativePath, plan *domain.Plan) error {
	entries, err := w.Children(ctx, rel)
	if err != nil {
		return err
	}
	for _, e := range entries {
		linkAbs, err := s.Target.Join(e.Rel.String())
		if err != nil {
			return err
		}
		if e.Kind == domain.Directory {
			if err := s.planDirectory(ctx, w, e, linkAbs, plan); err != nil {
				return err
			}
			continue
		}
		if err := s.planFile(ctx, e, linkAbs, plan); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stower) planDirectory(ctx context.Context, w *scanner.Walker, e domain.PackageEntry, linkAbs domain.AbsolutePath, plan *domain.Plan) error {
	if s.Opts.DeferSet != nil && s.Opts.DeferSet.Len() > 0 && s.Opts.DeferSet.Matches(e.Rel.String()) {
		return domain.ErrInvalidPath{Path: e.Rel.String(), Reason: "--defer is not supported for directories"}
	}

	probe, err := s.Prober.Probe(ctx, linkAbs)
	if err != nil {
		return err
	}

	switch probe.Kind {
	case domain.Absent:
		return s.emitCreate(e, linkAbs, plan)

	case domain.ProbeSymlink:
		if probe.LinkKind == domain.Directory && probe.PointsTo.Equal(e.Source) {
			return nil // already folded to this package at this position
		}
		if !probe.PointsTo.IsUnder(s.StowDir) {
			// A link into something other than the stow tree is an
			// obstruction, not a fold to take over.
			return s.resolveConflict(ctx, e, linkAbs, probe, plan)
		}
		return s.unfold(ctx, w, e, linkAbs, probe, plan)

	case domain.ProbeDirectory:
		// Real directory: do not fold, recurse into the package's children
		// under it. No action is emitted for the directory itself.
		return s.planEntries(ctx, w, e.Rel, plan)

	default: // ProbeFile, OtherReparsePoint
		return s.resolveConflict(ctx, e, linkAbs, probe, plan)
	}
}

// unfold replaces a folded directory symlink with a real directory,
// re-materializes the previously-linked package's children as individual
// symlinks, then continues walking the current package's children under
// the same position.
func (s *Stower) unfold(ctx context.Context, w *scanner.Walker, e domain.PackageEntry, linkAbs domain.AbsolutePath, probe domain.TargetProbe, plan *domain.Plan) error {
	plan.Actions = append(plan.Actions, domain.UnfoldDirectorySymlink{LinkPathV: linkAbs, PreviouslyPointedTo: probe.PointsTo})
	plan.Actions = append(plan.Actions, domain.CreateDirectory{PathV: linkAbs})

	oldEntries, err := s.FS.ReadDir(ctx, probe.PointsTo.String())
	if err != nil {
		return domain.ErrIO{Operation: "read_dir", Path: probe.PointsTo.String(), Err: err}
	}
	sort.Slice(oldEntries, func(i, j int) bool {
		return strings.ToLower(oldEntries[i].Name()) < strings.ToLower(oldEntries[j].Name())
	})

	for _, oe := range oldEntries {
		oldAbs, err := probe.PointsTo.Join(oe.Name())
		if err != nil {
			return err
		}
		childLinkAbs, err := linkAbs.Join(oe.Name())
		if err != nil {
			return err
		}
		kind := domain.File
		if oe.IsDir() {
			kind = domain.Directory
		}
		reconstructed := domain.PackageEntry{Rel: e.Rel.Join(oe.Name()), Kind: kind, Source: oldAbs}
		if err := s.emitCreate(reconstructed, childLinkAbs, plan); err != nil {
			return err
		}
	}

	return s.planEntries(ctx, w, e.Rel, plan)
}

func (s *Stower) planFile(ctx context.Context, e domain.PackageEntry, linkAbs domain.AbsolutePath, plan *domain.Plan) error {
	probe, err := s.Prober.Probe(ctx, linkAbs)
	if err != nil {
		return err
	}

	switch {
	case probe.Kind == domain.Absent:
		return s.emitCreate(e, linkAbs, plan)

	case probe.Kind == domain.ProbeSymlink && probe.LinkKind == domain.File && probe.PointsTo.Equal(e.Source):
		return nil // already linked to this package's file

	case s.Opts.DeferSet != nil && s.Opts.DeferSet.Matches(e.Rel.String()):
		if s.Log != nil {
			s.Log.Debug(ctx, "deferred_entry_skipped", "path", e.Rel.String())
		}
		return nil

	default:
		return s.resolveConflict(ctx, e, linkAbs, probe, plan)
	}
}

// resolveConflict aborts by default, emits AdoptFile under --adopt, and
// OverrideRemove under --override.
func (s *Stower) resolveConflict(ctx context.Context, e domain.PackageEntry, linkAbs domain.AbsolutePath, probe domain.TargetProbe, plan *domain.Plan) error {
	if s.Opts.Override {
		plan.Actions = append(plan.Actions, domain.OverrideRemove{PathV: linkAbs, WasDir: probe.Kind == domain.ProbeDirectory})
		return s.emitCreate(e, linkAbs, plan)
	}

	if s.Opts.Adopt {
		existingKind := domain.File
		switch probe.Kind {
		case domain.ProbeDirectory, domain.OtherReparsePoint:
			existingKind = domain.Directory
		case domain.ProbeSymlink:
			existingKind = probe.LinkKind
		}
		if existingKind != e.Kind {
			return domain.ErrAdoptKindMismatch{Path: linkAbs.String(), WantKind: e.Kind.String(), ExistingKind: existingKind.String()}
		}
		if e.Kind == domain.Directory {
			children, err := s.FS.ReadDir(ctx, e.Source.String())
			if err == nil && len(children) > 0 {
				return domain.ErrInvalidPath{Path: e.Source.String(), Reason: "cannot adopt a directory: package already contains a non-empty directory at this position"}
			}
		}
		plan.Actions = append(plan.Actions, domain.AdoptFile{FromTarget: linkAbs, IntoPackage: e.Source, Kind_: e.Kind})
		return s.emitCreate(e, linkAbs, plan)
	}

	return domain.ErrConflict{Path: linkAbs.String(), Kind: describeProbe(probe)}
}

func (s *Stower) emitCreate(e domain.PackageEntry, linkAbs domain.AbsolutePath, plan *domain.Plan) error {
	parent, ok := linkAbs.Parent()
	if !ok {
		return domain.ErrInvalidPath{Path: linkAbs.String(), Reason: "link path has no parent"}
	}
	relative, err := domain.Relativize(parent, e.Source)
	if err != nil {
		return err
	}

	var action domain.Action
	if e.Kind == domain.Directory {
		action = domain.CreateDirSymlink{LinkPathV: linkAbs, TargetAbs: e.Source, Relative: relative}
	} else {
		action = domain.CreateFileSymlink{LinkPathV: linkAbs, TargetAbs: e.Source, Relative: relative}
	}
	return s.appendCreate(plan, action)
}

// appendCreate enforces that no two create actions in a plan share a link
// path: an unfold can in principle re-materialize an old child with the
// same name as one the current package also provides. That collision is
// reported as a conflict.
func (s *Stower) appendCreate(plan *domain.Plan, action domain.Action) error {
	key := strings.ToLower(action.LinkPath().String())
	if _, dup := s.planned[key]; dup {
		return domain.ErrConflict{Path: action.LinkPath().String(), Kind: "colliding package entries at this position"}
	}
	s.planned[key] = struct{}{}
	plan.Actions = append(plan.Actions, action)
	return nil
}
