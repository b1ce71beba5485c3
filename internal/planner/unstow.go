package planner

import (
	"context"
	"sort"
	"strings"

	"github.com/winstow/winstow/internal/domain"
	"github.com/winstow/winstow/internal/scanner"
)

// Unstower plans an unstow: it discovers the links a
// package owns in the target, plans their removal, and prunes directories
// left empty by that removal.
type Unstower struct {
	Prober Prober
	Log    domain.Logger
	Target domain.AbsolutePath

	touched map[string]domain.AbsolutePath
}

// Plan walks w's full package tree (ignore patterns still apply; defer
// patterns never apply to unstow) and returns the removal plan.
// Warnings carries non-fatal ErrUnexpectedState notices for paths that
// were expected to be this package's own symlink but were not: these are
// logged, never fatal.
func (u *Unstower) Plan(ctx context.Context, w *scanner.Walker) (plan domain.Plan, warnings []error, err error) {
	u.touched = make(map[string]domain.AbsolutePath)
	p := &domain.Plan{}

	warnErr := u.planEntries(ctx, w, domain.RelativePath{}, p, &warnings)
	if warnErr != nil {
		return domain.Plan{}, nil, warnErr
	}

	for _, dir := range u.sortedTouched() {
		p.Actions = append(p.Actions, domain.RemoveDirectoryIfEmpty{PathV: dir})
		p.TouchedDirectories = append(p.TouchedDirectories, dir)
	}

	return *p, warnings, nil
}

func (u *Unstower) planEntries(ctx context.Context, w *scanner.Walker, rel domain.RelativePath, plan *domain.Plan, warnings *[]error) error {
	entries, err := w.Children(ctx, rel)
	if err != nil {
		return err
	}

	for _, e := range entries {
		linkAbs, err := u.Target.Join(e.Rel.String())
		if err != nil {
			return err
		}

		probe, err := u.Prober.Probe(ctx, linkAbs)
		if err != nil {
			return err
		}

		owned := probe.Kind == domain.ProbeSymlink && probe.PointsTo.Equal(e.Source)

		switch {
		case probe.Kind == domain.Absent:
			continue

		case e.Kind == domain.Directory && owned:
			// Directory symlinks owned by this package are removed whole;
			// unstow never unfolds.
			plan.Actions = append(plan.Actions, domain.RemoveSymlink{LinkPathV: linkAbs})
			u.recordTouched(linkAbs)

		case e.Kind == domain.Directory && probe.Kind == domain.ProbeDirectory:
			// A real (unfolded) directory: recurse to remove this
			// package's children beneath it, and consider it for pruning.
			if err := u.planEntries(ctx, w, e.Rel, plan, warnings); err != nil {
				return err
			}
			u.touched[foldKey(linkAbs)] = linkAbs

		case e.Kind == domain.Directory:
			// Foreign symlink/file/reparse point sitting where this
			// package's directory should be: leave untouched, warn.
			werr := domain.ErrUnexpectedState{Path: linkAbs.String(), Got: probe.Kind.String()}
			*warnings = append(*warnings, werr)
			if u.Log != nil {
				u.Log.Warn(ctx, "unstow_unexpected_state", "path", linkAbs.String(), "got", probe.Kind.String())
			}

		case owned: // file, owned
			plan.Actions = append(plan.Actions, domain.RemoveSymlink{LinkPathV: linkAbs})
			u.recordTouched(linkAbs)

		default: // file, not owned: foreign link or non-link; leave alone
			werr := domain.ErrUnexpectedState{Path: linkAbs.String(), Got: probe.Kind.String()}
			*warnings = append(*warnings, werr)
			if u.Log != nil {
				u.Log.Warn(ctx, "unstow_unexpected_state", "path", linkAbs.String(), "got", probe.Kind.String())
			}
		}
	}
	return nil
}

func (u *Unstower) recordTouched(linkAbs domain.AbsolutePath) {
	p := linkAbs
	for {
		parent, ok := p.Parent()
		if !ok {
			return
		}
		if parent.Equal(u.Target) || !parent.IsUnder(u.Target) {
			return
		}
		u.touched[foldKey(parent)] = parent
		p = parent
	}
}

// sortedTouched returns touched directories ordered deepest-first, so a
// child directory's RemoveDirectoryIfEmpty runs before its parent's.
func (u *Unstower) sortedTouched() []domain.AbsolutePath {
	dirs := make([]domain.AbsolutePath, 0, len(u.touched))
	for _, d := range u.touched {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i].Less(dirs[j])
	})
	return dirs
}

func depth(p domain.AbsolutePath) int {
	return strings.Count(p.String(), `\`)
}

func foldKey(p domain.AbsolutePath) string {
	return strings.ToLower(p.String())
}
