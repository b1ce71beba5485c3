// Package planner holds the folding/unfolding decision logic, conflict
// resolution, and the ordered plan that the executor consumes, for both
// stow and unstow.
package planner

import (
	"context"
	"strings"

	"github.com/winstow/winstow/internal/domain"
)

// Prober classifies the live state at an absolute target path. It is the
// planner's only source of filesystem truth; everything else is computed
// from walker output and prior plan decisions.
type Prober interface {
	Probe(ctx context.Context, path domain.AbsolutePath) (domain.TargetProbe, error)
}

// FSProber implements Prober against a domain.FS.
type FSProber struct {
	FS domain.FS
}

// Probe classifies path: Absent, a real File, a real Directory, a Symlink
// (resolved one level, with its target made absolute), or an
// OtherReparsePoint (junction/mount point), which this program never
// dereferences.
func (p FSProber) Probe(ctx context.Context, path domain.AbsolutePath) (domain.TargetProbe, error) {
	if !p.FS.Exists(ctx, path.String()) {
		return domain.TargetProbe{Kind: domain.Absent}, nil
	}

	isLink, err := p.FS.IsSymlink(ctx, path.String())
	if err != nil {
		return domain.TargetProbe{}, domain.ErrIO{Operation: "is_symlink", Path: path.String(), Err: err}
	}
	if isLink {
		raw, err := p.FS.ReadLink(ctx, path.String())
		if err != nil {
			return domain.TargetProbe{}, domain.ErrIO{Operation: "read_symlink", Path: path.String(), Err: err}
		}
		parent, ok := path.Parent()
		if !ok {
			return domain.TargetProbe{}, domain.ErrInvalidPath{Path: path.String(), Reason: "link has no parent"}
		}
		resolved, err := resolveTarget(parent, raw)
		if err != nil {
			return domain.TargetProbe{}, err
		}
		kind := domain.File
		if isDir, _ := p.FS.IsDir(ctx, path.String()); isDir {
			kind = domain.Directory
		}
		return domain.TargetProbe{Kind: domain.ProbeSymlink, PointsTo: resolved, LinkKind: kind}, nil
	}

	isReparse, err := p.FS.IsReparsePoint(ctx, path.String())
	if err != nil {
		return domain.TargetProbe{}, domain.ErrIO{Operation: "is_reparse_point", Path: path.String(), Err: err}
	}
	if isReparse {
		return domain.TargetProbe{Kind: domain.OtherReparsePoint}, nil
	}

	isDir, err := p.FS.IsDir(ctx, path.String())
	if err != nil {
		return domain.TargetProbe{}, domain.ErrIO{Operation: "is_dir", Path: path.String(), Err: err}
	}
	if isDir {
		return domain.TargetProbe{Kind: domain.ProbeDirectory}, nil
	}
	return domain.TargetProbe{Kind: domain.ProbeFile}, nil
}

// resolveTarget makes a symlink's stored target (which may be relative or
// absolute) absolute, relative to the link's parent directory. Stored
// targets of links this program creates are relative and lead with ".."
// segments, which AbsolutePath.Join rejects, so the walk up toward the
// common ancestor happens here against the parent itself.
func resolveTarget(linkParent domain.AbsolutePath, raw string) (domain.AbsolutePath, error) {
	norm := strings.ReplaceAll(raw, "/", `\`)
	if len(norm) >= 2 && norm[1] == ':' || strings.HasPrefix(norm, `\\`) {
		return domain.NewAbsolutePath(norm)
	}

	base := linkParent
	for _, seg := range strings.Split(norm, `\`) {
		switch seg {
		case "", ".":
		case "..":
			parent, ok := base.Parent()
			if !ok {
				return domain.AbsolutePath{}, domain.ErrInvalidPath{Path: raw, Reason: "link target escapes the volume root"}
			}
			base = parent
		default:
			next, err := base.Join(seg)
			if err != nil {
				return domain.AbsolutePath{}, err
			}
			base = next
		}
	}
	return base, nil
}

// describeProbe renders a TargetProbe's kind for conflict/error messages.
func describeProbe(p domain.TargetProbe) string {
	switch p.Kind {
	case domain.ProbeSymlink:
		return "symlink (-> " + p.PointsTo.String() + ")"
	default:
		return p.Kind.String()
	}
}
