// Package executor applies a Plan's actions against a filesystem
// capability in strict sequence, re-probing each action's precondition
// immediately before mutating, and serves dry-run by logging instead of
// mutating. No rollback is attempted.
package executor

import (
	"context"

	"github.com/winstow/winstow/internal/domain"
	"github.com/winstow/winstow/internal/planner"
)

// Executor applies one Plan's actions.
type Executor struct {
	FS     domain.FS
	Log    domain.Logger
	Prober planner.Prober
	DryRun bool
}

// New creates an Executor backed by fs, probing through the same
// FSProber logic the planner uses so re-probe results agree with how the
// plan was built.
func New(fs domain.FS, log domain.Logger, dryRun bool) *Executor {
	return &Executor{FS: fs, Log: log, Prober: planner.FSProber{FS: fs}, DryRun: dryRun}
}

// Result carries the actions that executed (or, in dry-run, would have).
type Result struct {
	Completed []domain.Action
}

// IsEmpty reports whether no actions ran.
func (r Result) IsEmpty() bool { return len(r.Completed) == 0 }

// Execute runs plan.Actions in order. Before each action it re-probes the
// path(s) the action's precondition depends on; a mismatch from what the
// planner observed is reported as ErrRace and aborts the plan (the
// executor never partially retries or reorders). In dry-run the probe
// results only inform logging and never abort. cancel, if non-nil, is
// polled between actions for cooperative cancellation; no actions already
// applied are undone.
func (e *Executor) Execute(ctx context.Context, plan domain.Plan, cancel <-chan struct{}) (Result, error) {
	result := Result{}

	for i, action := range plan.Actions {
		select {
		case <-ctx.Done():
			return result, domain.ErrExecutionCancelled{Completed: len(result.Completed), Remaining: len(plan.Actions) - i}
		default:
		}
		if cancel != nil {
			select {
			case <-cancel:
				return result, domain.ErrExecutionCancelled{Completed: len(result.Completed), Remaining: len(plan.Actions) - i}
			default:
			}
		}

		if e.DryRun {
			// Probes still run so the log reflects live state, but a
			// mismatch never aborts: earlier actions in the plan were not
			// applied, so their effects are legitimately missing.
			if err := e.checkPrecondition(ctx, action); err != nil && e.Log != nil {
				e.Log.Debug(ctx, "dry_run_precondition_differs", "action", action.String(), "detail", err.Error())
			}
			if e.Log != nil {
				e.Log.Info(ctx, "dry_run_action", "action", action.String())
			}
			result.Completed = append(result.Completed, action)
			continue
		}

		if err := e.checkPrecondition(ctx, action); err != nil {
			return result, domain.ErrExecutionFailed{Completed: len(result.Completed), Cause: err}
		}

		if e.Log != nil {
			e.Log.Debug(ctx, "executing_action", "action", action.String())
		}
		if err := action.Execute(ctx, e.FS); err != nil {
			if e.Log != nil {
				e.Log.Error(ctx, "action_failed", "action", action.String(), "error", err)
			}
			return result, domain.ErrExecutionFailed{Completed: len(result.Completed), Cause: err}
		}
		result.Completed = append(result.Completed, action)
	}

	return result, nil
}

// checkPrecondition re-probes the path an action's execution precondition
// concerns. CreateDirectory and RemoveDirectoryIfEmpty are idempotent by
// construction (domain.Action.Execute handles the no-op cases itself) and
// need no re-probe.
func (e *Executor) checkPrecondition(ctx context.Context, action domain.Action) error {
	switch a := action.(type) {
	case domain.CreateDirSymlink:
		return e.requireAbsent(ctx, a.LinkPathV)
	case domain.CreateFileSymlink:
		return e.requireAbsent(ctx, a.LinkPathV)
	case domain.RemoveSymlink:
		return e.requireSymlink(ctx, a.LinkPathV)
	case domain.UnfoldDirectorySymlink:
		return e.requireSymlink(ctx, a.LinkPathV)
	case domain.AdoptFile:
		return e.requireExists(ctx, a.FromTarget)
	case domain.OverrideRemove:
		return e.requireExists(ctx, a.PathV)
	default:
		return nil
	}
}

func (e *Executor) requireAbsent(ctx context.Context, path domain.AbsolutePath) error {
	probe, err := e.Prober.Probe(ctx, path)
	if err != nil {
		return err
	}
	if probe.Kind != domain.Absent {
		return domain.ErrRace{Path: path.String(), Expected: "absent"}
	}
	return nil
}

func (e *Executor) requireSymlink(ctx context.Context, path domain.AbsolutePath) error {
	probe, err := e.Prober.Probe(ctx, path)
	if err != nil {
		return err
	}
	if probe.Kind != domain.ProbeSymlink {
		return domain.ErrRace{Path: path.String(), Expected: "symlink"}
	}
	return nil
}

func (e *Executor) requireExists(ctx context.Context, path domain.AbsolutePath) error {
	if !e.FS.Exists(ctx, path.String()) {
		return domain.ErrRace{Path: path.String(), Expected: "existing entry"}
	}
	return nil
}
