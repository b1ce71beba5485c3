// Package orchestrator drives one invocation: for each requested package
// it resolves the package directory, dispatches to the stow or unstow
// planner, then the executor, and aggregates per-package results so the
// overall exit status is the worst case across packages.
package orchestrator

import (
	"context"

	"github.com/winstow/winstow/internal/domain"
	"github.com/winstow/winstow/internal/executor"
	"github.com/winstow/winstow/internal/ignore"
	"github.com/winstow/winstow/internal/planner"
	"github.com/winstow/winstow/internal/scanner"
)

// Orchestrator holds the options and capabilities shared across all
// packages in one invocation.
type Orchestrator struct {
	FS        domain.FS
	Log       domain.Logger
	StowDir   domain.AbsolutePath
	Target    domain.AbsolutePath
	IgnoreSet *ignore.Set
	DeferSet  *ignore.Set
	Adopt     bool
	Override  bool
	DryRun    bool
}

// PackageResult reports the outcome for one package. Phase is "stow" or
// "unstow"; Restow produces one PackageResult per phase per package.
type PackageResult struct {
	Package  string
	Phase    string
	Plan     domain.Plan
	Executed executor.Result
	Warnings []error
	Err      error
}

// Stow plans and executes a stow for each named package, in the order
// given. A later package observes the cumulative effect of earlier ones
// (re-probed fresh per package), so it may legitimately unfold a directory
// an earlier package in the same invocation folded.
func (o *Orchestrator) Stow(ctx context.Context, packages []string) []PackageResult {
	results := make([]PackageResult, 0, len(packages))
	for _, name := range packages {
		results = append(results, o.stowOne(ctx, name))
	}
	return results
}

// Unstow plans and executes an unstow for each named package.
func (o *Orchestrator) Unstow(ctx context.Context, packages []string) []PackageResult {
	results := make([]PackageResult, 0, len(packages))
	for _, name := range packages {
		results = append(results, o.unstowOne(ctx, name))
	}
	return results
}

// Restow unstows then stows each package. If a package's unstow phase
// fails, its stow phase is not attempted for that package, but other
// packages still run.
func (o *Orchestrator) Restow(ctx context.Context, packages []string) []PackageResult {
	results := make([]PackageResult, 0, len(packages)*2)
	for _, name := range packages {
		unRes := o.unstowOne(ctx, name)
		results = append(results, unRes)
		if unRes.Err != nil {
			continue
		}
		results = append(results, o.stowOne(ctx, name))
	}
	return results
}

func (o *Orchestrator) stowOne(ctx context.Context, name string) PackageResult {
	res := PackageResult{Package: name, Phase: "stow"}

	w, err := scanner.OpenPackage(ctx, o.FS, o.StowDir, name, o.IgnoreSet)
	if err != nil {
		res.Err = err
		return res
	}

	prober := planner.FSProber{FS: o.FS}
	stower := &planner.Stower{
		FS:      o.FS,
		Prober:  prober,
		Log:     o.Log,
		StowDir: o.StowDir,
		Target:  o.Target,
		Opts:    planner.Options{Adopt: o.Adopt, Override: o.Override, DeferSet: o.DeferSet},
	}

	plan, err := stower.Plan(ctx, w)
	if err != nil {
		res.Err = err
		return res
	}
	res.Plan = plan

	if plan.IsEmpty() {
		return res
	}

	ex := executor.New(o.FS, o.Log, o.DryRun)
	executed, err := ex.Execute(ctx, plan, nil)
	res.Executed = executed
	res.Err = err
	return res
}

func (o *Orchestrator) unstowOne(ctx context.Context, name string) PackageResult {
	res := PackageResult{Package: name, Phase: "unstow"}

	w, err := scanner.OpenPackage(ctx, o.FS, o.StowDir, name, o.IgnoreSet)
	if err != nil {
		res.Err = err
		return res
	}

	prober := planner.FSProber{FS: o.FS}
	unstower := &planner.Unstower{Prober: prober, Log: o.Log, Target: o.Target}

	plan, warnings, err := unstower.Plan(ctx, w)
	if err != nil {
		res.Err = err
		return res
	}
	res.Plan = plan
	res.Warnings = warnings

	if plan.IsEmpty() {
		return res
	}

	ex := executor.New(o.FS, o.Log, o.DryRun)
	executed, err := ex.Execute(ctx, plan, nil)
	res.Executed = executed
	res.Err = err
	return res
}

// Aggregate collapses per-package results into a single error: nil if
// every package succeeded, the lone error if exactly one failed, or an
// ErrMultiple otherwise. The caller maps this to the process exit code.
func Aggregate(results []PackageResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return domain.ErrMultiple{Errors: errs}
}
