package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/winstow/winstow/internal/adapters"
	"github.com/winstow/winstow/internal/cli"
	"github.com/winstow/winstow/internal/config"
	"github.com/winstow/winstow/internal/domain"
	"github.com/winstow/winstow/internal/ignore"
	"github.com/winstow/winstow/internal/orchestrator"
)

// flags holds the root command's flag values.
type flags struct {
	stow     bool
	delete   bool
	restow   bool
	dir      string
	target   string
	verbose  int
	dryRun   bool
	adopt    bool
	override bool
	ignore   []string
	defer_   []string
	logJSON  bool
}

var flagVals flags

// NewRootCommand builds the winstow root command: three mutually
// exclusive action flags attached to one command, matching GNU Stow's
// flag-based surface rather than a verb-subcommand tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "winstow [flags] PACKAGE...",
		Short:         "Symlink-farm manager for Windows",
		Long:          "winstow materializes package trees under a stow directory as symlinks inside a target directory, and reverses that operation.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return cli.ErrUsage{Message: "requires at least one package name"}
			}
			return nil
		},
		RunE: runWinstow,
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return cli.ErrUsage{Message: err.Error()}
	})

	root.Flags().BoolVarP(&flagVals.stow, "stow", "S", true, "Stow the named packages (default)")
	root.Flags().BoolVarP(&flagVals.delete, "delete", "D", false, "Unstow the named packages")
	root.Flags().BoolVarP(&flagVals.restow, "restow", "R", false, "Restow (unstow then stow) the named packages")
	root.Flags().StringVarP(&flagVals.dir, "dir", "d", "", "Stow directory containing packages")
	root.Flags().StringVarP(&flagVals.target, "target", "t", "", "Target directory for symlinks")
	root.Flags().CountVarP(&flagVals.verbose, "verbose", "v", "Increase verbosity (-v, -vv)")
	root.Flags().BoolVarP(&flagVals.dryRun, "dry-run", "n", false, "Show what would be done without applying changes")
	root.Flags().BoolVar(&flagVals.adopt, "adopt", false, "Resolve conflicts by moving existing files into the package")
	root.Flags().BoolVar(&flagVals.override, "override", false, "Resolve conflicts by deleting the existing file")
	root.Flags().StringArrayVar(&flagVals.ignore, "ignore", nil, "Glob pattern to ignore (repeatable)")
	root.Flags().StringArrayVar(&flagVals.defer_, "defer", nil, "Glob pattern to defer when the target already exists (repeatable)")
	root.Flags().BoolVar(&flagVals.logJSON, "log-json", false, "Emit logs as JSON")

	return root
}

func runWinstow(cmd *cobra.Command, args []string) error {
	if flagVals.adopt && flagVals.override {
		return cli.ErrUsage{Message: "--adopt and --override are mutually exclusive"}
	}
	explicitStow := cmd.Flags().Changed("stow") && flagVals.stow
	if countSet(explicitStow, flagVals.delete, flagVals.restow) > 1 {
		return cli.ErrUsage{Message: "-S/--stow, -D/--delete and -R/--restow are mutually exclusive"}
	}

	fileCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	merged := fileCfg.MergeCLI(flagVals.dir, flagVals.target, flagVals.ignore, flagVals.defer_, flagVals.verbose > 0)

	dir := merged.DefaultDir
	if dir == "" {
		dir = "."
	}
	target := merged.DefaultTarget
	if target == "" {
		if home, err := os.UserHomeDir(); err == nil {
			target = home
		} else {
			target = "."
		}
	}

	log := newLogger(merged.Verbose || flagVals.verbose > 0, flagVals.verbose, flagVals.logJSON)

	fs := adapters.NewOSFilesystem()
	stowDirAbs, err := absolutePath(dir)
	if err != nil {
		return err
	}
	targetAbs, err := absolutePath(target)
	if err != nil {
		return err
	}

	ignoreSet := ignore.NewSet()
	for _, pat := range merged.Ignore {
		if pat == "" {
			continue
		}
		if err := ignoreSet.Add(pat); err != nil {
			return fmt.Errorf("compile --ignore pattern %q: %w", pat, err)
		}
	}
	deferSet := ignore.NewSet()
	for _, pat := range merged.Defer {
		if pat == "" {
			continue
		}
		if err := deferSet.Add(pat); err != nil {
			return fmt.Errorf("compile --defer pattern %q: %w", pat, err)
		}
	}

	orch := &orchestrator.Orchestrator{
		FS:        fs,
		Log:       log,
		StowDir:   stowDirAbs,
		Target:    targetAbs,
		IgnoreSet: ignoreSet,
		DeferSet:  deferSet,
		Adopt:     flagVals.adopt,
		Override:  flagVals.override,
		DryRun:    flagVals.dryRun,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var results []orchestrator.PackageResult
	switch {
	case flagVals.restow:
		results = orch.Restow(ctx, args)
	case flagVals.delete:
		results = orch.Unstow(ctx, args)
	default:
		results = orch.Stow(ctx, args)
	}

	reportResults(cmd, results)

	return orchestrator.Aggregate(results)
}

func countSet(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

func absolutePath(p string) (domain.AbsolutePath, error) {
	abs, err := toAbs(p)
	if err != nil {
		return domain.AbsolutePath{}, err
	}
	return domain.NewAbsolutePath(abs)
}

func reportResults(cmd *cobra.Command, results []orchestrator.PackageResult) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		for _, w := range r.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", domain.UserFacingError(w))
		}
		if r.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s\n", r.Phase, r.Package, domain.UserFacingError(r.Err))
			continue
		}
		if len(r.Executed.Completed) == 0 {
			fmt.Fprintf(out, "%s %s: up to date\n", r.Phase, r.Package)
			continue
		}
		fmt.Fprintf(out, "%s %s: %d action(s)\n", r.Phase, r.Package, len(r.Executed.Completed))
	}
}
