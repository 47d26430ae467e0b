package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	startkit "github.com/albertocavalcante/go-startkit"
	"github.com/albertocavalcante/go-startkit/catalog"
	"github.com/albertocavalcante/go-startkit/compile"
	"github.com/albertocavalcante/go-startkit/export"
	"github.com/albertocavalcante/go-startkit/internal/watch"
	"github.com/albertocavalcante/go-startkit/lockfile"
	"github.com/albertocavalcante/go-startkit/session"
)

type compileFlags struct {
	sel   selectionFlags
	out   string
	zip   string
	lock  bool
	watch bool
}

func newCompileCmd(a *app) *cobra.Command {
	f := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the project and write it out",
		Long: `Compile the project for the given selection.

Without --out or --zip the file list is printed with the add-on that owns
each file. With --watch the catalog file is watched and every change is
recompiled into --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.watch {
				return a.runWatch(cmd.Context(), cmd.OutOrStdout(), f)
			}
			return a.runCompile(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	f.sel.register(cmd.Flags())
	cmd.Flags().StringVar(&f.out, "out", "", "directory to write the project to")
	cmd.Flags().StringVar(&f.zip, "zip", "", "ZIP archive to write the project to")
	cmd.Flags().BoolVar(&f.lock, "lock", false, "write "+lockfile.DefaultFileName+" into --out")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "recompile into --out when the catalog changes")
	return cmd
}

func (a *app) runCompile(ctx context.Context, w io.Writer, f *compileFlags) error {
	if f.lock && f.out == "" {
		return errors.New("--lock requires --out")
	}
	b, _, err := a.open(ctx, &f.sel)
	if err != nil {
		return err
	}
	defer b.Close()

	r, err := b.Wait(ctx)
	if err != nil {
		return err
	}
	if r.Err != nil {
		return r.Err
	}
	a.logWarnings(r.Project)

	if f.out == "" && f.zip == "" {
		printProject(w, r.Project)
		return nil
	}
	if f.out != "" {
		if err := export.WriteDir(f.out, r.Project); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %d files to %s\n", len(r.Project.Files), f.out)
		if f.lock {
			if err := a.writeLock(w, b, r, f.out); err != nil {
				return err
			}
		}
	}
	if f.zip != "" {
		if err := writeZip(f.zip, r.Project, a.v.GetString(keyProjectName)); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", f.zip)
	}
	return nil
}

func (a *app) runWatch(ctx context.Context, w io.Writer, f *compileFlags) error {
	path := a.v.GetString(keyCatalog)
	switch {
	case f.out == "":
		return errors.New("--watch requires --out")
	case path == "" || a.v.GetString(keyRegistry) != "":
		return errors.New("--watch requires a local --catalog file")
	}

	syncer := export.NewSyncer(export.DirSandbox{Dir: f.out}, export.WithSyncLogger(a.log))
	hook := func(ctx context.Context, seq uint64, p *compile.Project) error {
		changes, err := syncer.Sync(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "[%d] synced %d changes to %s\n", seq, changes.TotalChanges(), f.out)
		return nil
	}
	b, _, err := a.open(ctx, &f.sel, startkit.WithCompileHook(hook))
	if err != nil {
		return err
	}
	defer b.Close()

	go a.report(w, b, f)

	watcher, err := watch.New(watch.Config{
		Files:  []string{path},
		Logger: a.log,
		OnChange: func(context.Context, []string) error {
			cat, err := catalog.LoadFile(path)
			if err != nil {
				return err
			}
			return b.Reload(cat)
		},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "watching %s\n", path)
	return watcher.Run(ctx)
}

// report logs every published result until the session closes.
func (a *app) report(w io.Writer, b *startkit.Builder, f *compileFlags) {
	for r := range b.Results() {
		if r.Err != nil {
			a.log.Error("compile failed", "seq", r.Seq, "error", r.Err)
			continue
		}
		a.logWarnings(r.Project)
		if f.lock {
			if err := a.writeLock(w, b, r, f.out); err != nil {
				a.log.Error("write lockfile", "error", err)
			}
		}
	}
}

func (a *app) writeLock(w io.Writer, b *startkit.Builder, r session.Result, dir string) error {
	lf, err := b.Lockfile(r)
	if err != nil {
		return err
	}
	path := lockfile.DefaultPath(dir)
	if lockfile.Exists(path) {
		if prev, err := lockfile.ReadFile(path); err == nil {
			if diff := lockfile.Compare(prev, lf); !diff.IsEmpty() {
				fmt.Fprint(w, diff.Summary())
			}
		} else {
			a.log.Warn("existing lockfile ignored", "path", path, "error", err)
		}
	}
	return lf.WriteFile(path)
}

func (a *app) logWarnings(p *compile.Project) {
	for _, warning := range p.Warnings {
		a.log.Warn(warning.String(), "kind", string(warning.Kind), "addOn", warning.AddOn)
	}
}

func printProject(w io.Writer, p *compile.Project) {
	for _, path := range p.Paths() {
		owner := p.Owner(path)
		if contributors := p.Contributors(path); len(contributors) > 1 {
			owner = list(contributors)
		}
		fmt.Fprintf(w, "%-40s %s\n", path, owner)
	}
}

func writeZip(path string, p *compile.Project, root string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteZip(f, p, root)
}
