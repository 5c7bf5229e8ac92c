package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	showcase "github.com/goliatone/go-showcase"
	"golang.org/x/sync/errgroup"
)

// ServeCmd runs the preview server until interrupted.
type ServeCmd struct {
	Addr  string `help:"Listen address, overrides the configuration."`
	Watch bool   `help:"Watch the packages directory and evict cached manifests on change."`
	Warm  bool   `help:"Materialize every package catalog in the background on start."`
}

func (s *ServeCmd) Run(g *Globals, cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	module, err := cli.Module(func(cfg *showcase.Config) {
		if addr := strings.TrimSpace(s.Addr); addr != "" {
			cfg.Server.Addr = addr
		}
		if s.Watch {
			cfg.Packages.Watch = true
		}
	})
	if err != nil {
		return err
	}
	defer module.Close()

	if s.Warm && module.Config().Catalog.Enabled {
		go func() {
			if _, err := warmPackages(ctx, module, nil); err != nil {
				module.Logger().Warn("cli.serve.warm_failed", "error", err)
			}
		}()
	}
	return module.Run(ctx)
}

// ListCmd prints the packages as a table or JSON.
type ListCmd struct {
	JSON     bool   `name:"json" help:"Print JSON instead of a table."`
	Category string `help:"Only list packages in this category."`
}

func (l *ListCmd) Run(g *Globals, cli *CLI) error {
	module, err := cli.Module()
	if err != nil {
		return err
	}
	defer module.Close()

	pkgs, err := module.Packages(context.Background())
	if err != nil {
		return err
	}
	if category := strings.TrimSpace(l.Category); category != "" {
		pkgs = filterCategory(pkgs, category)
	}
	if l.JSON {
		return writeJSON(g.Out, pkgs)
	}

	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tTITLE\tCATEGORIES\tFRONT PAGE")
	for _, pkg := range pkgs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", pkg.Slug, pkg.Title, strings.Join(pkg.Categories, ","), pkg.FrontPageSlug)
	}
	return tw.Flush()
}

func filterCategory(pkgs []showcase.Package, category string) []showcase.Package {
	out := pkgs[:0]
	for _, pkg := range pkgs {
		for _, c := range pkg.Categories {
			if strings.EqualFold(c, category) {
				out = append(out, pkg)
				break
			}
		}
	}
	return out
}

// ValidateCmd checks manifests of one package or all of them.
type ValidateCmd struct {
	Slug string `arg:"" optional:"" help:"Package slug; all packages when omitted."`
}

func (v *ValidateCmd) Run(g *Globals, cli *CLI) error {
	module, err := cli.Module()
	if err != nil {
		return err
	}
	defer module.Close()

	ctx := context.Background()
	slugs, err := packageSlugs(ctx, module, v.Slug)
	if err != nil {
		return err
	}

	failed := 0
	for _, slug := range slugs {
		issues, err := module.Validate(ctx, slug)
		if err != nil {
			return err
		}
		if len(issues) == 0 {
			fmt.Fprintf(g.Out, "%s: ok\n", slug)
			continue
		}
		failed++
		fmt.Fprintf(g.Out, "%s: %d issue(s)\n", slug, len(issues))
		for _, issue := range issues {
			fmt.Fprintf(g.Out, "  %s\n", issue)
		}
	}
	if failed > 0 {
		fmt.Fprintf(g.Err, "%d of %d package(s) failed validation\n", failed, len(slugs))
		return errIssuesFound
	}
	return nil
}

// RenderCmd prints the document served for one preview path.
type RenderCmd struct {
	Demo string `arg:"" help:"Package slug."`
	Path string `arg:"" optional:"" help:"Inner path, e.g. about/ (defaults to the front page)."`
}

func (r *RenderCmd) Run(g *Globals, cli *CLI) error {
	module, err := cli.Module()
	if err != nil {
		return err
	}
	defer module.Close()

	status, html, err := module.Render(context.Background(), r.Demo, strings.TrimLeft(r.Path, "/"))
	if err != nil {
		return err
	}
	if status != 200 {
		fmt.Fprintf(g.Err, "status %d\n", status)
	}
	_, err = io.WriteString(g.Out, html)
	return err
}

// WarmCmd materializes catalogs and prints the reports.
type WarmCmd struct {
	Slug string `arg:"" optional:"" help:"Package slug; all packages when omitted."`
}

func (w *WarmCmd) Run(g *Globals, cli *CLI) error {
	module, err := cli.Module()
	if err != nil {
		return err
	}
	defer module.Close()

	ctx := context.Background()
	var slugs []string
	if w.Slug != "" {
		slugs = []string{w.Slug}
	}
	results, err := warmPackages(ctx, module, slugs)
	if err != nil {
		return err
	}
	return writeJSON(g.Out, results)
}

// warmPackages warms slugs, or every package when slugs is empty, bounded by
// the configured warm concurrency. Results keep the order of slugs.
func warmPackages(ctx context.Context, module *showcase.Module, slugs []string) ([]showcase.WarmResult, error) {
	if len(slugs) == 0 {
		all, err := packageSlugs(ctx, module, "")
		if err != nil {
			return nil, err
		}
		slugs = all
	}

	results := make([]showcase.WarmResult, len(slugs))
	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	if limit := module.Config().Catalog.WarmConcurrency; limit > 0 {
		group.SetLimit(limit)
	}
	for i, slug := range slugs {
		group.Go(func() error {
			result, err := module.Warm(gctx, slug)
			if err != nil {
				return fmt.Errorf("warm %s: %w", slug, err)
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func packageSlugs(ctx context.Context, module *showcase.Module, slug string) ([]string, error) {
	if slug = strings.TrimSpace(slug); slug != "" {
		pkg, err := module.Package(ctx, slug)
		if err != nil {
			return nil, err
		}
		return []string{pkg.Slug}, nil
	}
	pkgs, err := module.Packages(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(pkgs))
	for _, pkg := range pkgs {
		slugs = append(slugs, pkg.Slug)
	}
	return slugs, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
