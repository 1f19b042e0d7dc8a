package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kinboard/pkg/cache"
	"github.com/matzehuels/kinboard/pkg/canvas"
	"github.com/matzehuels/kinboard/pkg/config"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/render"
	"github.com/matzehuels/kinboard/pkg/render/nodelink"
	"github.com/matzehuels/kinboard/pkg/render/svg"
)

// Render formats.
const (
	formatSVG      = "svg"      // canvas drawing
	formatDOT      = "dot"      // Graphviz source
	formatGraphviz = "graphviz" // Graphviz-rendered SVG
	formatPDF      = "pdf"      // canvas drawing via rsvg-convert
	formatPNG      = "png"      // canvas drawing via rsvg-convert
)

var renderFormats = []string{formatSVG, formatDOT, formatGraphviz, formatPDF, formatPNG}

const renderCacheTTL = 7 * 24 * time.Hour

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string
	format    string
	title     string
	handles   bool    // draw connection handles on the cards
	free      bool    // graphviz: let Graphviz place members
	relations bool    // graphviz: add relationship labels under names
	scale     float64 // png: output scale
	noCache   bool
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: formatSVG, relations: true, scale: 2}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the tree as SVG, PDF, PNG or Graphviz",
		Long: `Render the tree.

svg, pdf and png draw the canvas as it appears in the editor. dot writes the
Graphviz source with members pinned at their canvas positions, and graphviz
renders that source with Graphviz itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout for svg and dot)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(renderFormats, ", "))
	cmd.Flags().StringVar(&opts.title, "title", "", "document title")
	cmd.Flags().BoolVar(&opts.handles, "handles", false, "draw connection handles")
	cmd.Flags().BoolVar(&opts.free, "free", false, "let Graphviz lay out the tree (dot, graphviz)")
	cmd.Flags().BoolVar(&opts.relations, "relations", opts.relations, "show relationships under names (dot, graphviz)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "png scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not reuse earlier graphviz, pdf and png output")

	return cmd
}

func validateFormat(f string) error {
	if !slices.Contains(renderFormats, f) {
		return fmt.Errorf("invalid format: %s (must be one of %s)", f, strings.Join(renderFormats, ", "))
	}
	return nil
}

func (c *CLI) runRender(ctx context.Context, w io.Writer, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	snap, err := c.loadSnapshot(ctx)
	if err != nil {
		return err
	}
	out, err := c.renderCached(ctx, snap, opts)
	if err != nil {
		return err
	}

	if opts.output == "" {
		if opts.format == formatPDF || opts.format == formatPNG {
			return fmt.Errorf("%s output needs -o", opts.format)
		}
		_, err := w.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	prog.done(fmt.Sprintf("Rendered %d members", len(snap.Members)))
	printFile(opts.output)
	return nil
}

// renderCached reuses earlier output for the formats that shell out or run
// Graphviz. The key covers the whole tree, so any edit misses.
func (c *CLI) renderCached(ctx context.Context, snap family.Snapshot, opts *renderOpts) ([]byte, error) {
	card, zh := c.cfg.CardSize(), c.cfg.Localized()
	compute := func() ([]byte, error) { return renderSnapshot(ctx, snap, card, zh, opts) }
	if opts.noCache || opts.format == formatSVG || opts.format == formatDOT {
		return compute()
	}

	fc, err := cache.NewFileCache(filepath.Join(config.DataDir(), "cache"))
	if err != nil {
		loggerFromContext(ctx).Warn("render cache unavailable", "err", err)
		return compute()
	}
	key := cache.RenderKey(snap, opts.format, map[string]any{
		"card": card, "zh": zh, "title": opts.title, "handles": opts.handles,
		"free": opts.free, "relations": opts.relations, "scale": opts.scale,
	})
	return cache.GetOrCompute(ctx, fc, key, renderCacheTTL, compute)
}

// renderSnapshot produces the bytes for one format.
func renderSnapshot(ctx context.Context, snap family.Snapshot, card geometry.Size, localize bool, opts *renderOpts) ([]byte, error) {
	switch opts.format {
	case formatDOT, formatGraphviz:
		dot := nodelink.ToDOT(snap, nodelink.Options{
			Localize:  localize,
			Relations: opts.relations,
			CardSize:  card,
			Free:      opts.free,
		})
		if opts.format == formatDOT {
			return []byte(dot), nil
		}
		return nodelink.RenderSVG(ctx, dot)
	}

	model := canvas.Project(snap, canvas.Idle{}, geometry.NewViewport(), canvas.ProjectOptions{
		CardSize: card,
		Localize: localize,
		Locked:   true,
	})
	doc := svg.Render(model, svg.WithTitle(opts.title), svg.WithHandles(opts.handles))
	switch opts.format {
	case formatPDF:
		return render.ToPDF(doc)
	case formatPNG:
		return render.ToPNG(doc, opts.scale)
	}
	return doc, nil
}
