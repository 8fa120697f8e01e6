package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/spf13/cobra"

	"git.sr.ht/~whereswaldon/timeline-chart/chart"
)

func main() {
	var (
		flags   sourceFlags
		verbose bool
	)
	root := cobra.Command{
		Use:   "timeline-chart",
		Short: "timeline-chart scrolls through timestamped series as a bar chart.",
		Long: `timeline-chart charts the rows of a CSV file or SQLite query, one column of
bars per timestamp. Without a source it charts synthetic sensors.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose || os.Getenv("TIMELINE_DEBUG") != "" {
				log.SetOutput(os.Stderr)
			} else {
				log.SetOutput(io.Discard)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return runWindow(&flags)
		},
	}
	flags.register(&root)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics to stderr")

	root.AddCommand(
		newTUICommand(&flags),
		newRenderCommand(&flags),
		newGenerateCommand(),
		newConfigCommand(&flags),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// runWindow opens the chart window. It does not return.
func runWindow(flags *sourceFlags) error {
	opts, err := flags.options()
	if err != nil {
		return err
	}
	w := app.NewWindow(app.Title("Timeline Chart"))
	opts.Invalidate = w.Invalidate
	opts.Sound = newBell(os.Stdout)
	go func() {
		if err := serve(w, flags, opts); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}

// serve drives the window until it is destroyed.
func serve(w *app.Window, flags *sourceFlags, opts chart.Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := chart.New(opts)
	defer c.Close()
	loader := NewLoader(ctx, flags.follow)
	defer loader.Close()
	loader.Load("source", flags.open)
	return loop(ctx, w, loader, c)
}

func loop(ctx context.Context, w *app.Window, loader *Loader, c *chart.Chart) error {
	controller := stream.NewController(ctx, w.Invalidate)
	expl := explorer.NewExplorer(w)
	ui := NewUI(controller, loader, expl, c)
	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
			controller.Sweep()
		}
	}
}
