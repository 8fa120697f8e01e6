package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"git.sr.ht/~whereswaldon/timeline-chart/chart"
	"git.sr.ht/~whereswaldon/timeline-chart/config"
	"git.sr.ht/~whereswaldon/timeline-chart/render"
	"git.sr.ht/~whereswaldon/timeline-chart/viewport"
)

func newRenderCommand(flags *sourceFlags) *cobra.Command {
	var (
		out           string
		width, height int
		at            int64
		timeout       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the source to a PNG image",
		RunE: func(_ *cobra.Command, _ []string) error {
			if width <= 0 || height <= 0 {
				return fmt.Errorf("image size must be positive, got %dx%d", width, height)
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			src, err := flags.open(ctx)
			if err != nil {
				return err
			}
			defer src.Close()

			opts.Measurer = render.NewMeasurer()
			c := chart.New(opts)
			defer c.Close()
			c.Resize(viewport.R(0, 0, float32(width), float32(height)))
			if err := c.Observe(src.Table, nil); err != nil {
				return err
			}
			if err := settle(ctx, c); err != nil {
				return err
			}
			if at != 0 {
				if !c.ScrollTo(at) {
					return fmt.Errorf("no column at timestamp %d", at)
				}
				c.Update(time.Now())
			}

			var w io.Writer = os.Stdout
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return render.PNG(w, c.Frame())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "-", "PNG file to write")
	cmd.Flags().IntVar(&width, "width", 800, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", 400, "image height in pixels")
	cmd.Flags().Int64Var(&at, "at", 0, "timestamp in milliseconds to center, the newest column when unset")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for the source")
	return cmd
}

// settle updates c until its data is loaded and its animations have ended.
func settle(ctx context.Context, c *chart.Chart) error {
	for {
		now := time.Now()
		c.Update(now)
		deadline, busy := c.NextDeadline(now)
		if c.Loaded() && !busy {
			return nil
		}
		wait := time.Until(deadline)
		if !busy {
			wait = time.Second
		}
		select {
		case <-ctx.Done():
			return errors.New("timed out waiting for the chart to settle")
		case <-c.Results():
		case <-time.After(max(wait, time.Millisecond)):
		}
	}
}

func newConfigCommand(flags *sourceFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(_ *cobra.Command, _ []string) error {
			attrs, err := config.Load(flags.config)
			if err != nil {
				return err
			}
			if err := attrs.Validate(); err != nil {
				return err
			}
			return attrs.Write(os.Stdout)
		},
	}
}
