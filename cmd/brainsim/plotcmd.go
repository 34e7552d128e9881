package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/Sam-Fatehmanesh/BrainSim/pkg/plot"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/trace"
)

func plotCmd() *cli.Command {
	var (
		tracePath string
		series    string
		out       string
		title     string
	)

	flags := append([]cli.Flag{}, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "trace",
			Aliases:     []string{"t"},
			Usage:       "path to a .bst trace file",
			Destination: &tracePath,
		},
		&cli.StringFlag{
			Name:        "series",
			Usage:       "series name to plot",
			Value:       "loss",
			Destination: &series,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "output PNG path",
			Destination: &out,
		},
		&cli.StringFlag{
			Name:        "title",
			Usage:       "chart title (defaults to the series name)",
			Destination: &title,
		},
	)

	return &cli.Command{
		Name:  "plot",
		Usage: "Render a series from a trace file as a PNG chart",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := setupLogger()
			if strings.TrimSpace(tracePath) == "" {
				return cli.Exit("error: --trace is required", 1)
			}
			if strings.TrimSpace(out) == "" {
				return cli.Exit("error: --out is required", 1)
			}

			info, all, err := trace.ReadFile(tracePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			var values []float64
			for _, s := range all {
				if s.Name == series {
					values = s.Values
					break
				}
			}
			if values == nil {
				names := make([]string, 0, len(all))
				for _, s := range all {
					names = append(names, s.Name)
				}
				return cli.Exit(fmt.Sprintf(
					"error: trace %s has no series %q (available: %s)",
					tracePath, series, strings.Join(names, ", ")), 1)
			}

			if title == "" {
				title = series
			}
			if err := plot.Save(values, title, series, out); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Info("chart written",
				"run", info.Name,
				"series", series,
				"points", len(values),
				"path", out,
			)
			return nil
		},
	}
}
