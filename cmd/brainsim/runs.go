package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/Sam-Fatehmanesh/BrainSim/internal/runstore"
)

func runsCmd() *cli.Command {
	flags := append([]cli.Flag{}, storeFlags()...)
	flags = append(flags, loggingFlags()...)

	return &cli.Command{
		Name:    "runs",
		Aliases: []string{"ls"},
		Usage:   "List recorded training runs",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := setupLogger()

			path, err := resolveStorePath(storePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			store, err := runstore.Open(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if len(runs) == 0 {
				log.Info("no runs recorded", "store", path)
				return nil
			}

			fmt.Printf("Runs in %s:\n\n", path)
			for _, r := range runs {
				series, err := store.ListSeries(ctx, r.ID)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				names := make([]string, 0, len(series))
				for _, s := range series {
					names = append(names, s.Name)
				}
				fmt.Printf("  %-20s %s  seed=%d steps=%d  [%s]\n",
					r.Name,
					r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.Seed,
					r.Steps,
					strings.Join(names, ", "),
				)
				fmt.Printf("  %20s id=%s\n", "", r.ID)
			}
			fmt.Printf("\n%d run(s) found\n", len(runs))
			return nil
		},
	}
}
