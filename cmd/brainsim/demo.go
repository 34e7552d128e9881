package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Sam-Fatehmanesh/BrainSim/internal/runstore"
	"github.com/Sam-Fatehmanesh/BrainSim/internal/toy"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/plot"
	"github.com/Sam-Fatehmanesh/BrainSim/pkg/trace"
)

func demoCmd() *cli.Command {
	var (
		name     string
		epochs   int64
		seed     int64
		batch    int64
		lr       float64
		traceOut string
		plotOut  string
		noStore  bool
	)

	flags := append([]cli.Flag{}, storeFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "name",
			Usage:       "run name recorded in the store and trace",
			Value:       "demo",
			Destination: &name,
		},
		&cli.Int64Flag{
			Name:        "epochs",
			Aliases:     []string{"e"},
			Usage:       "number of training epochs",
			Value:       50,
			Destination: &epochs,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for weights, sampling and synthetic data",
			Value:       1,
			Destination: &seed,
		},
		&cli.Int64Flag{
			Name:        "batch",
			Usage:       "episodes per training batch",
			Value:       16,
			Destination: &batch,
		},
		&cli.Float64Flag{
			Name:        "lr",
			Usage:       "learning rate",
			Value:       0.05,
			Destination: &lr,
		},
		&cli.StringFlag{
			Name:        "trace-out",
			Usage:       "write the recorded series to a .bst trace file",
			Destination: &traceOut,
		},
		&cli.StringFlag{
			Name:        "plot-out",
			Usage:       "write the loss curve to a PNG file",
			Destination: &plotOut,
		},
		&cli.BoolFlag{
			Name:        "no-store",
			Usage:       "skip recording the run in the database",
			Destination: &noStore,
		},
	)

	return &cli.Command{
		Name:  "demo",
		Usage: "Train the toy world-model head on synthetic episodes",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyDemoConfig(cmd, LoadConfig(), &epochs, &seed, &batch, &lr)
			log := setupLogger()

			if epochs <= 0 {
				return cli.Exit("error: --epochs must be positive", 1)
			}
			cfg := toy.DefaultConfig()
			cfg.Seed = seed
			cfg.Batch = int(batch)
			cfg.LR = lr
			model, err := toy.New(cfg)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			start := time.Now()
			losses := make([]float64, 0, epochs)
			kls := make([]float64, 0, epochs)
			predMeans := make([]float64, 0, epochs)
			for i := int64(0); i < epochs; i++ {
				m := model.TrainStep(model.SampleEpisode())
				losses = append(losses, m.Loss)
				kls = append(kls, m.KL)
				predMeans = append(predMeans, m.Predicted.Mean())
				log.Info("epoch",
					"epoch", i,
					"loss", m.Loss,
					"kl", m.KL,
					"pred_mean", m.Predicted.Mean(),
				)
			}
			log.Info("training finished",
				"epochs", epochs,
				"final_loss", losses[len(losses)-1],
				"elapsed", time.Since(start),
			)

			series := []trace.Series{
				{Name: "loss", Values: losses},
				{Name: "kl_uniform", Values: kls},
				{Name: "pred_mean", Values: predMeans},
			}

			var runID string
			if !noStore {
				runID, err = recordRun(ctx, name, seed, int(epochs), series)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				log.Info("run recorded", "run_id", runID)
			}

			if traceOut != "" {
				path, err := resolveTraceOut(traceOut, name)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				info := &trace.RunInfo{
					RunID:     runID,
					Name:      name,
					StartedAt: start.UTC(),
					Seed:      seed,
					Steps:     int(epochs),
					Params: map[string]float64{
						"batch": float64(batch),
						"lr":    lr,
					},
				}
				if info.RunID == "" {
					info.RunID = name
				}
				if err := trace.WriteFile(path, info, series); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				log.Info("trace written", "path", path)
			}

			if plotOut != "" {
				if err := plot.Save(losses, "Loss", "Loss", plotOut); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				log.Info("loss plot written", "path", plotOut)
			}
			return nil
		},
	}
}

// recordRun persists a finished demo run and its series in the store.
func recordRun(ctx context.Context, name string, seed int64, epochs int, series []trace.Series) (string, error) {
	path, err := resolveStorePath(storePath)
	if err != nil {
		return "", err
	}
	store, err := runstore.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = store.Close() }()

	run, err := store.CreateRun(ctx, name, seed, fmt.Sprintf("demo, %d epochs", epochs))
	if err != nil {
		return "", err
	}
	var points []runstore.Point
	for _, s := range series {
		for step, v := range s.Values {
			points = append(points, runstore.Point{Series: s.Name, Step: step, Value: v})
		}
	}
	if err := store.AppendPoints(ctx, run.ID, points); err != nil {
		return "", err
	}
	return run.ID, nil
}
