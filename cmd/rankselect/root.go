package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vishalbelsare/widefield/config"
	"github.com/vishalbelsare/widefield/report"
	"github.com/vishalbelsare/widefield/selection"
	"github.com/vishalbelsare/widefield/simulate"
	"github.com/vishalbelsare/widefield/store"
)

func newRootCmd(ctx context.Context) *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "rankselect",
		Short:         "PPCA model-order selection for wide-field imaging data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd(ctx))
	root.AddCommand(simulateCmd())
	root.AddCommand(plotCmd())
	return root
}

func runCmd(ctx context.Context) *cobra.Command {
	var (
		configPath string
		dataPath   string
		output     string
		transpose  bool
		resume     bool
		workers    int
		seed       uint64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Estimate ranks for every window and sample size",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if flag := cmd.Flag("log-level"); flag == nil || !flag.Changed {
				level, err := zerolog.ParseLevel(f.LogLevel)
				if err != nil {
					return fmt.Errorf("config log_level: %w", err)
				}
				zerolog.SetGlobalLevel(level)
			}
			flags := cmd.Flags()
			if flags.Changed("data") {
				f.Data.Path = dataPath
			}
			if flags.Changed("transpose") {
				f.Data.Transpose = transpose
			}
			if flags.Changed("out") {
				f.Output = output
			}
			if flags.Changed("resume") {
				f.Resume = resume
			}
			if flags.Changed("workers") {
				f.Workers = workers
			}
			if flags.Changed("seed") {
				f.Seed = seed
			}
			if f.Data.Path == "" {
				return fmt.Errorf("no data file, set data.path or --data")
			}

			X, err := store.LoadMatrix(f.Data.Path, f.Data.Transpose)
			if err != nil {
				return err
			}
			rows, features := X.Dims()
			c := f.Selection(rows)
			log.Info().
				Str("data", f.Data.Path).
				Int("frames", rows).
				Int("features", features).
				Int("window_length", c.WindowLength()).
				Ints("sample_sizes", c.SampleSizes).
				Msg("loaded data")

			dir, err := store.NewDir(f.Output)
			if err != nil {
				return err
			}
			driver, err := selection.NewDriver(c, log.Logger, dir)
			if err != nil {
				return err
			}
			driver.Resume(f.Resume)
			rep, err := driver.Run(ctx, X)
			if err != nil {
				return err
			}
			if len(rep.Failures) > 0 {
				return fmt.Errorf("%d of %d units failed, first: %w", len(rep.Failures), len(rep.Failures)+len(rep.Results), rep.Failures[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&dataPath, "data", "", "observation matrix in gonum binary format")
	cmd.Flags().BoolVar(&transpose, "transpose", false, "stored matrix is features x time")
	cmd.Flags().StringVar(&output, "out", ".", "directory for result artifacts")
	cmd.Flags().BoolVar(&resume, "resume", false, "skip units whose artifact exists")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent units (default: number of CPUs)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "base random seed")
	return cmd
}

func simulateCmd() *cobra.Command {
	var (
		n, d, rank int
		noise      float64
		seed       uint64
		output     string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Write a synthetic low-rank plus noise matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 1 || d < 1 || rank < 1 || noise < 0 {
				return fmt.Errorf("invalid shape n=%d d=%d rank=%d noise=%v", n, d, rank, noise)
			}
			X, _ := simulate.LowRankData(n, d, rank, noise, seed)
			if err := store.SaveMatrix(output, X); err != nil {
				return err
			}
			log.Info().Str("out", output).Int("n", n).Int("d", d).Int("rank", rank).Float64("noise", noise).Msg("wrote synthetic data")
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "n", 1000, "samples (rows)")
	cmd.Flags().IntVar(&d, "d", 50, "features (columns)")
	cmd.Flags().IntVar(&rank, "rank", 3, "latent rank")
	cmd.Flags().Float64Var(&noise, "noise", 1, "noise variance")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&output, "out", "synthetic.bin", "output file")
	return cmd
}

func plotCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "plot ARTIFACT...",
		Short: "Render the curves of result artifacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				res, err := store.LoadResult(path)
				if err != nil {
					return err
				}
				name := filepath.Base(path)
				name = name[:len(name)-len(filepath.Ext(name))] + ".png"
				dst := filepath.Join(output, name)
				if err := report.Curves(res, dst, report.Width, report.Height); err != nil {
					return err
				}
				log.Info().Str("artifact", path).Str("out", dst).Msg("wrote curves")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "out", ".", "output directory")
	return cmd
}
