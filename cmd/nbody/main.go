package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/nbody/internal/config"
	"github.com/san-kum/nbody/internal/dynamo"
	"github.com/san-kum/nbody/internal/export"
	"github.com/san-kum/nbody/internal/physics"
	"github.com/san-kum/nbody/internal/storage"
	"github.com/san-kum/nbody/internal/viz"
	"github.com/san-kum/nbody/internal/worker"
	"github.com/spf13/cobra"
)

var (
	configFile    string
	dataDir       string
	verbose       bool
	preset        string
	dt            float64
	preview       bool
	requireFinite bool
	sampleEvery   int
	workers       int
	save          bool
	benchCounts   []int
	stepsPerFrame int
	traceSteps    int
	traceEvery    int
	svgSize       int
	outFile       string

	logger *log.Logger
)

// main is the entry point for the nbody CLI. It exits with status 1 if the
// command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "nbody",
		Short:         "jovian planets n-body simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				Prefix:          "nbody",
				ReportTimestamp: true,
				TimeFormat:      time.Kitchen,
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [count]",
		Short: "advance the system count steps and print its energy",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (years)")
	runCmd.Flags().BoolVar(&preview, "preview", true, "print the initial energy before the run completes")
	runCmd.Flags().BoolVar(&requireFinite, "require-finite", true, "fail when the final energy is NaN or Inf")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "energy sampling interval for saved runs")
	runCmd.Flags().BoolVar(&save, "save", false, "save the run report to the data directory")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "run the jobs listed in the config file concurrently",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "concurrent jobs")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time the integrator for several step counts",
		Args:  cobra.NoArgs,
		RunE:  benchSteps,
	}
	benchCmd.Flags().IntSliceVar(&benchCounts, "steps", []int{1000, 10000, 100000, 1000000}, "step counts")
	benchCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (years)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Export(os.Stdout, args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTEPS\tDT\tPREVIEW")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%g\t%v\n", name, p.Steps, p.Dt, p.Preview)
			}
			w.Flush()
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch the orbits evolve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.Run(dt, stepsPerFrame)
		},
	}
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (years)")
	liveCmd.Flags().IntVar(&stepsPerFrame, "speed", 20, "steps per frame")

	orbitsCmd := &cobra.Command{
		Use:   "orbits",
		Short: "trace the orbits and write them as SVG",
		Args:  cobra.NoArgs,
		RunE:  traceOrbits,
	}
	orbitsCmd.Flags().IntVar(&traceSteps, "steps", 20000, "steps to trace")
	orbitsCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (years)")
	orbitsCmd.Flags().IntVar(&traceEvery, "every", 20, "record positions every n steps")
	orbitsCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")
	orbitsCmd.Flags().StringVarP(&outFile, "output", "o", "orbits.svg", "output file")

	rootCmd.AddCommand(runCmd, batchCmd, benchCmd, listCmd, plotCmd, exportCmd, presetsCmd, liveCmd, orbitsCmd)

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error(err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// resolveConfig layers defaults, preset, config file and changed flags,
// each over the previous.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if preset != "" {
			logger.Debug("config file overlays preset", "preset", preset, "file", configFile)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("preview") {
		cfg.Preview = preview
	}
	if flags.Changed("require-finite") {
		cfg.RequireFinite = requireFinite
	}
	if flags.Changed("sample-every") {
		cfg.SampleEvery = sampleEvery
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Root().PersistentFlags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("count must be a non-negative integer, got %q", args[0])
		}
		cfg.Steps = n
	}

	job := worker.Job{
		Steps:         cfg.Steps,
		Dt:            cfg.Dt,
		Preview:       cfg.Preview,
		RequireFinite: cfg.RequireFinite,
	}
	if save {
		job.SampleEvery = cfg.SampleEvery
	}

	pool := worker.New(1, logger)
	logger.Debug("submitting run", "steps", job.Steps, "dt", job.Dt)
	start := time.Now()

	var final worker.Event
	for ev := range pool.Submit(job) {
		switch ev.Kind {
		case worker.Preview:
			fmt.Printf("%.9f\n", ev.Energy)
		case worker.Final:
			final = ev
		}
	}
	elapsed := time.Since(start)

	if final.Err != nil {
		return final.Err
	}
	fmt.Printf("%.9f\n", final.Energy)
	logger.Info("run complete", "steps", final.Steps, "elapsed", elapsed)

	if !save {
		return nil
	}
	if err := dynamo.CheckFinite(final.Steps, final.Energy); err != nil {
		return fmt.Errorf("refusing to save run: %w", err)
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(dynamo.Config{Steps: job.Steps, Dt: job.Dt, SampleEvery: job.SampleEvery}, elapsed, final.Result)
	if err != nil {
		return err
	}
	logger.Info("run saved", "id", runID, "dir", cfg.DataDir)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		return fmt.Errorf("batch needs --config with a jobs list")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	entries := cfg.ResolvedJobs()
	if len(entries) == 0 {
		return fmt.Errorf("%s defines no jobs", configFile)
	}

	jobs := make([]worker.Job, len(entries))
	for i, s := range entries {
		jobs[i] = worker.Job{Steps: s.Steps, Dt: s.Dt, RequireFinite: cfg.RequireFinite}
	}

	pool := worker.New(cfg.Workers, logger)
	logger.Info("running batch", "jobs", len(jobs), "workers", pool.Size())
	events, runErr := pool.RunAll(jobs)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEPS\tDT\tENERGY")
	for i, ev := range events {
		result := fmt.Sprintf("%.9f", ev.Energy)
		if ev.Err != nil {
			result = "error: " + ev.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%g\t%s\n", entries[i].Name, entries[i].Steps, entries[i].Dt, result)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return runErr
}

func benchSteps(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPS\tTIME\tSTEPS/SEC\tENERGY")

	for _, n := range benchCounts {
		if n < 0 {
			return fmt.Errorf("step count must be non-negative, got %d", n)
		}
		start := time.Now()
		e := worker.RunSimulation(n, dt)
		elapsed := time.Since(start)

		rate := 0.0
		if elapsed > 0 {
			rate = float64(n) / elapsed.Seconds()
		}
		fmt.Fprintf(w, "%d\t%v\t%.0f\t%.9f\n", n, elapsed, rate, e)
	}

	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTEPS\tDT\tFINAL ENERGY\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\t%.9f\t%.2e\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.FinalEnergy,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("run %s has no energy samples (save with --sample-every > 0)", meta.ID)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("steps: %d  dt: %g\n", meta.Steps, meta.Dt)
	fmt.Printf("samples: %d\n\n", len(samples))
	fmt.Println(viz.PlotEnergy(samples, "total energy vs sample"))
	fmt.Printf("\ndrift: %.3e\n", meta.EnergyDrift)

	return nil
}

func traceOrbits(cmd *cobra.Command, args []string) error {
	if traceSteps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", traceSteps)
	}
	if dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", dt)
	}

	tracks := export.Trace(physics.NewSystem(), traceSteps, dt, traceEvery)

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.OrbitsSVG(f, tracks, svgSize); err != nil {
		return err
	}
	logger.Info("orbits written", "file", outFile, "steps", traceSteps, "points", len(tracks[0].Points))
	return nil
}
