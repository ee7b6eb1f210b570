package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/krinkin/pid-simulation/internal/analysis"
	"github.com/krinkin/pid-simulation/internal/automation"
	"github.com/krinkin/pid-simulation/internal/config"
	"github.com/krinkin/pid-simulation/internal/export"
	"github.com/krinkin/pid-simulation/internal/metrics"
	"github.com/krinkin/pid-simulation/internal/physics"
	"github.com/krinkin/pid-simulation/internal/sim"
	"github.com/krinkin/pid-simulation/internal/storage"
	"github.com/krinkin/pid-simulation/internal/telemetry"
	"github.com/krinkin/pid-simulation/internal/tui"
)

// Flag variables are per command: pflag writes each flag's default into its
// bound variable at registration time, so two commands must never register
// onto the same variable with different defaults.
var (
	dataDir string

	rootConfigFile string
	rootPreset     string

	runConfigFile string
	runPreset     string
	runDt         float64
	runDuration   float64
	kp            float64
	ki            float64
	kd            float64
	mass          float64
	wind          float64
	target        float64
	runStart      float64
	runSettleBand float64
	// Prometheus listener; 0 disables it
	metricsPort int

	// Chart output
	chartOut  string
	autoScale bool

	sweepConfigFile string
	sweepPreset     string
	sweepParam      string
	sweepMin        float64
	sweepMax        float64
	sweepSteps      int
	sweepDt         float64
	sweepDuration   float64
	sweepStart      float64
	sweepSettleBand float64

	analyzeBand float64
)

// main launches the interactive simulator when no subcommand is given and
// exits with status 1 on command error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pidsim",
		Short: "interactive pid platform simulator",
		RunE:  runInteractive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidsim", "data directory")
	rootCmd.Flags().StringVar(&rootConfigFile, "config", "", "config file path (yaml)")
	rootCmd.Flags().StringVar(&rootPreset, "preset", "", "use preset configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless simulation",
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&runDt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&runDuration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	runCmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "integral gain")
	runCmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
	runCmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "platform mass")
	runCmd.Flags().Float64Var(&wind, "wind", config.DefaultWind, "constant wind force")
	runCmd.Flags().Float64Var(&target, "target", sim.WorldCenter, "setpoint position")
	runCmd.Flags().Float64Var(&runStart, "start", sim.WorldCenter, "initial platform position")
	runCmd.Flags().Float64Var(&runSettleBand, "settle-band", 10.0, "error band for the settling metric")
	runCmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "serve prometheus metrics on this port during the run")
	runCmd.Flags().StringVar(&runConfigFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&runPreset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "render run results to a PNG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringVar(&chartOut, "out", "", "output file (default <run_id>.png)")
	chartCmd.Flags().BoolVar(&autoScale, "auto-scale", false, "fit axes to the data instead of fixed ranges")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a parameter sweep and report tuning figures",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "kp", "parameter to sweep (kp, ki, kd, mass, wind)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "sweep range start")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 10, "sweep range end")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of values in the range")
	sweepCmd.Flags().Float64Var(&sweepDt, "dt", config.DefaultDt, "timestep")
	sweepCmd.Flags().Float64Var(&sweepDuration, "time", config.DefaultDuration, "duration")
	sweepCmd.Flags().Float64Var(&sweepStart, "start", sim.WorldCenter-300, "initial platform position")
	sweepCmd.Flags().Float64Var(&sweepSettleBand, "settle-band", 10.0, "error band for settling time")
	sweepCmd.Flags().StringVar(&sweepConfigFile, "config", "", "config file path (yaml)")
	sweepCmd.Flags().StringVar(&sweepPreset, "preset", "", "use preset configuration")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step-response and oscillation analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&analyzeBand, "settle-band", 10.0, "error band for settling time")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, chartCmd, sweepCmd, analyzeCmd, presetsCmd)

	return rootCmd
}

// loadConfig resolves preset then config file, falling back to defaults.
func loadConfig(configFile, preset string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	return cfg, nil
}

func paramsFromConfig(cfg *config.Config) sim.Params {
	params := sim.DefaultParams()
	params.Kp = cfg.Controller.Kp
	params.Ki = cfg.Controller.Ki
	params.Kd = cfg.Controller.Kd
	params.Enabled.P = cfg.Controller.PEnabled
	params.Enabled.I = cfg.Controller.IEnabled
	params.Enabled.D = cfg.Controller.DEnabled
	params.Mass = cfg.Platform.Mass
	params.Wind = cfg.Platform.Wind
	params.Speed = cfg.Run.Speed
	return params
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(rootConfigFile, rootPreset)
	if err != nil {
		return err
	}

	return tui.Run(paramsFromConfig(cfg), cfg.Graph.MaxPoints, cfg.Graph.TimeWindow)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runConfigFile, runPreset)
	if err != nil {
		return err
	}

	// CLI flags override preset and config file values.
	if !cmd.Flags().Changed("dt") {
		runDt = cfg.Run.Dt
	}
	if !cmd.Flags().Changed("time") {
		runDuration = cfg.Run.Duration
	}
	if !cmd.Flags().Changed("kp") {
		kp = cfg.Controller.Kp
	}
	if !cmd.Flags().Changed("ki") {
		ki = cfg.Controller.Ki
	}
	if !cmd.Flags().Changed("kd") {
		kd = cfg.Controller.Kd
	}
	if !cmd.Flags().Changed("mass") {
		mass = cfg.Platform.Mass
	}
	if !cmd.Flags().Changed("wind") {
		wind = cfg.Platform.Wind
	}
	if cfg.Platform.Start != 0 && !cmd.Flags().Changed("start") {
		runStart = cfg.Platform.Start
	}

	params := paramsFromConfig(cfg)
	params.Kp = kp
	params.Ki = ki
	params.Kd = kd
	params.Mass = mass
	params.Wind = wind
	params.Setpoint = target

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	driver, err := sim.NewDriver(params)
	if err != nil {
		return err
	}
	driver.PlacePlatform(runStart)

	driver.AddMetric(metrics.NewControlEffort())
	driver.AddMetric(metrics.NewSettling(runSettleBand))
	driver.AddMetric(metrics.NewDeadbandOccupancy(physics.DeadbandThreshold))

	if metricsPort > 0 {
		collector := telemetry.NewCollector()
		driver.AddObserver(collector)

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			addr := fmt.Sprintf(":%d", metricsPort)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("metrics listener: %v", err)
			}
		}()
		log.Printf("serving metrics on :%d/metrics", metricsPort)
	}

	runCfg := sim.Config{Dt: runDt, Duration: runDuration}

	log.Printf("running simulation for %gs at dt %g", runDuration, runDt)
	began := time.Now()

	result, err := driver.Run(context.Background(), runCfg)
	if err != nil {
		return err
	}

	log.Printf("completed in %v", time.Since(began))

	runID, err := st.Save(params, runCfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", len(result.Samples))
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tKP\tKI\tKD\tMASS\tWIND")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%.3f\t%.3f\t%.3f\t%.2f\t%.1f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Params.Kp,
			run.Params.Ki,
			run.Params.Kd,
			run.Params.Mass,
			run.Params.Wind,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	panes := []struct {
		caption string
		field   func(sim.Sample) float64
	}{
		{"error vs time", func(s sim.Sample) float64 { return s.Error }},
		{"control output vs time", func(s sim.Sample) float64 { return s.Output }},
		{"platform position vs time", func(s sim.Sample) float64 { return s.Position }},
	}

	for _, pane := range panes {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = pane.field(s)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(pane.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(sweepConfigFile, sweepPreset)
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("dt") {
		sweepDt = cfg.Run.Dt
	}
	if !cmd.Flags().Changed("time") {
		sweepDuration = cfg.Run.Duration
	}

	sweep := automation.Sweep{
		Param:      sweepParam,
		Min:        sweepMin,
		Max:        sweepMax,
		Steps:      sweepSteps,
		Base:       paramsFromConfig(cfg),
		Start:      sweepStart,
		Run:        sim.Config{Dt: sweepDt, Duration: sweepDuration},
		SettleBand: sweepSettleBand,
	}

	fmt.Printf("sweeping %s from %g to %g in %d steps...\n\n", sweepParam, sweepMin, sweepMax, sweepSteps)

	points, err := sweep.Execute(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL_ERR\tEFFORT\tOVERSHOOT\tSETTLE\n", sweepParam)
	for _, p := range points {
		settle := "never"
		if p.SettlingTime >= 0 {
			settle = fmt.Sprintf("%.2fs", p.SettlingTime)
		}
		fmt.Fprintf(w, "%.3f\t%.2f\t%.2f\t%.1f%%\t%s\n",
			p.Value, p.FinalError, p.ControlEffort, p.Overshoot*100, settle)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	errs := make([]float64, len(samples))
	for i, s := range samples {
		errs[i] = s.Error
	}

	ps := analysis.Spectrum(errs)
	plotData := ps[:len(ps)/4]

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("error spectrum"),
	)
	fmt.Println(graph)
	fmt.Println()

	if freq, _ := analysis.DominantFrequency(errs, meta.Dt); freq > 0 {
		fmt.Printf("dominant oscillation: %.3f hz (period %.3f s)\n", freq, 1.0/freq)
	} else {
		fmt.Println("no dominant oscillation")
	}

	fmt.Printf("overshoot: %.1f%%\n", analysis.Overshoot(samples)*100)

	if ts := analysis.SettlingTime(samples, analyzeBand); ts >= 0 {
		fmt.Printf("settling time (|err| <= %.0f): %.2f s\n", analyzeBand, ts)
	} else {
		fmt.Printf("never settled inside |err| <= %.0f\n", analyzeBand)
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"time", "error", "output", "p", "i", "d", "position", "velocity"}); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			fmtFloat(s.Time),
			fmtFloat(s.Error),
			fmtFloat(s.Output),
			fmtFloat(s.P),
			fmtFloat(s.I),
			fmtFloat(s.D),
			fmtFloat(s.Position),
			fmtFloat(s.Velocity),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(v float64) string {
	return fmt.Sprintf("%.6f", v)
}

func chartRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	out := chartOut
	if out == "" {
		out = runID + ".png"
	}

	if err := export.WriteChart(out, samples, export.Options{AutoScale: autoScale}); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", out)
	return nil
}
