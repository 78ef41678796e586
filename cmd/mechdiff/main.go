package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"mechdiff/internal/analysis"
	"mechdiff/internal/config"
	"mechdiff/internal/export"
	"mechdiff/internal/integrators"
	"mechdiff/internal/mech"
	"mechdiff/internal/metrics"
	"mechdiff/internal/observe"
	"mechdiff/internal/scalar"
	"mechdiff/internal/sim"
	"mechdiff/internal/statecache"
	"mechdiff/internal/storage"
	"mechdiff/internal/viz"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	theta1     float64
	theta2     float64
	omega1     float64
	omega2     float64
	integrator string
	configFile string
	preset     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mechdiff",
		Short: "differentiable rigid body mechanics lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mechdiff", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate the passive double pendulum",
		RunE:  runSimulation,
	}
	addStateFlags(runCmd)
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4, rk45)")

	jacobianCmd := &cobra.Command{
		Use:   "jacobian",
		Short: "momentum jacobian via dual numbers, checked against the momentum map",
		RunE:  showJacobian,
	}
	addStateFlags(jacobianCmd)

	energyCmd := &cobra.Command{
		Use:   "energy",
		Short: "energies, energy gradient, and exact dE/dt",
		RunE:  showEnergy,
	}
	addStateFlags(energyCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "live terminal animation with conserved-quantity readouts",
		RunE:  runLive,
	}
	addStateFlags(liveCmd)
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	liveCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on energy drift",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addStateFlags(compareCmd)
	compareCmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	compareCmd.Flags().Float64Var(&duration, "time", 10.0, "duration")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the largest Lyapunov exponent",
		RunE:  estimateLyapunov,
	}
	addStateFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&dt, "dt", 0.001, "timestep")
	lyapunovCmd.Flags().Float64Var(&duration, "time", 30.0, "duration")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [output.svg]",
		Short: "render the pendulum tip path of a stored run as SVG",
		Args:  cobra.ExactArgs(2),
		RunE:  exportSVG,
	}

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

	rootCmd.AddCommand(runCmd, jacobianCmd, energyCmd, listCmd, plotCmd, exportJSONCmd, liveCmd, compareCmd, analyzeCmd, lyapunovCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&theta1, "theta1", config.DefaultTheta, "first joint angle")
	cmd.Flags().Float64Var(&theta2, "theta2", config.DefaultTheta, "second joint angle (relative)")
	cmd.Flags().Float64Var(&omega1, "omega1", 0.0, "first joint velocity")
	cmd.Flags().Float64Var(&omega2, "omega2", 0.0, "second joint velocity")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig folds preset, config file, and CLI flags together; the
// flags win when the user set them explicitly.
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
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("theta1") {
		cfg.InitState.Theta1 = theta1
	}
	if cmd.Flags().Changed("theta2") {
		cfg.InitState.Theta2 = theta2
	}
	if cmd.Flags().Changed("omega1") {
		cfg.InitState.Omega1 = omega1
	}
	if cmd.Flags().Changed("omega2") {
		cfg.InitState.Omega2 = omega2
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildCache(cfg *config.Config) *statecache.Cache {
	return statecache.New(mech.DoublePendulum(cfg.Params()))
}

func getIntegrator(name string) (sim.Integrator, error) {
	switch name {
	case "euler":
		return integrators.NewEuler(), nil
	case "rk4":
		return integrators.NewRK4(), nil
	case "rk45":
		return integrators.NewRK45(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	cache := buildCache(cfg)

	integ, err := getIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	dyn := sim.NewMechanismSystem(cache)
	s := sim.New(dyn, integ)
	s.AddMetric(metrics.NewEnergyDrift(dyn))
	s.AddMetric(metrics.NewEnergyRate(cache))

	simCfg := sim.DefaultConfig()
	simCfg.Dt = cfg.Dt
	simCfg.Duration = cfg.Duration

	fmt.Println("running double pendulum simulation...")
	start := time.Now()

	result, err := s.Run(context.Background(), cfg.GetInitState(), simCfg)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Dt, cfg.Duration, cfg.Integrator, preset, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6e\n", name, val)
	}
	for _, e := range result.Errors {
		fmt.Printf("step error: %v\n", e)
	}

	return nil
}

func showJacobian(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	cache := buildCache(cfg)

	x := cfg.GetInitState()
	q, v := x[:2], x[2:]

	jac, err := observe.MomentumJacobian(cache, q, v)
	if err != nil {
		return err
	}
	amap := mech.MomentumMatrix(cache.Mechanism(), q)

	rows, cols := jac.Dims()
	labels := []string{"h_ang_x", "h_ang_y", "h_ang_z", "h_lin_x", "h_lin_y", "h_lin_z"}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tdh/dv1 (AD)\tdh/dv2 (AD)\tA(q) col1\tA(q) col2")
	maxDev := 0.0
	for i := 0; i < rows; i++ {
		fmt.Fprintf(w, "%s", labels[i])
		for j := 0; j < cols; j++ {
			fmt.Fprintf(w, "\t%+.9f", jac.At(i, j))
		}
		for j := 0; j < cols; j++ {
			fmt.Fprintf(w, "\t%+.9f", amap.At(i, j))
			if dev := absFloat(jac.At(i, j) - amap.At(i, j)); dev > maxDev {
				maxDev = dev
			}
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nmax |jacobian - momentum map|: %.3e\n", maxDev)
	return nil
}

func showEnergy(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	cache := buildCache(cfg)

	x := cfg.GetInitState()
	q, v := x[:2], x[2:]

	s := statecache.For[scalar.Real](cache)
	s.SetConfigurationFloats(q)
	s.SetVelocityFloats(v)

	fmt.Printf("q = %v, v = %v\n\n", q, v)
	fmt.Printf("kinetic energy:   %.9f\n", s.KineticEnergy().Float())
	fmt.Printf("potential energy: %.9f\n", s.PotentialEnergy().Float())
	fmt.Printf("total energy:     %.9f\n", s.TotalEnergy().Float())

	grad, err := observe.EnergyGradient(cache, q, v)
	if err != nil {
		return err
	}
	fmt.Printf("\ndE/d[q;v] = %v\n", grad)

	rate, err := observe.EnergyRate(cache, q, v)
	if err != nil {
		return err
	}
	fmt.Printf("dE/dt along passive dynamics: %+.3e\n", rate)

	h, err := observe.MomentumFloats(cache, q, v)
	if err != nil {
		return err
	}
	fmt.Printf("\nspatial momentum [ang; lin] = %v\n", mat.Formatted(mat.NewVecDense(len(h), h), mat.Prefix("                              ")))
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
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tINTEG\tPRESET\tDRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%.2e\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Preset,
			run.EnergyDrift,
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

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(states))

	captions := []string{"theta1", "theta2", "omega1", "omega2"}
	for varIdx := range states[0] {
		data := make([]float64, len(states))
		for i := range states {
			data[i] = states[i][varIdx]
		}

		caption := fmt.Sprintf("x%d vs time", varIdx)
		if varIdx < len(captions) {
			caption = captions[varIdx]
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	result := &sim.Result{
		States:      make([]sim.State, len(states)),
		Times:       times,
		Metrics:     meta.Metrics,
		EnergyDrift: meta.EnergyDrift,
		StepsTaken:  meta.Steps,
	}
	for i, s := range states {
		result.States[i] = s
	}

	return storage.ExportJSONStdout(meta.Integrator, meta.Preset, meta.Dt, meta.Duration, result)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	cache := buildCache(cfg)

	integ, err := getIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	m := viz.NewModel(cache, integ, cfg.Params(), cfg.GetInitState(), cfg.Dt)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("comparing integrators (dt=%.4f, duration=%.1fs)\n\n", cfg.Dt, cfg.Duration)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tFINAL THETA1\tENERGY DRIFT\tTIME")

	for _, name := range args {
		integ, err := getIntegrator(name)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		// Fresh cache per integrator keeps the comparison independent.
		s := sim.New(sim.NewMechanismSystem(buildCache(cfg)), integ)

		simCfg := sim.DefaultConfig()
		simCfg.Dt = cfg.Dt
		simCfg.Duration = cfg.Duration

		start := time.Now()
		result, err := s.Run(context.Background(), cfg.GetInitState(), simCfg)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		final := result.States[len(result.States)-1]
		fmt.Fprintf(w, "%s\t%+.6f\t%.2e\t%v\n", name, final[0], result.EnergyDrift, elapsed)
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

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 || len(states[0]) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n\n", meta.ID)

	data := make([]float64, len(states))
	for i := range states {
		data[i] = states[i][0]
	}

	ps := analysis.PowerSpectrum(data)
	plotData := ps[:len(ps)/4]

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (theta1)"),
	)
	fmt.Println(graph)
	fmt.Println()

	maxPower := 0.0
	maxIdx := 0
	for i := 1; i < len(plotData); i++ {
		if plotData[i] > maxPower {
			maxPower = plotData[i]
			maxIdx = i
		}
	}

	freq := float64(maxIdx) / meta.Duration
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	return nil
}

func estimateLyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	dyn := sim.NewMechanismSystem(buildCache(cfg))

	fmt.Printf("estimating largest Lyapunov exponent (dt=%.4f, duration=%.1fs)...\n", cfg.Dt, cfg.Duration)
	lam := analysis.LyapunovExponent(dyn, integrators.NewRK4(), cfg.GetInitState(), cfg.Dt, cfg.Duration, 1e-9)

	fmt.Printf("lambda = %.4f\n", lam)
	if lam > 0.01 {
		fmt.Println("trajectories diverge exponentially: chaotic regime")
	} else {
		fmt.Println("no exponential divergence detected: regular regime")
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID, outPath := args[0], args[1]

	st := storage.New(dataDir)
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) < 2 {
		return fmt.Errorf("not enough data to render")
	}

	// Stored runs carry no geometry, so the default link lengths apply.
	points := export.TipPath(mech.DefaultDoublePendulumParams(), states)
	svg := export.TrajectoryToSVG(points, 800, 600, "#00ff88")
	if svg == "" {
		return fmt.Errorf("degenerate trajectory")
	}

	if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d points)\n", outPath, len(points))
	return nil
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
