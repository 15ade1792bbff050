package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/moss-coleman/acdlo/internal/cache"
	"github.com/moss-coleman/acdlo/internal/config"
	"github.com/moss-coleman/acdlo/internal/derive"
	"github.com/moss-coleman/acdlo/internal/evaluate"
	"github.com/moss-coleman/acdlo/internal/sim"
	"github.com/moss-coleman/acdlo/internal/viz"
)

var (
	cacheDir  string
	polyOrder int
	numMasses int
	massBody  float64
	massEnd   float64
	length    float64
	diameter  float64
	thetaFlag string
	dthetaStr string
	ddthetaSt string
	arcS      float64
	sectionD  float64
	gamma     float64
	sweepVar  int
	sweepSpan float64
	simDt     float64
	simTime   float64
	damping   float64
	// Config file
	configFile string
	// Preset name
	preset string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "acdlo",
		Short: "polynomial-curvature appendage dynamics lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", config.DefaultCacheDir, "model cache directory")
	rootCmd.PersistentFlags().IntVar(&polyOrder, "order", config.DefaultPolyOrder, "curvature polynomial order (0-2)")
	rootCmd.PersistentFlags().IntVar(&numMasses, "masses", config.DefaultNumMasses, "lumped masses for the body")
	rootCmd.PersistentFlags().Float64Var(&massBody, "m-body", config.DefaultMassBody, "distributed body mass m_L")
	rootCmd.PersistentFlags().Float64Var(&massEnd, "m-end", config.DefaultMassEnd, "end mass m_E")
	rootCmd.PersistentFlags().Float64Var(&length, "length", config.DefaultLength, "appendage length L")
	rootCmd.PersistentFlags().Float64Var(&diameter, "diameter", config.DefaultDiameter, "appendage diameter D")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	deriveCmd := &cobra.Command{
		Use:   "derive",
		Short: "derive the symbolic model and fill the cache",
		RunE:  runDerive,
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "show cache contents",
		RunE:  runInfo,
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "export the cache manifest as JSON",
		RunE:  runExport,
	}

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "evaluate the model at a configuration",
		RunE:  runEval,
	}
	evalCmd.Flags().StringVar(&thetaFlag, "theta", "", "states, comma separated")
	evalCmd.Flags().StringVar(&dthetaStr, "dtheta", "", "state velocities, comma separated")
	evalCmd.Flags().StringVar(&ddthetaSt, "ddtheta", "", "state accelerations, comma separated")
	evalCmd.Flags().Float64Var(&arcS, "s", 1.0, "arc coordinate in [0,1]")
	evalCmd.Flags().Float64Var(&sectionD, "d", 0.0, "section coordinate in [-1/2,1/2]")
	evalCmd.Flags().Float64Var(&gamma, "gamma", 0.0, "gravity tilt angle")

	shapeCmd := &cobra.Command{
		Use:   "shape",
		Short: "render the appendage shape",
		RunE:  runShape,
	}
	shapeCmd.Flags().StringVar(&thetaFlag, "theta", "", "states, comma separated")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "sweep one state and plot tip position and gravity torque",
		RunE:  runPlot,
	}
	plotCmd.Flags().IntVar(&sweepVar, "state", 0, "state index to sweep")
	plotCmd.Flags().Float64Var(&sweepSpan, "span", 3.0, "sweep half-range")
	plotCmd.Flags().StringVar(&thetaFlag, "theta", "", "base states, comma separated")

	simCmd := &cobra.Command{
		Use:   "sim",
		Short: "simulate the passive swing and plot the states",
		RunE:  runSim,
	}
	simCmd.Flags().StringVar(&thetaFlag, "theta", "", "initial states, comma separated")
	simCmd.Flags().Float64Var(&simDt, "dt", 0.005, "timestep")
	simCmd.Flags().Float64Var(&simTime, "time", 10.0, "duration")
	simCmd.Flags().Float64Var(&damping, "damping", 0.5, "viscous joint damping")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark compiled evaluation",
		RunE:  runBench,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive shape explorer",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&thetaFlag, "theta", "", "initial states, comma separated")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			fmt.Println("presets:")
			for _, name := range names {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-12s order %d, L=%.2f, m_L=%.2f, m_E=%.2f\n",
					name, cfg.PolyOrder, cfg.Robot.Length, cfg.Robot.MassBody, cfg.Robot.MassEnd)
			}
			return nil
		},
	}

	rootCmd.AddCommand(deriveCmd, infoCmd, exportCmd, evalCmd, shapeCmd, plotCmd, simCmd, benchCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// effectiveConfig resolves preset, config file, and CLI flags; flags that
// were set explicitly win over the file, the file wins over the preset.
func effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("order") {
		cfg.PolyOrder = polyOrder
	}
	if cmd.Flags().Changed("masses") {
		cfg.NumMasses = numMasses
	}
	if cmd.Flags().Changed("cache") {
		cfg.CacheDir = cacheDir
	}
	if cmd.Flags().Changed("m-body") {
		cfg.Robot.MassBody = massBody
	}
	if cmd.Flags().Changed("m-end") {
		cfg.Robot.MassEnd = massEnd
	}
	if cmd.Flags().Changed("length") {
		cfg.Robot.Length = length
	}
	if cmd.Flags().Changed("diameter") {
		cfg.Robot.Diameter = diameter
	}

	return cfg, cfg.Validate()
}

// cacheStore keys the cache directory by order and mass count so different
// derivations do not clobber each other.
func cacheStore(cfg *config.Config) *cache.Store {
	dir := filepath.Join(cfg.CacheDir, fmt.Sprintf("order%d_n%d", cfg.PolyOrder, cfg.NumMasses))
	return cache.New(dir)
}

// loadEvaluator opens the cache for cfg, deriving it first when absent.
func loadEvaluator(cfg *config.Config) (*evaluate.Evaluator, error) {
	store := cacheStore(cfg)
	if !store.Exists() {
		eng, err := derive.New(derive.Config{PolyOrder: cfg.PolyOrder, NumMasses: cfg.NumMasses})
		if err != nil {
			return nil, err
		}
		if err := eng.Run(store); err != nil {
			return nil, err
		}
	}
	return evaluate.New(store)
}

func stateVector(cfg *config.Config, flag string) ([]float64, error) {
	if flag == "" {
		return cfg.GetInitState(), nil
	}
	vals, err := parseFloats(flag)
	if err != nil {
		return nil, err
	}
	if len(vals) != cfg.PolyOrder+1 {
		return nil, fmt.Errorf("got %d states, model has %d", len(vals), cfg.PolyOrder+1)
	}
	return vals, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func runDerive(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	eng, err := derive.New(derive.Config{PolyOrder: cfg.PolyOrder, NumMasses: cfg.NumMasses})
	if err != nil {
		return err
	}
	return eng.Run(cacheStore(cfg))
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	store := cacheStore(cfg)
	manifest, err := store.Manifest()
	if err != nil {
		return fmt.Errorf("no cache at %s (run derive first): %w", store.Dir(), err)
	}

	fmt.Printf("cache: %s\n", store.Dir())
	fmt.Printf("version: %d\n", manifest.Version)
	fmt.Printf("order: %d\n", manifest.PolyOrder)
	fmt.Printf("masses: %d\n", manifest.NumMasses)
	fmt.Printf("created: %s\n\n", manifest.Created.Format("2006-01-02 15:04:05"))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tFILE\tSYMS\tCHECKSUM")
	for _, name := range []string{
		cache.SlotFK, cache.SlotJacobian, cache.SlotGravity, cache.SlotGravityV,
		cache.SlotInertia, cache.SlotCoriolis, cache.SlotY,
		cache.SlotDEdmL, cache.SlotEmL0, cache.SlotDEdmE, cache.SlotEmE0,
	} {
		info, ok := manifest.Slots[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, info.File, len(info.Syms), info.Checksum[:12])
	}
	return w.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	manifest, err := cacheStore(cfg).Manifest()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(manifest)
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	ev, err := loadEvaluator(cfg)
	if err != nil {
		return err
	}

	theta, err := stateVector(cfg, thetaFlag)
	if err != nil {
		return err
	}
	p := cfg.Params()

	pos, err := ev.FK(theta, p, arcS, sectionD)
	if err != nil {
		return err
	}
	fmt.Printf("fk(s=%.2f, d=%.2f) = (%.6f, %.6f)\n", arcS, sectionD, pos.AtVec(0), pos.AtVec(1))

	jac, err := ev.Jacobian(theta, p, arcS, sectionD)
	if err != nil {
		return err
	}
	fmt.Printf("J =\n%v\n", mat.Formatted(jac, mat.Prefix("    "), mat.Squeeze()))

	g, err := ev.GravityTilted(theta, gamma, p)
	if err != nil {
		return err
	}
	fmt.Printf("G(gamma=%.2f) =\n%v\n", gamma, mat.Formatted(g, mat.Prefix("    "), mat.Squeeze()))

	b, err := ev.Inertia(theta, p)
	if err != nil {
		return err
	}
	fmt.Printf("B =\n%v\n", mat.Formatted(b, mat.Prefix("    "), mat.Squeeze()))

	if dthetaStr == "" {
		return nil
	}
	dtheta, err := parseFloats(dthetaStr)
	if err != nil {
		return err
	}
	c, err := ev.Coriolis(theta, dtheta, p)
	if err != nil {
		return err
	}
	fmt.Printf("C =\n%v\n", mat.Formatted(c, mat.Prefix("    "), mat.Squeeze()))

	if ddthetaSt == "" {
		return nil
	}
	ddtheta, err := parseFloats(ddthetaSt)
	if err != nil {
		return err
	}
	torque, err := ev.Torque(theta, dtheta, ddtheta, p)
	if err != nil {
		return err
	}
	fmt.Printf("E =\n%v\n", mat.Formatted(torque, mat.Prefix("    "), mat.Squeeze()))

	y, err := ev.Regressor(theta, dtheta, ddtheta, p)
	if err != nil {
		return err
	}
	fmt.Printf("Y =\n%v\n", mat.Formatted(y, mat.Prefix("    "), mat.Squeeze()))
	return nil
}

func runShape(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	ev, err := loadEvaluator(cfg)
	if err != nil {
		return err
	}
	theta, err := stateVector(cfg, thetaFlag)
	if err != nil {
		return err
	}

	shape := viz.NewShape(ev, 64, 22)
	frame, err := shape.Render(theta, cfg.Params())
	if err != nil {
		return err
	}
	fmt.Println(frame)
	fmt.Println(shape.Summary(theta, cfg.Params()))
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	ev, err := loadEvaluator(cfg)
	if err != nil {
		return err
	}
	base, err := stateVector(cfg, thetaFlag)
	if err != nil {
		return err
	}
	if sweepVar < 0 || sweepVar >= len(base) {
		return fmt.Errorf("state index %d out of range [0,%d]", sweepVar, len(base)-1)
	}
	p := cfg.Params()

	const samples = 120
	tipX := make([]float64, samples)
	tipZ := make([]float64, samples)
	grav := make([]float64, samples)
	for i := 0; i < samples; i++ {
		theta := append([]float64{}, base...)
		theta[sweepVar] = -sweepSpan + 2*sweepSpan*float64(i)/float64(samples-1)

		pos, err := ev.FK(theta, p, 1, 0)
		if err != nil {
			return err
		}
		tipX[i] = pos.AtVec(0)
		tipZ[i] = pos.AtVec(1)

		g, err := ev.Gravity(theta, p)
		if err != nil {
			return err
		}
		grav[i] = g.AtVec(sweepVar)
	}

	span := fmt.Sprintf("theta_%d in [%.1f, %.1f]", sweepVar, -sweepSpan, sweepSpan)
	fmt.Println(asciigraph.Plot(tipX,
		asciigraph.Height(10), asciigraph.Width(80),
		asciigraph.Caption("tip x, "+span)))
	fmt.Println()
	fmt.Println(asciigraph.Plot(tipZ,
		asciigraph.Height(10), asciigraph.Width(80),
		asciigraph.Caption("tip z, "+span)))
	fmt.Println()
	fmt.Println(asciigraph.Plot(grav,
		asciigraph.Height(10), asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("G[%d], %s", sweepVar, span))))
	return nil
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	ev, err := loadEvaluator(cfg)
	if err != nil {
		return err
	}
	theta, err := stateVector(cfg, thetaFlag)
	if err != nil {
		return err
	}

	x0 := make(sim.State, 2*len(theta))
	copy(x0, theta)
	dyn := sim.NewDynamics(ev, cfg.Params(), damping)

	fmt.Printf("simulating passive swing (%.1fs, dt=%.4f, damping=%.2f)...\n", simTime, simDt, damping)
	start := time.Now()
	result, err := sim.New(dyn).Run(cmd.Context(), x0, sim.Config{Dt: simDt, Duration: simTime})
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v, %d steps\n\n", time.Since(start), result.StepsTaken)

	for k := 0; k < len(theta); k++ {
		data := make([]float64, len(result.States))
		for i, st := range result.States {
			data[i] = st[k]
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10), asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("theta_%d vs time", k))))
		fmt.Println()
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	ev, err := loadEvaluator(cfg)
	if err != nil {
		return err
	}

	theta := make([]float64, ev.States())
	dtheta := make([]float64, ev.States())
	ddtheta := make([]float64, ev.States())
	for k := range theta {
		theta[k] = 0.3 + 0.1*float64(k)
		dtheta[k] = 0.2
		ddtheta[k] = 0.1
	}
	p := cfg.Params()

	fmt.Printf("benchmarking order %d model\n\n", cfg.PolyOrder)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ARTIFACT\tCALLS\tTIME\tCALLS/SEC")

	bench := func(name string, fn func() error) error {
		const calls = 2000
		start := time.Now()
		for i := 0; i < calls; i++ {
			if err := fn(); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\n", name, calls, elapsed, calls/elapsed.Seconds())
		return nil
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"fk", func() error { _, err := ev.FK(theta, p, 1, 0); return err }},
		{"jacobian", func() error { _, err := ev.Jacobian(theta, p, 1, 0); return err }},
		{"gravity", func() error { _, err := ev.Gravity(theta, p); return err }},
		{"inertia", func() error { _, err := ev.Inertia(theta, p); return err }},
		{"coriolis", func() error { _, err := ev.Coriolis(theta, dtheta, p); return err }},
		{"regressor", func() error { _, err := ev.Regressor(theta, dtheta, ddtheta, p); return err }},
	}
	for _, s := range steps {
		if err := bench(s.name, s.fn); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	ev, err := loadEvaluator(cfg)
	if err != nil {
		return err
	}
	theta, err := stateVector(cfg, thetaFlag)
	if err != nil {
		return err
	}
	return viz.RunInteractive(ev, theta, cfg.Params())
}
