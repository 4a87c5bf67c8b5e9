// node-pulse is a terminal dashboard for a Starknet full node.
//
// Once per tick it asks the node's JSON-RPC endpoint whether it is syncing,
// samples the node process's CPU and memory use, and reports how much disk
// the node's storage directory takes. The result is drawn as a full-screen
// dashboard, or as plain text when stdout is not a terminal.
//
// Usage:
//
//	node-pulse [flags]
//	node-pulse config init|show|path
//	node-pulse diagnose
//	node-pulse man
//	node-pulse version
//
// Flags:
//
//	-c, --config string       Path to configuration file (default: ~/.config/node-pulse/config.yaml)
//	    --env-file strings    dotenv files read before NODE_PULSE_* variables (default [.env])
//	    --rpc string          Node JSON-RPC endpoint (http, https, ws or wss)
//	    --process string      Node process name
//	    --storage string      Node storage directory
//	    --window int          Samples kept per chart
//	    --tick string         Time between ticks
//	    --input-poll string   Upper bound of one quit-input wait
//	    --rpc-timeout string  Upper bound of one RPC call
//	    --span int            Chart smoothing span
//	    --plain               Plain text output instead of the dashboard
//	    --no-color            Disable color output
//	-v, --verbose             Debug logging
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gitlab.com/tinyland/lab/node-pulse/cache"
	"gitlab.com/tinyland/lab/node-pulse/collectors"
	"gitlab.com/tinyland/lab/node-pulse/collectors/diskusage"
	"gitlab.com/tinyland/lab/node-pulse/collectors/noderpc"
	"gitlab.com/tinyland/lab/node-pulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/node-pulse/config"
	colorpkg "gitlab.com/tinyland/lab/node-pulse/display/color"
	"gitlab.com/tinyland/lab/node-pulse/display/plain"
	"gitlab.com/tinyland/lab/node-pulse/display/termsize"
	"gitlab.com/tinyland/lab/node-pulse/display/tui"
	"gitlab.com/tinyland/lab/node-pulse/engine"
	"gitlab.com/tinyland/lab/node-pulse/metrics"
)

// rootFlags holds every command-line override. Zero values mean "not given";
// flag.Changed decides whether a value is applied.
type rootFlags struct {
	configPath string
	envFiles   []string

	rpc     string
	process string
	storage string

	window     int
	tick       string
	inputPoll  string
	rpcTimeout string
	span       int

	plain   bool
	noColor bool
	verbose bool
}

func main() {
	if err := newRootCmd(&rootFlags{}).ExecuteContext(context.Background()); err != nil {
		fatal(err)
	}
}

// fatal prints err in red on stderr and exits with status 1.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("node-pulse:"), err)
	os.Exit(1)
}

// newRootCmd builds the command tree with every flag bound into f.
func newRootCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node-pulse",
		Short: "Terminal dashboard for a Starknet full node",
		Long: `node-pulse watches a Starknet full node: its sync status over JSON-RPC,
the CPU and memory of its process, and the size of its storage directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, f.noColor)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "path to configuration file (default: $"+config.EnvConfigPath+" or "+config.DefaultPath()+")")
	pf.StringSliceVar(&f.envFiles, "env-file", []string{".env"}, "dotenv files read before NODE_PULSE_* variables")
	pf.StringVar(&f.rpc, "rpc", "", "node JSON-RPC endpoint (http, https, ws or wss)")
	pf.StringVar(&f.process, "process", "", "node process name")
	pf.StringVar(&f.storage, "storage", "", "node storage directory")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")

	fl := cmd.Flags()
	fl.IntVar(&f.window, "window", 0, "samples kept per chart")
	fl.StringVar(&f.tick, "tick", "", "time between ticks (e.g. 1s, 500ms)")
	fl.StringVar(&f.inputPoll, "input-poll", "", "upper bound of one quit-input wait")
	fl.StringVar(&f.rpcTimeout, "rpc-timeout", "", "upper bound of one RPC call")
	fl.IntVar(&f.span, "span", 0, "chart smoothing span in samples")
	fl.BoolVar(&f.plain, "plain", false, "plain text output instead of the dashboard")
	fl.BoolVar(&f.noColor, "no-color", false, "disable color output")

	cmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(f),
		newDiagnoseCmd(f),
		newManCmd(),
	)
	return cmd
}

// configPath resolves the config file: --config, then $NODE_PULSE_CONFIG,
// then the default location.
func configPath(f *rootFlags) string {
	if f.configPath != "" {
		return f.configPath
	}
	if p := os.Getenv(config.EnvConfigPath); p != "" {
		return p
	}
	return config.DefaultPath()
}

// loadConfig layers the configuration: defaults, the YAML file, dotenv
// files and NODE_PULSE_* variables, then flags. The result is validated.
func loadConfig(flags *pflag.FlagSet, f *rootFlags) (*config.Config, error) {
	if err := config.LoadEnvFiles(f.envFiles...); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configPath(f))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	applyFlags(flags, f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(flags *pflag.FlagSet, f *rootFlags, cfg *config.Config) {
	changed := func(name string) bool {
		fl := flags.Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("rpc") {
		cfg.Node.RPCEndpoint = f.rpc
	}
	if changed("process") {
		cfg.Node.ProcessName = f.process
	}
	if changed("storage") {
		cfg.Node.StoragePath = f.storage
	}
	if changed("window") {
		cfg.Sampling.WindowSize = f.window
	}
	if changed("tick") {
		cfg.Sampling.TickInterval = f.tick
	}
	if changed("input-poll") {
		cfg.Sampling.InputPoll = f.inputPoll
	}
	if changed("rpc-timeout") {
		cfg.Sampling.RPCTimeout = f.rpcTimeout
	}
	if changed("span") {
		cfg.Display.SmoothingSpan = f.span
	}
	if changed("plain") && f.plain {
		cfg.Display.Mode = config.ModePlain
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
}

// run wires the collectors, the update loop and the chosen front end, and
// blocks until the loop stops.
func run(ctx context.Context, cfg *config.Config, noColor bool) error {
	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	if noColor {
		colorpkg.ForceDisable()
	} else {
		colorpkg.Apply()
	}

	mode := cfg.Display.Mode
	if mode == config.ModeTUI && !termsize.Interactive() {
		logger.Info("stdout is not a terminal, falling back to plain output")
		mode = config.ModePlain
	}

	probe, err := sysmetrics.NewProbe(ctx, logger)
	if err != nil {
		return err
	}

	client, err := noderpc.NewClient(cfg.Node.RPCEndpoint, noderpc.WithLogger(logger))
	if err != nil {
		return err
	}
	defer client.Close()

	store, err := cache.NewStore(cfg.Storage.CacheDir, logger)
	if err != nil {
		logger.Warn("storage size cache disabled", "dir", cfg.Storage.CacheDir, "error", err)
		store = nil
	}
	refresher, err := diskusage.NewRefresher(diskusage.RefresherConfig{
		Path:     cfg.Node.StoragePath,
		Interval: cfg.RefreshInterval(),
		Cache:    store,
		CacheTTL: cfg.CacheTTL(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	refresher.Start()
	defer refresher.Stop()

	sampler := collectors.NewSampler(client, probe, refresher, collectors.SamplerConfig{
		ProcessName:      cfg.Node.ProcessName,
		RPCTimeout:       cfg.RPCTimeout(),
		QueryBlockNumber: cfg.RPC.QueryBlockNumber,
		Logger:           logger,
	})

	quit := engine.NewQuitSignal()
	stopSignals := quit.TriggerOn(engine.QuitSignals...)
	defer stopSignals()

	newLoop := func(r engine.Renderer) *engine.Loop {
		return engine.New(sampler, metrics.New(cfg.Sampling.WindowSize), r, quit, engine.Config{
			TickInterval: cfg.TickInterval(),
			InputPoll:    cfg.InputPoll(),
			Logger:       logger,
		})
	}

	logger.Info("node-pulse starting",
		"version", version,
		"endpoint", client.Endpoint(),
		"process", cfg.Node.ProcessName,
		"storage", cfg.Node.StoragePath,
		"mode", mode,
	)

	width, height := termsize.Detect()

	if mode == config.ModePlain {
		graphWidth := width - 14
		if graphWidth < 20 {
			graphWidth = 20
		}
		r := plain.New(os.Stdout, plain.Options{
			ProcessName:   cfg.Node.ProcessName,
			Endpoint:      client.Endpoint(),
			ShowBlock:     cfg.RPC.QueryBlockNumber,
			SmoothingSpan: cfg.Display.SmoothingSpan,
			GraphWidth:    graphWidth,
			Redraw:        termsize.Interactive(),
		})
		return newLoop(r).Run(ctx)
	}

	return tui.Run(ctx, tui.Options{
		ProcessName:   cfg.Node.ProcessName,
		Endpoint:      client.Endpoint(),
		StoragePath:   cfg.Node.StoragePath,
		ShowBlock:     cfg.RPC.QueryBlockNumber,
		SmoothingSpan: cfg.Display.SmoothingSpan,
		Width:         width,
		Height:        height,
		Quit:          quit,
	}, func(ctx context.Context, r engine.Renderer) error {
		return newLoop(r).Run(ctx)
	})
}
