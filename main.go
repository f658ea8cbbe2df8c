package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/game"
	"github.com/pthm-cable/holdfast/sim"
	"github.com/pthm-cable/holdfast/telemetry"
)

var (
	configPath  = flag.String("config", "", "Path to a YAML config overriding the embedded defaults")
	seed        = flag.Int64("seed", 42, "Simulation RNG seed")
	headless    = flag.Bool("headless", false, "Run without graphics on the CPU backend")
	maxTicks    = flag.Int("max-ticks", 0, "Stop after N ticks (0 = run forever, useful with -headless)")
	logStats    = flag.Bool("log", false, "Log window stats and death events")
	logFile     = flag.String("logfile", "", "Write logs to file instead of stdout")
	outputDir   = flag.String("out", "", "Write telemetry/perf CSVs to this directory")
	metricsAddr = flag.String("metrics", "", "Expose prometheus metrics on this address (e.g. :9100)")
	savePath    = flag.String("save", "", "Write a state snapshot to this path on exit")
	loadPath    = flag.String("load", "", "Restore a state snapshot from this path at startup")
)

func main() {
	flag.Parse()

	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			slog.Error("opening log file", "path", *logFile, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		game.SetLogWriter(f)
		slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))
	}

	if err := config.Init(*configPath); err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *metricsAddr != "" {
		telemetry.ServeMetrics(*metricsAddr)
	}

	if !*headless {
		rl.SetConfigFlags(rl.FlagMsaa4xHint)
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "holdfast")
		defer rl.CloseWindow()
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	}

	g, err := game.New(game.Options{
		Seed:      *seed,
		Headless:  *headless,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		Garrison:  8,
	})
	if err != nil {
		slog.Error("creating game", "error", err)
		os.Exit(1)
	}

	if *loadPath != "" {
		if err := sim.Load(g.State(), g.Economy(), *loadPath); err != nil {
			if errors.Is(err, sim.ErrSaveVersion) {
				slog.Error("save file version mismatch", "path", *loadPath)
			} else {
				slog.Error("loading save", "path", *loadPath, "error", err)
			}
			os.Exit(1)
		}
		slog.Info("restored save", "path", *loadPath, "npcs", g.State().NPCs.Alive())
	}

	exitCode := 0
	if *headless {
		exitCode = runHeadless(g)
	} else {
		exitCode = runWindowed(g)
	}

	if *savePath != "" {
		if err := sim.Save(g.State(), g.Economy(), *savePath); err != nil {
			slog.Error("writing save", "path", *savePath, "error", err)
			exitCode = 1
		} else {
			slog.Info("saved state", "path", *savePath)
		}
	}

	g.Shutdown()
	os.Exit(exitCode)
}

// runWindowed drives the simulation from the render loop.
func runWindowed(g *game.Game) int {
	for !rl.WindowShouldClose() {
		if err := g.Update(); err != nil {
			slog.Error("fatal tick error", "error", err)
			return 1
		}
		g.Draw()
	}
	return 0
}

// runHeadless steps as fast as the CPU allows, for benchmarking and soak
// runs.
func runHeadless(g *game.Game) int {
	for {
		if *maxTicks > 0 && int(g.Frame()) >= *maxTicks {
			slog.Info("max ticks reached", "ticks", g.Frame())
			return 0
		}
		if err := g.Update(); err != nil {
			slog.Error("fatal tick error", "error", err)
			return 1
		}
	}
}
