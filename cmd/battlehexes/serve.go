package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/battle-hexes/internal/api"
	"github.com/talgya/battle-hexes/internal/config"
	"github.com/talgya/battle-hexes/internal/engine"
	"github.com/talgya/battle-hexes/internal/events"
	"github.com/talgya/battle-hexes/internal/logging"
	"github.com/talgya/battle-hexes/internal/persistence"
	"github.com/talgya/battle-hexes/internal/resolver"
	"github.com/talgya/battle-hexes/internal/scenario"
)

type serveFlags struct {
	port        int
	resolverURL string
	dbPath      string
	rows        int
	columns     int
	seed        int64
	players     string
	scenario    string
	resume      bool
}

var flags serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Generate a battle and serve it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		if logFormat != "" {
			cfg.LogFormat = logFormat
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logging.New(cfg.LogFormat, cfg.LogLevel)
		return serve(cmd, cfg)
	},
}

func init() {
	f := serveCmd.Flags()
	f.IntVar(&flags.port, "port", 0, "HTTP port (overrides BATTLEHEXES_PORT)")
	f.StringVar(&flags.resolverURL, "resolver", "", "resolver base URL (overrides BATTLEHEXES_RESOLVER_URL)")
	f.StringVar(&flags.dbPath, "db", "", "preferences database path (overrides BATTLEHEXES_DB_PATH)")
	f.IntVar(&flags.rows, "rows", 0, "board rows")
	f.IntVar(&flags.columns, "columns", 0, "board columns")
	f.Int64Var(&flags.seed, "seed", 0, "scenario seed, 0 for random")
	f.StringVar(&flags.players, "players", "", `comma-separated player types per seat, e.g. "human,random"`)
	f.StringVar(&flags.scenario, "scenario", "", `scenario preset, e.g. "elim_2" (see "battlehexes scenarios")`)
	f.BoolVar(&flags.resume, "resume", false, "recreate the last saved scenario")
	rootCmd.AddCommand(serveCmd)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Port = flags.port
	}
	if changed("resolver") {
		cfg.ResolverURL = flags.resolverURL
	}
	if changed("db") {
		cfg.DBPath = flags.dbPath
	}
	if changed("rows") {
		cfg.Rows = flags.rows
	}
	if changed("columns") {
		cfg.Columns = flags.columns
	}
	if changed("seed") {
		cfg.Seed = flags.seed
	}
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	// ── Preferences ──────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	prefs, err := db.LoadPreferences()
	saved := err == nil
	switch {
	case errors.Is(err, persistence.ErrNoPreferences):
		prefs = persistence.DefaultPreferences()
	case err != nil:
		return err
	}

	// ── Scenario ─────────────────────────────────────────────────────
	gen := scenario.DefaultConfig()
	gen.Rows, gen.Columns, gen.Seed = cfg.Rows, cfg.Columns, cfg.Seed
	gen.PlayerTypes = prefs.PlayerTypes
	if prefs.ScenarioID != "" {
		gen.ScenarioID = prefs.ScenarioID
	}
	if flags.scenario != "" {
		gen.ScenarioID = flags.scenario
	}
	if flags.players != "" {
		gen.PlayerTypes = strings.Split(flags.players, ",")
	}
	if flags.resume {
		if saved {
			gen.GameID, gen.Seed = prefs.GameID, prefs.Seed
			gen.Rows, gen.Columns = prefs.Rows, prefs.Columns
			slog.Info("resuming saved scenario", "game", prefs.GameID, "seed", prefs.Seed)
		} else {
			slog.Warn("nothing to resume, starting a new scenario")
		}
	}

	sc, err := scenario.Generate(gen)
	if err != nil {
		return err
	}
	if err := db.SavePreferences(persistence.Preferences{
		ScenarioID:  gen.ScenarioID,
		PlayerTypes: gen.PlayerTypes,
		GameID:      sc.GameID,
		Seed:        sc.Seed,
		Rows:        gen.Rows,
		Columns:     gen.Columns,
	}); err != nil {
		slog.Warn("could not save preferences", "error", err)
	}
	for terrain, n := range scenario.TerrainCounts(sc.Board) {
		slog.Debug("terrain", "type", terrain, "count", n)
	}

	// ── Game ─────────────────────────────────────────────────────────
	bus := events.NewBus()
	defer bus.Close()

	opts := []engine.Option{
		engine.WithResolver(resolver.NewClient(cfg.ResolverURL)),
		engine.WithPublisher(bus),
	}
	for _, p := range sc.Players.All() {
		if !p.IsHuman() {
			opts = append(opts, engine.WithController(p.ID,
				engine.NewAutomatedController(cfg.ThinkDelay, engine.NewAnimator(cfg.StepDelay))))
		}
	}
	game := engine.NewGame(sc.GameID, sc.Board, sc.Players, opts...)

	// ── Serve ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &api.Server{Game: game, Events: bus, Port: cfg.Port, Ctx: ctx}
	httpSrv := server.Start()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s (%s): %s hexes, %d units, seed %d.\n",
		sc.Name, sc.GameID, humanize.Comma(int64(sc.Board.Rows()*sc.Board.Columns())), len(sc.Board.Units()), sc.Seed)
	fmt.Fprintf(out, "API: http://localhost:%d/api/v1/status\n", cfg.Port)
	fmt.Fprintf(out, "Resolver: %s\n", cfg.ResolverURL)

	game.Kick(ctx)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	game.Wait()

	st := game.Status()
	if err := db.SaveMeta("last_status", fmt.Sprintf("%s, %s, %s", st.TurnLabel, st.Phase, st.Player)); err != nil {
		slog.Warn("could not save status", "error", err)
	}
	fmt.Fprintf(out, "Battle stopped on the %s.\n", st.TurnLabel)
	return nil
}
