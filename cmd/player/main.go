// Package main provides the player entry point.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/slumberfm/slumber/internal/app/entitlement"
	"github.com/slumberfm/slumber/internal/app/notify"
	"github.com/slumberfm/slumber/internal/app/player"
	"github.com/slumberfm/slumber/internal/infra/catalog"
	"github.com/slumberfm/slumber/internal/infra/config"
	"github.com/slumberfm/slumber/internal/infra/logger"
	"github.com/slumberfm/slumber/internal/infra/media"
	"github.com/slumberfm/slumber/internal/tui"
)

var (
	app        = kingpin.New("slumber", "Sleep and ambient audio player")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
	plan       = app.Flag("plan", "Override entitlement plan (anonymous, free, premium)").String()
	seed       = app.Flag("seed", "Random seed for shuffle and fallback selection (0 = time-based)").Int64()

	// list-tracks command
	listTracksCmd = app.Command("list-tracks", "List the library and exit")
)

func init() {
	app.Command("start", "Start the player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stderr", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}
	if *plan != "" {
		if cfg.Entitlement.Settings == nil {
			cfg.Entitlement.Settings = make(map[string]any)
		}
		cfg.Entitlement.Settings["plan"] = *plan
	}

	lib, err := catalog.NewLibrary(cfg.Library)
	if err != nil {
		zlog.Fatal().Msgf("Failed to build library: %v", err)
	}

	if command == listTracksCmd.FullCommand() {
		printTracks(lib)
		return
	}

	if err := run(cfg, lib); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, lib *catalog.Library) error {
	settings := cfg.Entitlement.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	if _, ok := settings["sample_track_ids"]; !ok {
		settings["sample_track_ids"] = lib.SampleTrackIDs()
	}
	oracle, err := entitlement.NewPlanOracle(settings)
	if err != nil {
		return err
	}
	zlog.Info().Msgf("Entitlement plan: %s", oracle.Plan())

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewSource(*seed))
	}

	element := media.NewSpeaker(time.Duration(cfg.Player.PositionIntervalMs) * time.Millisecond)
	prompts := notify.NewManager()

	coord := player.New(element, oracle, lib, prompts, rng, player.Config{
		HistoryCapacity: cfg.Player.HistoryCapacity,
		InitialVolume:   cfg.Player.InitialVolume,
		Messages: player.Messages{
			SkipRestricted:     cfg.Messages.SkipRestricted,
			AutoplayRestricted: cfg.Messages.AutoplayRestricted,
			PlayRestricted:     cfg.Messages.PlayRestricted,
		},
	})
	defer coord.Close()

	promptCh := make(notify.ChanStream, 8)
	subID := prompts.Subscribe(promptCh)
	defer prompts.Unsubscribe(subID)

	program := tea.NewProgram(tui.New(coord, lib, promptCh), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func printTracks(lib *catalog.Library) {
	for _, cat := range lib.Categories() {
		fmt.Printf("%s (%s)\n", cat.Name, cat.ID)
		for _, t := range lib.TracksInCategory(cat.ID) {
			marker := " "
			if t.IsPremium {
				marker = "*"
			}
			fmt.Printf("  %s %-28s %s\n", marker, t.ID, t.Title)
		}
	}
}
