// Package main provides the mtube bot entry point.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/sglre6355/mtube/internal/bot"
	"github.com/sglre6355/mtube/internal/logger"
	_ "github.com/sglre6355/mtube/internal/modules/music_player"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/mtube
var version = "dev"

var (
	app       = kingpin.New("mtube", "Discord music bot")
	envFile   = app.Flag("env-file", "Path to a .env file").Default(".env").String()
	verbose   = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logFormat = app.Flag("log-format", "Console log format").Default(logger.FormatConsole).Enum(logger.FormatConsole, logger.FormatJSON)
	logFile   = app.Flag("log-file", "Path to log file (default: stdout)").String()
)

func main() {
	app.Version(version)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load(*envFile)

	cfg, cfgErr := bot.LoadConfig()

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
		Format: *logFormat,
	}
	if cfgErr == nil {
		loggerConfig.Level = cfg.LogLevel
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logFile != "" {
		loggerConfig.Output = *logFile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if cfgErr != nil {
		zlog.Fatal().Err(cfgErr).Msg("Failed to load config")
	}

	if err := run(cfg); err != nil {
		zlog.Error().Err(err).Msg("Bot error")
		os.Exit(1)
	}
}

// run starts the bot and blocks until a termination signal arrives.
func run(cfg *bot.Config) error {
	zlog.Info().Str("version", version).Msg("Starting mtube")

	b := bot.NewBot(cfg)
	if err := b.LoadModules(); err != nil {
		return err
	}

	defer func() {
		if err := b.Stop(); err != nil {
			zlog.Error().Err(err).Msg("Failed to shut down")
		}
		zlog.Info().Msg("Completed bot shutdown")
	}()

	if err := b.Start(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zlog.Info().Msg("Received termination signal, shutting down")
	return nil
}
