package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/TarumaeDJ/debug"
	"github.com/latoulicious/TarumaeDJ/internal/commands"
	"github.com/latoulicious/TarumaeDJ/internal/config"
	"github.com/latoulicious/TarumaeDJ/internal/handlers"
	"github.com/latoulicious/TarumaeDJ/internal/logging"
	"github.com/latoulicious/TarumaeDJ/internal/player"
	"github.com/latoulicious/TarumaeDJ/internal/presence"
	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"github.com/latoulicious/TarumaeDJ/pkg/cron"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildMembers

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile, logLevel string

	cmd := &cobra.Command{
		Use:          "tarumae-dj",
		Short:        "Tarumae DJ is a Discord music queue bot.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	cmd.AddCommand(newDoctorCommand(&envFile), newSearchCommand(&envFile))
	return cmd
}

func newDoctorCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that yt-dlp and ffmpeg are installed and runnable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}

			checks := debug.CheckTools(cmd.Context(), common.ExecRunner, cfg.YTDLPPath, cfg.FFmpegPath)
			if !debug.PrintChecks(cmd.OutOrStdout(), checks) {
				return fmt.Errorf("some tools are missing")
			}
			return nil
		},
	}
}

func newSearchCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text or URL>",
		Short: "Resolve a search or URL the way the play command does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}

			logCfg := logging.DefaultConfig()
			logCfg.Level = "debug"
			logger, err := logging.New(logCfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logger.Sync()

			query := strings.Join(args, " ")
			extractor := common.NewExtractor(cfg.YTDLPPath, cfg.ExtractTimeout, logger)
			debug.PrintTracks(cmd.OutOrStdout(), query, extractor.Search(cmd.Context(), query))
			return nil
		},
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.FilePath = cfg.LogPath()

	logger, err := logging.New(logCfg, os.Stdout)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// discordgo logs through the standard library logger
	restoreStdLog := zap.RedirectStdLog(logger.Named("discordgo"))
	defer restoreStdLog()

	// Create a new Discord session using the provided token
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	dg.Identify.Intents = intents

	store := common.NewStore()
	presenceManager := presence.NewPresenceManager(dg, cfg.CommandPrefix+"help", logger)
	notifier := player.NewChannelNotifier(dg, presenceManager, logger)
	voice := common.NewDiscordVoice(dg, cfg.FFmpegPath, cfg.VoiceTimeout, logger)
	musicPlayer := player.New(store, voice, notifier, logger)
	extractor := common.NewExtractor(cfg.YTDLPPath, cfg.ExtractTimeout, logger)
	cmds := commands.New(cfg, store, musicPlayer, extractor, dg, logger)

	messageHandler := handlers.NewMessageHandler(cfg, cmds, logger)
	guildHandler := handlers.NewGuildHandler(musicPlayer, store, presenceManager, logger)
	dg.AddHandler(messageHandler.Handle)
	dg.AddHandler(guildHandler.Ready)
	dg.AddHandler(guildHandler.GuildDelete)

	sweeper, err := cron.NewIdleSweeper(store, cfg.IdleSweepSchedule, cfg.IdleGuildTTL, logger)
	if err != nil {
		return err
	}

	// Open a websocket connection to Discord and begin listening.
	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	sweeper.Start()

	logger.Info("bot is running, press CTRL-C to exit",
		zap.String("prefix", cfg.CommandPrefix),
		zap.Strings("commands", cmds.Names()))
	<-ctx.Done()

	logger.Info("shutting down")
	sweeper.Stop()
	musicPlayer.Shutdown()
	if err := dg.Close(); err != nil {
		logger.Warn("failed to close Discord session", zap.Error(err))
	}
	return nil
}
