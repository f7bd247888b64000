package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

var ErrDiscordTokenNotSet = errors.New("DISCORD_API_TOKEN is not set")

type Config struct {
	DiscordToken     string `env:"DISCORD_API_TOKEN"`
	CommandPrefix    string `env:"COMMAND_PREFIX" envDefault:"?"`
	MentionAsPrefix  bool   `env:"MENTIONS_AS_PREFIX" envDefault:"false"`
	AllowedChannelID string `env:"ALLOWED_CHANNEL_ID" envDefault:"0"`
	DJRoleName       string `env:"DJ_ROLE_NAME"`
	DMResponse       string `env:"DM_RESPONSE" envDefault:"I am busy playing music."`

	LogFile  string `env:"LOG_FILE" envDefault:"bot.log"`
	LogDir   string `env:"LOG_DIR" envDefault:"./logs"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	ExtractTimeout time.Duration `env:"EXTRACT_TIMEOUT" envDefault:"60s"`
	VoiceTimeout   time.Duration `env:"VOICE_TIMEOUT" envDefault:"10s"`

	IdleSweepSchedule string        `env:"IDLE_SWEEP_SCHEDULE" envDefault:"0 */10 * * * *"`
	IdleGuildTTL      time.Duration `env:"IDLE_GUILD_TTL" envDefault:"1h"`

	YTDLPPath  string `env:"YTDLP_PATH" envDefault:"yt-dlp"`
	FFmpegPath string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
}

// Load reads envFile into the environment, when it exists, and parses the
// configuration from the environment. Variables already set win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads and validates the configuration the bot needs to run
func LoadConfig(envFile string) (*Config, error) {
	cfg, err := Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values LoadConfig cannot default
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return ErrDiscordTokenNotSet
	}
	if c.CommandPrefix == "" {
		return errors.New("COMMAND_PREFIX must not be empty")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	if c.ExtractTimeout <= 0 {
		return errors.New("EXTRACT_TIMEOUT must be positive")
	}
	if c.VoiceTimeout <= 0 {
		return errors.New("VOICE_TIMEOUT must be positive")
	}
	if c.IdleGuildTTL <= 0 {
		return errors.New("IDLE_GUILD_TTL must be positive")
	}
	return nil
}

// LogPath returns the log file location, or "" when file logging is off
func (c *Config) LogPath() string {
	if c.LogFile == "" {
		return ""
	}
	if filepath.IsAbs(c.LogFile) {
		return c.LogFile
	}
	return filepath.Join(c.LogDir, c.LogFile)
}
