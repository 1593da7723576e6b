package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DataDir  string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for the database and transient bundle files"`
	SeedFile string `long:"seed-file" env:"SEED_FILE" default:"./seed.yml" description:"Optional YAML file with initial sources and ban terms"`

	// HTTP server configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for operator endpoints (optional)"`

	// SMTP delivery configuration
	SMTPHost     string `long:"smtp-host" env:"SMTP_HOST" default:"smtp.gmail.com" description:"SMTP server host"`
	SMTPPort     int    `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP server port"`
	SMTPUser     string `long:"smtp-user" env:"SMTP_USER" description:"SMTP username (required)" required:"true"`
	SMTPPassword string `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password (required)" required:"true"`
	SMTPFrom     string `long:"smtp-from" env:"SMTP_FROM" description:"Sender address, defaults to the SMTP user"`

	// Telegram delivery configuration
	TelegramToken   string `long:"telegram-token" env:"TELEGRAM_TOKEN" description:"Telegram bot token (required)" required:"true"`
	TelegramChatID  string `long:"telegram-chat-id" env:"TELEGRAM_CHAT_ID" description:"Chat that receives the bundle file (required)" required:"true"`
	TelegramAPIBase string `long:"telegram-api-base" env:"TELEGRAM_API_BASE" default:"https://api.telegram.org" description:"Telegram Bot API base URL"`

	// Recipient store encryption
	RecipientsKey string `long:"recipients-key" env:"RECIPIENTS_KEY" description:"Secret used to encrypt the recipient list at rest (required)" required:"true"`

	// Pipeline configuration
	MaxBatch           int  `long:"max-batch" env:"MAX_BATCH" default:"10" description:"Maximum number of articles per bundle"`
	RenderWorkers      int  `long:"render-workers" env:"RENDER_WORKERS" default:"4" description:"Number of concurrent article render workers"`
	FetchTimeout       int  `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"Timeout for feed and article fetches in seconds"`
	ImageFetchTimeout  int  `long:"image-fetch-timeout" env:"IMAGE_FETCH_TIMEOUT" default:"5" description:"Timeout for image fetches in seconds"`
	SchedulerInterval  int  `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"0" description:"Minutes between scheduled runs (0 disables scheduling)"`
	AllowEmptyDocument bool `long:"allow-empty-document" env:"ALLOW_EMPTY_DOCUMENT" description:"Assemble and deliver a bundle even when no chapter rendered"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"KindleFeed/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Madrid)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DataDir:            raw.DataDir,
		SeedFile:           raw.SeedFile,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		SMTPHost:           raw.SMTPHost,
		SMTPPort:           raw.SMTPPort,
		SMTPUser:           raw.SMTPUser,
		SMTPPassword:       raw.SMTPPassword,
		SMTPFrom:           cmp.Or(raw.SMTPFrom, raw.SMTPUser),
		TelegramToken:      raw.TelegramToken,
		TelegramChatID:     raw.TelegramChatID,
		TelegramAPIBase:    raw.TelegramAPIBase,
		RecipientsKey:      raw.RecipientsKey,
		MaxBatch:           raw.MaxBatch,
		RenderWorkers:      raw.RenderWorkers,
		FetchTimeout:       raw.FetchTimeout,
		ImageFetchTimeout:  raw.ImageFetchTimeout,
		SchedulerInterval:  raw.SchedulerInterval,
		AllowEmptyDocument: raw.AllowEmptyDocument,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Used by tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
