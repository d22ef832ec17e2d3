package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
	StoreDriverMongo  = "mongo"
)

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Hi-Rez API credentials
	SmiteDeveloperID string `long:"smite-developer-id" env:"SMITE_DEVELOPER_ID" description:"Hi-Rez developer ID (required)" required:"true"`
	SmiteAuthKey     string `long:"smite-auth-key" env:"SMITE_AUTH_KEY" description:"Hi-Rez authorization key (required)" required:"true"`
	SmiteBaseURL     string `long:"smite-base-url" env:"SMITE_BASE_URL" default:"https://api.smitegame.com/smiteapi.svc/" description:"Hi-Rez API base URL"`
	SmiteLanguage    int    `long:"smite-language" env:"SMITE_LANGUAGE" default:"1" description:"Language code for roster queries"`

	// Durable store
	StoreDriver   string `long:"store-driver" env:"STORE_DRIVER" default:"sqlite" choice:"sqlite" choice:"redis" choice:"mongo" description:"Durable store backend"`
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./data/motd.db" description:"SQLite database file"`
	RedisAddr     string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address (redis driver)"`
	RedisPassword string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
	RedisDB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`
	MongoURI      string `long:"mongo-uri" env:"MONGO_URI" description:"MongoDB connection URI (mongo driver)"`
	MongoDB       string `long:"mongo-db" env:"MONGO_DB" default:"motd" description:"MongoDB database name"`
	StorePageSize int    `long:"store-page-size" env:"STORE_PAGE_SIZE" default:"100" description:"Records per page when scanning the store"`

	// Snapshot publishing
	PublishDir   string `long:"publish-dir" env:"PUBLISH_DIR" default:"./public" description:"Directory receiving published snapshots"`
	SnapshotName string `long:"snapshot-name" env:"SNAPSHOT_NAME" default:"data.json" description:"Object name of the published snapshot"`

	// Announcements
	TelegramToken  string `long:"telegram-token" env:"TELEGRAM_TOKEN" description:"Telegram bot token (optional, announcements are logged when unset)"`
	TelegramChatID string `long:"telegram-chat-id" env:"TELEGRAM_CHAT_ID" description:"Telegram chat receiving announcements"`

	// Application configuration
	BaseUrl           string `long:"base-url" env:"BASE_URL" default:"https://motd.today" description:"Public site URL used for permalinks"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Feed polling interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	FeedMaxItems      int    `long:"feed-max-items" env:"FEED_MAX_ITEMS" default:"50" description:"Number of MOTDs in the RSS feed"`

	// Application metadata
	UserAgent   string        `long:"user-agent" env:"USER_AGENT" default:"MOTD Comb/1.0" description:"User agent string for HTTP requests"`
	HTTPTimeout time.Duration `long:"http-timeout" env:"HTTP_TIMEOUT" default:"30s" description:"Timeout for outgoing HTTP requests"`
	Timezone    string        `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug       bool          `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses flags and environment variables. It returns nil, nil when help
// was requested.
func Load() (*Cfg, error) {
	return load(nil)
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SmiteDeveloperID:  raw.SmiteDeveloperID,
		SmiteAuthKey:      raw.SmiteAuthKey,
		SmiteBaseURL:      raw.SmiteBaseURL,
		SmiteLanguage:     raw.SmiteLanguage,
		StoreDriver:       raw.StoreDriver,
		DBPath:            raw.DBPath,
		RedisAddr:         raw.RedisAddr,
		RedisPassword:     raw.RedisPassword,
		RedisDB:           raw.RedisDB,
		MongoURI:          raw.MongoURI,
		MongoDB:           raw.MongoDB,
		StorePageSize:     raw.StorePageSize,
		PublishDir:        raw.PublishDir,
		SnapshotName:      raw.SnapshotName,
		TelegramToken:     raw.TelegramToken,
		TelegramChatID:    raw.TelegramChatID,
		BaseUrl:           raw.BaseUrl,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		FeedMaxItems:      raw.FeedMaxItems,
		UserAgent:         raw.UserAgent,
		HTTPTimeout:       raw.HTTPTimeout,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	switch c.StoreDriver {
	case StoreDriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the %s store", c.StoreDriver)
		}
	case StoreDriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the %s store", c.StoreDriver)
		}
	case StoreDriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the %s store", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}

	if c.TelegramToken != "" && c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be positive")
	}
	if c.StorePageSize < 1 {
		return fmt.Errorf("store page size must be positive")
	}

	return nil
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
