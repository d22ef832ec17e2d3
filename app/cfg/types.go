package cfg

import "time"

type Cfg struct {
	// Hi-Rez API credentials
	SmiteDeveloperID string
	SmiteAuthKey     string
	SmiteBaseURL     string
	SmiteLanguage    int

	// Durable store
	StoreDriver   string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MongoURI      string
	MongoDB       string
	StorePageSize int

	// Snapshot publishing
	PublishDir   string
	SnapshotName string

	// Announcements
	TelegramToken  string
	TelegramChatID string

	// Application configuration
	BaseUrl           string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	FeedMaxItems      int

	// Application metadata
	UserAgent   string
	HTTPTimeout time.Duration
	Timezone    string
	Debug       bool
	Version     string
}

func (c *Cfg) GetSchedulerInterval() time.Duration {
	if c.SchedulerInterval <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.SchedulerInterval) * time.Second
}
