package cfg

type Cfg struct {
	// Storage configuration
	DataDir  string
	SeedFile string

	// HTTP server configuration
	Port         string
	APIAccessKey string

	// SMTP delivery configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// Telegram delivery configuration
	TelegramToken   string
	TelegramChatID  string
	TelegramAPIBase string

	// Recipient store encryption
	RecipientsKey string

	// Pipeline configuration
	MaxBatch           int
	RenderWorkers      int
	FetchTimeout       int // seconds
	ImageFetchTimeout  int // seconds
	SchedulerInterval  int // minutes, 0 disables scheduled runs
	AllowEmptyDocument bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
