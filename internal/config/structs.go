package config

import (
	"time"

	"github.com/rollcall-admin/rollcall/internal/logger"
)

// Session carriers.
const (
	CarrierCookie = "cookie"
	CarrierBearer = "bearer"
	CarrierBoth   = "both"
)

// DB engines.
const (
	EngineSQLite   = "sqlite"
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
)

// Notification backends.
const (
	NotifyLog   = "log"
	NotifySQS   = "sqs"
	NotifyAsynq = "asynq"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	Webserver Webserver
	Auth      Auth
	DB        DB
	Storage   Storage
	Notify    Notify
	QR        QR
	Log       logger.Log
}

// Webserver implement webserver settings.
type Webserver struct {
	Port           int    // listening port for the webserver
	URL            string // base url for the webserver
	ShutDownTime   int    // wait time for shutdown
	CORSOrigin     string // allowed origin(s), comma separated
	ProxyHeader    string // header carrying the client ip behind a proxy
	LoginRateLimit int    // login attempts per minute and ip, 0 disables the limiter
}

// Auth holds token and session settings.
type Auth struct {
	JWTSecret       string
	TokenTTL        time.Duration
	Carrier         string // cookie, bearer or both
	CookieName      string
	Rehydrate       bool // reload the user row on every request instead of trusting the token snapshot
	PolicyCacheSize int
	PurgeSchedule   string // cron spec for the expired session purge
}

// DB holds the database configuration settings.
type DB struct {
	Engine   string
	Path     string // sqlite file
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// Storage holds the object storage settings.
type Storage struct {
	Enabled      bool
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Notify holds the onboarding notification settings.
type Notify struct {
	Backend     string
	Interval    time.Duration // minimum gap between two sends
	BufferSize  int           // pending batches before Enqueue starts dropping
	QueueURL    string        // sqs fifo queue
	RedisAddr   string        // asynq
	Region      string
	MailEnabled bool
	MailFrom    string
}

// QR holds the qr code settings.
type QR struct {
	Enabled bool
	BaseURL string // url encoded into the code, the person id is appended
	PNGSize int
}
