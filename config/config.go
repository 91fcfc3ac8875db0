// Package config loads the annotator's settings from ANNOTATOR_* and
// REDIS_* environment variables.
package config

import (
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spatialbench/annotator/db"
)

// InvalidConfigError is returned when a setting cannot be used
type InvalidConfigError string

func (e InvalidConfigError) Error() string {
	return "invalid config: " + string(e)
}

// Config is the full set of settings for the annotation server
type Config struct {
	Server  Server
	Store   Store
	Log     Log
	Sentry  Sentry
	Session Session
}

// Server holds the listener and video settings
type Server struct {
	Host        string   `envconfig:"ANNOTATOR_HOST" default:"0.0.0.0"`
	Port        int      `envconfig:"ANNOTATOR_PORT" default:"5000"`
	VideoDir    string   `envconfig:"ANNOTATOR_VIDEO_DIR" default:"static/videos"`
	WatchVideos bool     `envconfig:"ANNOTATOR_WATCH_VIDEOS" default:"true"`
	CORSOrigins []string `envconfig:"ANNOTATOR_CORS_ORIGINS" default:"*"`
}

// Addr is the host:port to listen on
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Store selects where dataset documents live
type Store struct {
	Kind    string `envconfig:"ANNOTATOR_STORE" default:"file"`
	DataDir string `envconfig:"ANNOTATOR_DATA_DIR" default:"data"`
	Redis   db.RedisConfig
}

// Options converts the settings for db.New
func (s Store) Options() *db.Options {
	return &db.Options{Kind: s.Kind, Dir: s.DataDir, Redis: s.Redis}
}

// Session holds dataset defaults
type Session struct {
	AutoSave bool   `envconfig:"ANNOTATOR_AUTOSAVE" default:"true"`
	File     string `envconfig:"ANNOTATOR_DATA_FILE"`
}

// Sentry configures exception reporting. An empty DSN disables it.
type Sentry struct {
	DSN string `envconfig:"ANNOTATOR_SENTRY_DSN"`
	Env string `envconfig:"ANNOTATOR_ENV" default:"dev"`
}

// Log configures the process logger
type Log struct {
	Level  string `envconfig:"ANNOTATOR_LOG_LEVEL" default:"info"`
	Format string `envconfig:"ANNOTATOR_LOG_FORMAT" default:"json"`
}

// Logger builds a logrus logger writing to stderr
func (l Log) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, InvalidConfigError("log level " + strconv.Quote(l.Level))
	}
	logger := logrus.New()
	logger.Out = os.Stderr
	logger.Level = level
	switch strings.ToLower(l.Format) {
	case "", "json":
		logger.Formatter = &logrus.JSONFormatter{}
	case "text":
		logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		return nil, InvalidConfigError("log format " + strconv.Quote(l.Format))
	}
	return logger, nil
}

// LoadConfig reads the environment into a Config
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings envconfig cannot
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return InvalidConfigError("port " + strconv.Itoa(c.Server.Port))
	}
	for _, k := range db.Kinds() {
		if k == c.Store.Kind {
			return nil
		}
	}
	return InvalidConfigError("store " + strconv.Quote(c.Store.Kind))
}
