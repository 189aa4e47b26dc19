// Package config handles input from etc/main.toml and the environment.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	envPrefix     = "ROLLCALL"
	envConfigJSON = envPrefix + "_CONFIG_JSON"

	defaultShutDownTime   = 5
	defaultTokenTTL       = 24 * time.Hour
	defaultCookieName     = "token"
	defaultNotifyInterval = 100 * time.Millisecond
	defaultNotifyBuffer   = 64
	defaultPolicyCache    = 256
	defaultPurgeSchedule  = "@every 15m"
	defaultQRSize         = 300
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var c Config

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	if configAsJSON := os.Getenv(envConfigJSON); configAsJSON != "" {
		v.SetConfigType("json")

		if err := v.MergeConfig(strings.NewReader(configAsJSON)); err != nil {
			return Config{}, errors.Wrap(err, "failed to merge "+envConfigJSON)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	return c, validate(&c)
}

// DumpConfigJSON config as JSON String. Secrets are masked.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer

	masked := *c
	if masked.Auth.JWTSecret != "" {
		masked.Auth.JWTSecret = "***"
	}

	if masked.Storage.SecretKey != "" {
		masked.Storage.SecretKey = "***"
	}

	if masked.DB.Password != "" {
		masked.DB.Password = "***"
	}

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(masked); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate the config and fill in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Auth.JWTSecret == "" {
		return errors.Wrap(ErrEmptyJWTSecret, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = defaultTokenTTL
	}

	if c.Auth.CookieName == "" {
		c.Auth.CookieName = defaultCookieName
	}

	if c.Auth.PolicyCacheSize == 0 {
		c.Auth.PolicyCacheSize = defaultPolicyCache
	}

	if c.Auth.PurgeSchedule == "" {
		c.Auth.PurgeSchedule = defaultPurgeSchedule
	}

	switch c.Auth.Carrier {
	case "":
		c.Auth.Carrier = CarrierBoth
	case CarrierCookie, CarrierBearer, CarrierBoth:
	default:
		return errors.Wrap(ErrUnknownCarrier, invalidErrMessage)
	}

	switch c.DB.Engine {
	case "":
		c.DB.Engine = EngineSQLite
	case EngineSQLite, EngineMySQL, EnginePostgres:
	default:
		return errors.Wrap(ErrUnknownDBEngine, invalidErrMessage)
	}

	switch c.Notify.Backend {
	case "":
		c.Notify.Backend = NotifyLog
	case NotifyLog, NotifySQS, NotifyAsynq:
	default:
		return errors.Wrap(ErrUnknownNotifyBackend, invalidErrMessage)
	}

	if c.Notify.Interval == 0 {
		c.Notify.Interval = defaultNotifyInterval
	}

	if c.Notify.BufferSize == 0 {
		c.Notify.BufferSize = defaultNotifyBuffer
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return errors.Wrap(ErrEmptyBucket, invalidErrMessage)
	}

	if c.QR.PNGSize == 0 {
		c.QR.PNGSize = defaultQRSize
	}

	if c.QR.BaseURL == "" {
		c.QR.BaseURL = strings.TrimSuffix(c.Webserver.URL, "/") + "/person"
	}

	return nil
}
