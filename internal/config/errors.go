package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrEmptyJWTSecret error if no signing secret is configured.
	ErrEmptyJWTSecret = errors.New("config auth.jwtsecret can not be empty")

	// ErrUnknownCarrier error if auth.carrier is not cookie, bearer or both.
	ErrUnknownCarrier = errors.New("config auth.carrier must be cookie, bearer or both")

	// ErrUnknownDBEngine error if db.engine is not sqlite, mysql or postgres.
	ErrUnknownDBEngine = errors.New("config db.engine must be sqlite, mysql or postgres")

	// ErrUnknownNotifyBackend error if notify.backend is not log, sqs or asynq.
	ErrUnknownNotifyBackend = errors.New("config notify.backend must be log, sqs or asynq")

	// ErrEmptyBucket error if object storage is enabled without a bucket.
	ErrEmptyBucket = errors.New("config storage.bucket can not be empty when storage is enabled")
)
