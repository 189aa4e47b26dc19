package daemon

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/awscfg"
	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/db"
	"github.com/rollcall-admin/rollcall/internal/notify"
	"github.com/rollcall-admin/rollcall/internal/qr"
	"github.com/rollcall-admin/rollcall/internal/storage"
)

// OpenDB opens the configured store, migrates it and seeds the root account.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	conn, err := db.Open(&cfg.DB, cfg.DevMode)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(conn); err != nil {
		return nil, err
	}

	if err := seed(conn); err != nil {
		return nil, errors.Wrap(err, "failed to seed root account")
	}

	return conn, nil
}

func noopClose() error { return nil }

// NewNotifier builds the configured notification backend. The returned closer
// releases its client.
func NewNotifier(ctx context.Context, cfg *config.Config) (notify.Notifier, func() error, error) {
	switch cfg.Notify.Backend {
	case config.NotifySQS:
		awsConfig, err := awscfg.Load(ctx, cfg.Notify.Region, "", "")
		if err != nil {
			return nil, nil, err
		}

		return notify.NewSQSNotifier(sqs.NewFromConfig(awsConfig), cfg.Notify.QueueURL), noopClose, nil

	case config.NotifyAsynq:
		client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Notify.RedisAddr})

		return notify.NewAsynqNotifier(client), client.Close, nil

	default:
		return notify.LogNotifier{}, noopClose, nil
	}
}

// NewImages builds the object store and the QR generator. Both are nil when
// disabled; the generator also needs the store.
func NewImages(ctx context.Context, cfg *config.Config) (*storage.S3, *qr.Generator, error) {
	if !cfg.Storage.Enabled {
		return nil, nil, nil
	}

	store, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.QR.Enabled {
		return store, nil, nil
	}

	return store, qr.NewGenerator(store, cfg.QR.BaseURL, cfg.QR.PNGSize), nil
}
