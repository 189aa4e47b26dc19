package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/db/controller/person"
	"github.com/rollcall-admin/rollcall/internal/db/controller/user"
	"github.com/rollcall-admin/rollcall/internal/db/models"
	"github.com/rollcall-admin/rollcall/internal/logger"
	"github.com/rollcall-admin/rollcall/internal/notify"
	"github.com/rollcall-admin/rollcall/internal/validate"
)

const defaultImageConcurrency = 4

// ErrEmptyFile is returned for files with a header and no data rows.
var ErrEmptyFile = fmt.Errorf("%w: file has no rows", apperr.ErrValidation)

// Enqueuer accepts notification batches without blocking.
type Enqueuer interface {
	Enqueue(b notify.Batch) bool
}

// ImageGenerator creates the QR images of a person.
type ImageGenerator interface {
	Generate(ctx context.Context, personID string) error
}

// Result describes a successful import.
type Result struct {
	Kind    Kind     `json:"kind"`
	Count   int      `json:"count"`
	BatchID string   `json:"batchId"`
	Records []Record `json:"-"`
}

// Pipeline imports CSV files into the store.
type Pipeline struct {
	db          *gorm.DB
	validator   *validate.Validator
	notifier    Enqueuer
	images      ImageGenerator
	concurrency int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNotifier hands every imported batch to e after commit.
func WithNotifier(e Enqueuer) Option {
	return func(p *Pipeline) {
		p.notifier = e
	}
}

// WithImages generates person QR codes after commit, at most concurrency at a time.
func WithImages(g ImageGenerator, concurrency int) Option {
	return func(p *Pipeline) {
		p.images = g
		if concurrency > 0 {
			p.concurrency = concurrency
		}
	}
}

// NewPipeline creates a pipeline on db.
func NewPipeline(db *gorm.DB, v *validate.Validator, opts ...Option) *Pipeline {
	p := &Pipeline{
		db:          db,
		validator:   v,
		concurrency: defaultImageConcurrency,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Import runs the whole pipeline for the file at path on behalf of actor.
func (p *Pipeline) Import(ctx context.Context, actor, path string, kind Kind) (Result, error) {
	records, err := p.Prepare(path, kind)
	if err != nil {
		return Result{}, err
	}

	if err := p.PersistBatch(ctx, kind, records); err != nil {
		return Result{}, err
	}

	logger.AuditBulk(actor, logger.ActionBulkCreate, strings.ToUpper(string(kind)), len(records))

	res := Result{
		Kind:    kind,
		Count:   len(records),
		BatchID: uuid.NewString(),
		Records: records,
	}

	log.Info().Str("user", actor).Str("kind", string(kind)).Int("count", res.Count).
		Str("batch", res.BatchID).Msg("bulk import committed")

	p.afterCommit(ctx, res)

	return res, nil
}

// Prepare parses, transforms and validates every row. Nothing is persisted.
func (p *Pipeline) Prepare(path string, kind Kind) ([]Record, error) {
	reader, err := Open(path, kind)
	if err != nil {
		return nil, err
	}

	var records []Record

	// the header is line 1
	line := 1

	for row, err := range reader.Rows() {
		if err != nil {
			return nil, err
		}

		line++

		rec, err := Transform(p.validator, row, kind)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec.Line = line
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	if err := checkDuplicates(records); err != nil {
		return nil, err
	}

	return records, nil
}

// PersistBatch inserts all records in one transaction with a single batched insert.
// A unique violation rolls back the whole batch and returns apperr.ErrConflict.
func (p *Pipeline) PersistBatch(ctx context.Context, kind Kind, records []Record) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch kind {
		case KindUser:
			users := make([]models.User, 0, len(records))
			for _, r := range records {
				users = append(users, *r.User)
			}

			return user.CreateBatch(tx, users)
		case KindPerson:
			persons := make([]models.Person, 0, len(records))
			for _, r := range records {
				persons = append(persons, *r.Person)
			}

			return person.CreateBatch(tx, persons)
		default:
			return fmt.Errorf("%w %q", ErrUnknownKind, kind)
		}
	})
}

// Messages builds the notification batch of records. Records without email are skipped.
func Messages(batchID string, records []Record) notify.Batch {
	b := notify.Batch{ID: batchID}

	for _, r := range records {
		address := r.Email()
		if address == "" {
			continue
		}

		msg := notify.Message{
			Kind:    string(r.Kind),
			GroupID: batchID,
			DedupID: r.Key(),
			Address: address,
		}

		switch {
		case r.User != nil:
			msg.Name = r.User.Name
			msg.Attributes = map[string]string{
				notify.AttrUsername: r.User.Username,
				notify.AttrPassword: r.Password,
			}
		case r.Person != nil:
			msg.Name = r.Person.Name
			msg.Attributes = map[string]string{
				notify.AttrPersonID: r.Person.PersonID,
				notify.AttrZone:     r.Person.Zone,
				notify.AttrRoom:     r.Person.Room,
			}
		}

		b.Messages = append(b.Messages, msg)
	}

	return b
}

// afterCommit runs the side effects. Failures are logged, never returned.
func (p *Pipeline) afterCommit(ctx context.Context, res Result) {
	if p.notifier != nil {
		p.notifier.Enqueue(Messages(res.BatchID, res.Records))
	}

	if p.images == nil || res.Kind != KindPerson {
		return
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for _, r := range res.Records {
		id := r.Person.PersonID

		g.Go(func() error {
			if err := p.images.Generate(ctx, id); err != nil {
				log.Error().Err(err).Str("person", id).Msg("failed to generate qr code")
			}

			return nil
		})
	}

	_ = g.Wait()
}

func checkDuplicates(records []Record) error {
	seen := map[string]int{}

	check := func(r Record, field, value string) error {
		if value == "" {
			return nil
		}

		key := field + "\x00" + value
		if first, ok := seen[key]; ok {
			return fmt.Errorf("%w: line %d repeats %s %q of line %d", apperr.ErrConflict, r.Line, field, value, first)
		}

		seen[key] = r.Line

		return nil
	}

	for _, r := range records {
		var fields [][2]string

		switch {
		case r.User != nil:
			fields = [][2]string{{"username", r.User.Username}, {"email", r.User.EmailAddress()}}
		case r.Person != nil:
			fields = [][2]string{
				{"personId", r.Person.PersonID},
				{"name", r.Person.Name},
				{"email", r.Person.EmailAddress()},
			}
		}

		for _, f := range fields {
			if err := check(r, f[0], f[1]); err != nil {
				return err
			}
		}
	}

	return nil
}
