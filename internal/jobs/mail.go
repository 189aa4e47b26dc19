package jobs

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/notify"
)

const charset = "UTF-8"

// Mail is a rendered onboarding mail.
type Mail struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers rendered mails.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// SESAPI is the part of the SES v2 client the mailer uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends mails through Amazon SES.
type SESMailer struct {
	client SESAPI
	from   string
}

// NewSESMailer creates a mailer sending from the given address.
func NewSESMailer(client SESAPI, from string) *SESMailer {
	return &SESMailer{client: client, from: from}
}

// Send delivers m.
func (s *SESMailer) Send(ctx context.Context, m Mail) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{m.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(m.Subject), Charset: aws.String(charset)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(m.HTML), Charset: aws.String(charset)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: send mail to %s: %v", apperr.ErrUpstream, m.To, err) //nolint: errorlint
	}

	return nil
}

// LogMailer only logs the mails it is given.
type LogMailer struct{}

// Send logs m without its body.
func (LogMailer) Send(_ context.Context, m Mail) error {
	log.Info().Str("to", m.To).Str("subject", m.Subject).Msg("onboarding mail (not sent, mail disabled)")
	return nil
}

var (
	userMail = template.Must(template.New("user").Parse(`<p>Hello {{.Name}},</p>
<p>an account was created for you.</p>
<p>Username: <b>{{.Username}}</b><br>Password: <b>{{.Password}}</b></p>
<p>Please change your password after the first login.</p>`))

	personMail = template.Must(template.New("person").Parse(`<p>Hello {{.Name}},</p>
<p>you are registered with the id <b>{{.PersonID}}</b>.</p>
{{if .Zone}}<p>Zone: {{.Zone}}</p>{{end}}{{if .Room}}<p>Room: {{.Room}}</p>{{end}}`))
)

type mailData struct {
	Name     string
	Username string
	Password string
	PersonID string
	Zone     string
	Room     string
}

// Render builds the onboarding mail of msg.
func Render(msg notify.Message) (Mail, error) {
	data := mailData{
		Name:     msg.Name,
		Username: msg.Attributes[notify.AttrUsername],
		Password: msg.Attributes[notify.AttrPassword],
		PersonID: msg.Attributes[notify.AttrPersonID],
		Zone:     msg.Attributes[notify.AttrZone],
		Room:     msg.Attributes[notify.AttrRoom],
	}

	var (
		tmpl    *template.Template
		subject string
	)

	switch msg.Kind {
	case notify.KindUser:
		tmpl, subject = userMail, "Your account"
	case notify.KindPerson:
		tmpl, subject = personMail, "Your registration"
	default:
		return Mail{}, fmt.Errorf("%w: unknown message kind %q", apperr.ErrValidation, msg.Kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Mail{}, fmt.Errorf("render %s mail: %w", msg.Kind, err)
	}

	return Mail{To: msg.Address, Subject: subject, HTML: buf.String()}, nil
}
