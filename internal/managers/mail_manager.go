// Package managers holds the long-lived services of the application: database access, tokens, revocation and mail.
package managers

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"
	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"

	"graveyard-manager/internal/config"
)

// MailMgr is an interface that outlines the contract for email management.
type MailMgr interface {
	SendActivationMail(email, name, link string) error
	SendRecoveryMail(email, link string) error
	SendNewPasswordMail(email, password string) error
	// SendBroadcastMail sends the message to every recipient and returns the addresses that could not be reached.
	SendBroadcastMail(subject, content string, recipients []string) ([]string, error)
}

// mailTransport delivers an already formatted mail.
type mailTransport interface {
	send(ctx context.Context, to, subject, html, text string) error
}

// MailManager formats mails with hermes and hands them to the configured transport.
// Outside of production mails are only logged.
type MailManager struct {
	Hermes     *hermes.Hermes
	transport  mailTransport
	timeout    time.Duration
	production bool
}

// SendActivationMail sends the link that activates a freshly registered account.
func (mm *MailManager) SendActivationMail(email, name, link string) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				"Welcome to Graveyard Manager! Your account has been registered.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "To activate your account, please click the button below. The link is valid for one hour.",
					Button: hermes.Button{
						Text: "Activate account",
						Link: link,
					},
				},
			},
			Outros: []string{
				"If you did not create an account, no further action is required.",
			},
		},
	}

	return mm.deliver(email, "Account activation", mailBody)
}

// SendRecoveryMail sends the link that resets the password of an account.
func (mm *MailManager) SendRecoveryMail(email, link string) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Intros: []string{
				"You have requested a password reset for your Graveyard Manager account.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "Click the button below to receive a new password. The link is valid for one hour.",
					Button: hermes.Button{
						Text: "Reset password",
						Link: link,
					},
				},
			},
			Outros: []string{
				"If you did not request a password reset, you can ignore this mail.",
			},
		},
	}

	return mm.deliver(email, "Password recovery", mailBody)
}

// SendNewPasswordMail sends the generated password after a completed recovery.
func (mm *MailManager) SendNewPasswordMail(email, password string) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Intros: []string{
				"Your password has been reset.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "Log in with the password below and change it in your profile right away:",
					InviteCode:   password,
				},
			},
		},
	}

	return mm.deliver(email, "New password", mailBody)
}

// SendBroadcastMail sends one mail per recipient so addresses are not disclosed to each other.
// Subject and content arrive HTML escaped from the form and are escaped again by hermes.
func (mm *MailManager) SendBroadcastMail(subject, content string, recipients []string) ([]string, error) {
	subject = html.UnescapeString(subject)
	mailBody := hermes.Email{
		Body: hermes.Body{
			Title:  subject,
			Intros: []string{html.UnescapeString(content)},
		},
	}

	var failed []string
	var errs []error
	for _, recipient := range recipients {
		if err := mm.deliver(recipient, subject, mailBody); err != nil {
			failed = append(failed, recipient)
			errs = append(errs, fmt.Errorf("%s: %w", recipient, err))
		}
	}

	return failed, errors.Join(errs...)
}

func (mm *MailManager) deliver(to, subject string, mailBody hermes.Email) error {
	if !mm.production {
		log.Infof("Skipping mail %q to %s in development mode", subject, to)
		return nil
	}

	html, err := mm.Hermes.GenerateHTML(mailBody)
	if err != nil {
		return err
	}
	text, err := mm.Hermes.GeneratePlainText(mailBody)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(mm.timeout))
	defer func() {
		if err := ctx.Err(); err != nil {
			log.Debug("Context error: ", err)
		}
		cancel()
	}()

	if err := mm.transport.send(ctx, to, subject, html, text); err != nil {
		log.Warningf("Error sending mail %q: %s", subject, err.Error())
		return err
	}
	log.Debugf("Mail %q sent to %s", subject, to)

	return nil
}

type mailgunTransport struct {
	from    string
	mailgun *mailgun.MailgunImpl
}

func (t *mailgunTransport) send(ctx context.Context, to, subject, html, text string) error {
	message := t.mailgun.NewMessage(t.from, subject, text, to)
	message.SetHtml(html)
	_, _, err := t.mailgun.Send(ctx, message)
	return err
}

type smtpTransport struct {
	from string
	addr string
	host string
	auth smtp.Auth
	ssl  bool
}

// send blocks until the SMTP dialogue is finished; the library does not accept a context.
func (t *smtpTransport) send(_ context.Context, to, subject, html, text string) error {
	e := email.NewEmail()
	e.From = t.from
	e.To = []string{to}
	e.Subject = subject
	e.HTML = []byte(html)
	e.Text = []byte(text)

	if t.ssl {
		return e.SendWithTLS(t.addr, t.auth, &tls.Config{ServerName: t.host})
	}
	return e.Send(t.addr, t.auth)
}

func newHermes(baseURL string) *hermes.Hermes {
	return &hermes.Hermes{
		Theme:         new(hermes.Default),
		TextDirection: hermes.TDLeftToRight,
		Product: hermes.Product{
			Name:        "Graveyard Manager",
			Link:        baseURL + "/",
			Copyright:   "© Graveyard Manager",
			TroubleText: "If you’re having trouble with the button '{ACTION}', copy and paste the URL below into your web browser.",
		},
	}
}

// NewMailManager initializes a new MailManager with the transport selected in the configuration.
func NewMailManager(cfg *config.Config) MailMgr {
	log.Info("Initializing mail manager")

	if !cfg.IsProduction() {
		log.Info("Running in development mode, email will not be sent to users")
	}

	var transport mailTransport
	switch cfg.Mail.Transport {
	case config.MailTransportSMTP:
		transport = &smtpTransport{
			from: cfg.Mail.From,
			addr: net.JoinHostPort(cfg.Mail.SMTPHost, strconv.Itoa(cfg.Mail.SMTPPort)),
			host: cfg.Mail.SMTPHost,
			auth: smtp.PlainAuth("", cfg.Mail.SMTPUser, cfg.Mail.SMTPPassword, cfg.Mail.SMTPHost),
			ssl:  cfg.Mail.SMTPSSL,
		}
	default:
		mailgunInstance := mailgun.NewMailgun(cfg.Mail.MailgunDomain, cfg.Mail.MailgunAPIKey)
		if cfg.Mail.MailgunEU {
			mailgunInstance.SetAPIBase(mailgun.APIBaseEU)
		}
		transport = &mailgunTransport{from: cfg.Mail.From, mailgun: mailgunInstance}
	}

	mm := &MailManager{
		Hermes:     newHermes(cfg.BaseURL),
		transport:  transport,
		timeout:    cfg.Mail.Timeout,
		production: cfg.IsProduction(),
	}
	log.Info("Initialized mail manager")
	return mm
}
