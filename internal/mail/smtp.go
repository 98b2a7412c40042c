package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const sendTimeout = 15 * time.Second

// SMTPMailer sends notifications over authenticated SMTP (implicit TLS on the
// usual 465 setup).
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTPMailer returns a Mailer that delivers through the given SMTP server.
func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
		gomail.WithTimeout(sendTimeout),
	}
	if port == 465 {
		opts = append(opts, gomail.WithSSL())
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

// SendWelcome greets a freshly registered user.
func (m *SMTPMailer) SendWelcome(ctx context.Context, email, username string) error {
	body := fmt.Sprintf(
		`<h2>Welcome to ECC Security System, %s!</h2>
<p>Thank you for registering with our secure authentication platform.</p>
<p>Your account is protected with elliptic-curve cryptography and two-factor authentication.</p>
<p>If you did not create this account, please contact support immediately.</p>`, username)
	return m.send(ctx, email, "Welcome to ECC Security System", body)
}

// SendOTP delivers a one-time code.
func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string) error {
	body := fmt.Sprintf(
		`<h2>Your verification code</h2>
<p>Use this code to finish signing in. It expires in 5 minutes.</p>
<p style="font-size:24px;letter-spacing:4px;"><strong>%s</strong></p>
<p>If you did not try to sign in, someone may know your catchphrase.</p>`, code)
	return m.send(ctx, email, "Your ECC Security System verification code", body)
}

// SendLoginAlert notifies about a completed login.
func (m *SMTPMailer) SendLoginAlert(ctx context.Context, email, location, device string, urgent bool) error {
	subject := "New login to your account"
	note := ""
	if urgent {
		subject = "Security alert: login from a new location"
		note = `<p><strong>This login came from a location we have not seen on your account before.</strong></p>`
	}
	body := fmt.Sprintf(
		`<h2>New login</h2>%s
<p>Location: %s</p>
<p>Device: %s</p>
<p>If this was not you, log out other devices from your dashboard now.</p>`, note, location, device)
	return m.send(ctx, email, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mail: from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail: to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}
