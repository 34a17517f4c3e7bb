package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// EmailNotifier sends the batch as a multipart (plain + HTML) email over
// SMTP. smtp.SendMail upgrades to STARTTLS when the server offers it.
type EmailNotifier struct {
	Server     string
	Port       int
	Sender     string
	Password   string
	Recipients []string

	// sendMail is smtp.SendMail; replaced in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

// NewEmailNotifier creates an SMTP notifier.
func NewEmailNotifier(server string, port int, sender, password string, recipients []string) *EmailNotifier {
	return &EmailNotifier{
		Server:     server,
		Port:       port,
		Sender:     sender,
		Password:   password,
		Recipients: recipients,
		sendMail:   smtp.SendMail,
		now:        time.Now,
	}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) validate() error {
	switch {
	case e.Sender == "":
		return errors.New("sender email is missing")
	case len(e.Recipients) == 0:
		return errors.New("recipient emails are missing")
	case e.Password == "":
		return errors.New("sender password is missing")
	case e.Server == "":
		return errors.New("smtp server is missing")
	}
	return nil
}

func (e *EmailNotifier) Dispatch(ctx context.Context, batch *Batch) error {
	if err := e.validate(); err != nil {
		return err
	}
	msg, err := e.buildMessage(batch)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := e.Server + ":" + strconv.Itoa(e.Port)
	auth := smtp.PlainAuth("", e.Sender, e.Password, e.Server)

	// net/smtp has no context support; run it aside so a cancelled run is
	// not held up by a stalled server.
	done := make(chan error, 1)
	go func() { done <- e.sendMail(addr, auth, e.Sender, e.Recipients, msg) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send via %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *EmailNotifier) buildMessage(batch *Batch) ([]byte, error) {
	htmlBody, err := FormatEmailHTML(batch)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct{ contentType, content string }{
		{"text/plain; charset=UTF-8", FormatPlainText(batch)},
		{"text/html; charset=UTF-8", htmlBody},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", e.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(e.Recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", EmailSubject(batch)))
	fmt.Fprintf(&msg, "Date: %s\r\n", e.now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
