package notifier

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  []byte
}

func newTestEmail(sendErr error) (*EmailNotifier, *sentMail) {
	sent := &sentMail{}
	e := NewEmailNotifier("smtp.example.com", 587, "alerts@example.com", "secret", []string{"a@example.com", "b@example.com"})
	e.now = func() time.Time { return asOf.Add(21 * time.Hour) }
	e.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent.addr, sent.from, sent.to, sent.msg = addr, from, to, msg
		return sendErr
	}
	return e, sent
}

func TestEmailNotifier_Dispatch(t *testing.T) {
	e, sent := newTestEmail(nil)
	require.NoError(t, e.Dispatch(context.Background(), testBatch()))

	assert.Equal(t, "smtp.example.com:587", sent.addr)
	assert.Equal(t, "alerts@example.com", sent.from)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sent.to)

	m, err := mail.ReadMessage(strings.NewReader(string(sent.msg)))
	require.NoError(t, err)

	subject, err := new(mime.WordDecoder).DecodeHeader(m.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "WMT Stock Alert: Unusual Volume: 2.00x Average (+1 more)", subject)
	assert.Equal(t, "a@example.com, b@example.com", m.Header.Get("To"))

	mediaType, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(m.Body, params["boundary"])
	var types []string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, _ := io.ReadAll(p)
		types = append(types, p.Header.Get("Content-Type"))
		assert.Contains(t, string(body), "Large Price Movement")
	}
	assert.Equal(t, []string{"text/plain; charset=UTF-8", "text/html; charset=UTF-8"}, types)
}

func TestEmailNotifier_MissingSettings(t *testing.T) {
	e, _ := newTestEmail(nil)
	e.Password = ""
	assert.ErrorContains(t, e.Dispatch(context.Background(), testBatch()), "password")

	e, _ = newTestEmail(nil)
	e.Recipients = nil
	assert.ErrorContains(t, e.Dispatch(context.Background(), testBatch()), "recipient")
}

func TestEmailNotifier_SendFailure(t *testing.T) {
	e, _ := newTestEmail(errors.New("535 authentication failed"))
	err := e.Dispatch(context.Background(), testBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535")
}

func TestEmailNotifier_CancelledContext(t *testing.T) {
	e, sent := newTestEmail(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.Dispatch(ctx, testBatch()), context.Canceled)
	assert.Nil(t, sent.msg)
}
