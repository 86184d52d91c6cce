package mail

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"time"
)

// buildMIME собирает письмо multipart/alternative.
func buildMIME(from Sender, msg Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	fromAddr := (&mail.Address{Name: from.Name, Address: from.Email}).String()
	headers := []struct{ key, value string }{
		{"From", fromAddr},
		{"To", (&mail.Address{Address: msg.To}).String()},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
	}
	if from.ReplyTo != "" {
		headers = append(headers, struct{ key, value string }{"Reply-To", from.ReplyTo})
	}
	if msg.UnsubscribeURL != "" {
		headers = append(headers,
			struct{ key, value string }{"List-Unsubscribe", "<" + msg.UnsubscribeURL + ">"},
			struct{ key, value string }{"List-Unsubscribe-Post", "List-Unsubscribe=One-Click"},
		)
	}

	mw := multipart.NewWriter(&buf)
	headers = append(headers, struct{ key, value string }{
		"Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary()),
	})
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.key, h.value)
	}
	buf.WriteString("\r\n")

	parts := []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
