package notify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Message is one outgoing email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Body    string

	// AttachmentPath, when set, is attached as application/octet-stream.
	AttachmentPath string
}

// BuildRaw renders m as an RFC 5322 multipart/mixed message: a text/plain
// body followed by the optional base64 attachment. A set but unreadable
// attachment is an error.
func BuildRaw(m *Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := []struct{ k, v string }{
		{"From", m.From},
		{"To", strings.Join(m.To, ", ")},
		{"Subject", mime.QEncoding.Encode("utf-8", m.Subject)},
		{"Date", now.UTC().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mw.Boundary())},
	}
	if m.ReplyTo != "" {
		h = append(h, struct{ k, v string }{"Reply-To", m.ReplyTo})
	}
	for _, kv := range h {
		fmt.Fprintf(&buf, "%s: %s\r\n", kv.k, kv.v)
	}
	buf.WriteString("\r\n")

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(body)
	if _, err := qp.Write([]byte(m.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	if m.AttachmentPath != "" {
		data, err := os.ReadFile(m.AttachmentPath)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
		name := filepath.Base(m.AttachmentPath)
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType("application/octet-stream", map[string]string{"name": name})},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64Lines(part, data); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64Lines writes data base64-encoded in 76-column lines.
func writeBase64Lines(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := fmt.Fprintf(w, "%s\r\n", enc[:76]); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := fmt.Fprintf(w, "%s\r\n", enc)
	return err
}
