// Package notify delivers run outcomes by email: a no-data notice or a full
// report with the inventory archive attached.
package notify

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
	"github.com/pankaj-dahiya-devops/orginv/internal/retry"
)

// Subjects of the two message shapes.
const (
	SubjectNoData = "AWS Inventory - No Data Found"
	noDataBody    = "No resources were found matching your criteria."
)

// Report is the summary carried in the body of a full report.
type Report struct {
	Scope             string
	Target            string
	Resources         []string
	Generated         time.Time
	AccountsProcessed int
	SuccessfulUnits   int
	TotalUnits        int
	ArchiveSizeMB     float64
}

// Subject returns the report subject line.
func (r Report) Subject() string {
	return fmt.Sprintf("AWS Inventory Report - %s: %s", r.Scope, r.Target)
}

// Body returns the plain-text report body.
func (r Report) Body() string {
	var b strings.Builder
	b.WriteString("AWS Resource Inventory Report\n\n")
	fmt.Fprintf(&b, "Scope: %s\n", r.Scope)
	fmt.Fprintf(&b, "Target: %s\n", r.Target)
	fmt.Fprintf(&b, "Resources: %s\n", strings.Join(r.Resources, ", "))
	fmt.Fprintf(&b, "Generated: %s UTC\n\n", r.Generated.UTC().Format(time.DateTime))
	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "- Accounts processed: %d\n", r.AccountsProcessed)
	fmt.Fprintf(&b, "- Successful collections: %d/%d\n", r.SuccessfulUnits, r.TotalUnits)
	fmt.Fprintf(&b, "- ZIP file size: %.1f MB\n\n", r.ArchiveSizeMB)
	b.WriteString("The attached ZIP file contains CSV files with detailed resource information.\n")
	return b.String()
}

// Dispatcher sends notifications through a Transport with retries.
type Dispatcher struct {
	transport Transport
	sender    string
	replyTo   string
	policy    retry.Policy
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithReplyTo sets the Reply-To header.
func WithReplyTo(addr string) DispatcherOption {
	return func(d *Dispatcher) { d.replyTo = addr }
}

// WithRetryPolicy sets the send retry policy.
func WithRetryPolicy(p retry.Policy) DispatcherOption {
	return func(d *Dispatcher) { d.policy = p }
}

// NewDispatcher returns a Dispatcher sending from sender.
func NewDispatcher(t Transport, sender string, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		transport: t,
		sender:    sender,
		policy:    retry.Policy{MaxRetries: 2, BackoffFactor: retry.DefaultBackoffFactor},
	}
	for _, o := range opts {
		o(d)
	}
	if d.policy.Name == "" {
		d.policy.Name = "notify"
	}
	if d.policy.Retryable == nil {
		d.policy.Retryable = retry.IsRetryable
	}
	return d
}

// Notify sends one message to recipient, which may be a comma-separated
// list. Failures after retries are NOTIFICATION errors.
func (d *Dispatcher) Notify(ctx context.Context, recipient, subject, body, attachment string) error {
	to := splitRecipients(recipient)
	if len(to) == 0 {
		return inverr.New(inverr.ErrCodeNotification, "no recipient")
	}
	if attachment != "" {
		if _, err := os.Stat(attachment); err != nil {
			return inverr.Wrap(inverr.ErrCodeNotification, "attachment unavailable", err)
		}
	}

	m := &Message{
		From:           d.sender,
		To:             to,
		ReplyTo:        d.replyTo,
		Subject:        subject,
		Body:           body,
		AttachmentPath: attachment,
	}
	err := d.policy.Do(ctx, func(ctx context.Context) error {
		return d.transport.Send(ctx, m)
	})
	if err != nil {
		return inverr.WrapWithContext(inverr.ErrCodeNotification, "notification failed", err,
			map[string]any{"recipient": recipient, "subject": subject})
	}
	return nil
}

// NotifyNoData sends the no-data notice. It has no attachment.
func (d *Dispatcher) NotifyNoData(ctx context.Context, recipient string) error {
	return d.Notify(ctx, recipient, SubjectNoData, noDataBody, "")
}

// NotifyReport sends the full report with the archive attached.
func (d *Dispatcher) NotifyReport(ctx context.Context, recipient string, r Report, archivePath string) error {
	return d.Notify(ctx, recipient, r.Subject(), r.Body(), archivePath)
}

func splitRecipients(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
