// Package notify implements the notification dispatcher. A dispatch is one
// attempt sequence (with internal retries) to deliver a notification email
// carrying the request's PDF report.
//
// Contract with the lifecycle services: notification never fails the
// triggering operation. The services spawn a dispatch through the Async
// methods, which run the full load → render → send pipeline on their own
// goroutine, retry transient failures with doubling backoff, and log and
// swallow the terminal error. Each dispatch operates on an immutable
// snapshot of the request loaded (or passed in) at trigger time; nothing
// is persisted and there is no re-delivery after a crash.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
)

// Message is one outbound email with a PDF attachment.
type Message struct {
	To             []string
	CC             []string
	Subject        string
	HTMLBody       string
	Attachment     []byte
	AttachmentName string
}

// Mailer delivers one message. Implementations may fail transiently; the
// dispatcher owns retries.
type Mailer interface {
	Send(msg Message) error
}

// Renderer produces the PDF report for a request snapshot.
type Renderer interface {
	Render(req *domain.Request) ([]byte, error)
}

// RequestSource loads the full request snapshot (investigation, requester,
// lots) at dispatch time.
type RequestSource interface {
	RequestByID(ctx context.Context, id string) (*domain.Request, error)
}

// Options configures recipients and the retry policy.
type Options struct {
	UpheldTo    []string
	UpheldCC    []string
	DismissedTo []string
	DismissedCC []string

	// RedirectTo receives redirect notices; RedirectFallback is used when
	// it is left empty.
	RedirectTo string
	RedirectCC []string

	// MaxAttempts caps the retry loop (default 3). BaseDelay is the wait
	// after the first failure and doubles after each subsequent one
	// (default 2s).
	MaxAttempts int
	BaseDelay   time.Duration
}

// RedirectFallback is the hard-coded redirect recipient used when no
// explicit address is configured.
const RedirectFallback = "ti@maza.com.br"

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
)

// dispatchesTotal counts finished dispatch sequences by scenario and outcome.
var dispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sat_notification_dispatches_total",
	Help: "Notification dispatch sequences by scenario and outcome.",
}, []string{"scenario", "outcome"})

// Dispatcher builds and delivers notification emails. Construct with
// NewDispatcher; the zero value is not usable.
type Dispatcher struct {
	source   RequestSource
	mailer   Mailer
	renderer Renderer
	opts     Options
	logger   zerolog.Logger
}

// NewDispatcher wires a dispatcher and applies option defaults.
func NewDispatcher(source RequestSource, mailer Mailer, renderer Renderer, opts Options) *Dispatcher {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.RedirectTo == "" {
		opts.RedirectTo = RedirectFallback
	}
	return &Dispatcher{
		source:   source,
		mailer:   mailer,
		renderer: renderer,
		opts:     opts,
		logger:   log.With().Str("component", "notify").Logger(),
	}
}

// NotifyFinalizationAsync spawns the finalization dispatch for requestID on
// its own goroutine. The terminal error, if any, is logged and swallowed.
func (d *Dispatcher) NotifyFinalizationAsync(requestID string) {
	go func() {
		if err := d.NotifyFinalization(context.Background(), requestID); err != nil {
			d.logger.Error().
				Err(err).
				Str("scenario", "finalization").
				Str("request_id", requestID).
				Msg("notification dispatch failed after retries")
		}
	}()
}

// NotifyRedirectAsync spawns the redirect dispatch on its own goroutine.
// req must be a snapshot the caller no longer mutates. The terminal error,
// if any, is logged and swallowed.
func (d *Dispatcher) NotifyRedirectAsync(req *domain.Request, previous domain.Lab) {
	go func() {
		if err := d.NotifyRedirect(req, previous); err != nil {
			d.logger.Error().
				Err(err).
				Str("scenario", "redirect").
				Str("request_id", req.ID).
				Str("code", req.Code).
				Msg("notification dispatch failed after retries")
		}
	}()
}

// NotifyFinalization runs one finalization dispatch synchronously: load the
// request snapshot, select the scenario from the investigation's outcome
// flags, render the PDF, and send with retry. A request or investigation
// that no longer exists is logged and skipped, not an error.
func (d *Dispatcher) NotifyFinalization(ctx context.Context, requestID string) error {
	req, err := d.source.RequestByID(ctx, requestID)
	if err != nil {
		d.logger.Warn().Str("request_id", requestID).Msg("request not found for finalization notice, skipping")
		return nil
	}
	if req.Investigation == nil {
		d.logger.Warn().Str("code", req.Code).Msg("request has no investigation at completion time, skipping")
		return nil
	}
	inv := req.Investigation

	var msg Message
	scenario := "dismissed"
	if inv.OutcomeUpheld() {
		scenario = "upheld"
		msg = Message{
			To:       d.opts.UpheldTo,
			CC:       d.opts.UpheldCC,
			HTMLBody: buildUpheldHTML(req, inv),
		}
	} else {
		msg = Message{
			To:       d.opts.DismissedTo,
			CC:       d.opts.DismissedCC,
			HTMLBody: buildDismissedHTML(req),
		}
	}
	msg.Subject = fmt.Sprintf("SAT %s — Final Analysis Report", req.Code)
	msg.AttachmentName = fmt.Sprintf("%s_Report.pdf", req.Code)

	d.logger.Info().
		Str("scenario", scenario).
		Str("code", req.Code).
		Strs("to", msg.To).
		Msg("dispatching finalization notice")

	return d.deliver(scenario, req, msg)
}

// NotifyRedirect runs one redirect dispatch synchronously. A requester
// without an email on file means nothing is sent and nothing is logged.
func (d *Dispatcher) NotifyRedirect(req *domain.Request, previous domain.Lab) error {
	if req.Requester == nil || req.Requester.Email == nil || *req.Requester.Email == "" {
		return nil
	}
	if req.Destination == nil {
		d.logger.Warn().Str("code", req.Code).Msg("redirected request has no destination, skipping")
		return nil
	}

	msg := Message{
		To:             []string{d.opts.RedirectTo},
		CC:             d.opts.RedirectCC,
		Subject:        fmt.Sprintf("SAT Redirected: %s", req.Code),
		HTMLBody:       buildRedirectHTML(req, previous, *req.Destination),
		AttachmentName: fmt.Sprintf("%s.pdf", req.Code),
	}

	d.logger.Info().
		Str("scenario", "redirect").
		Str("code", req.Code).
		Str("from", string(previous)).
		Str("to_lab", string(*req.Destination)).
		Msg("dispatching redirect notice")

	return d.deliver("redirect", req, msg)
}

// deliver renders the PDF and sends msg, retrying the whole unit of work.
// PDF failures count as dispatch failures and are retried like transport
// failures.
func (d *Dispatcher) deliver(scenario string, req *domain.Request, msg Message) error {
	err := withRetry(d.opts.MaxAttempts, d.opts.BaseDelay, func() error {
		pdf, rerr := d.renderer.Render(req)
		if rerr != nil {
			return fmt.Errorf("render pdf: %w", rerr)
		}
		msg.Attachment = pdf
		return d.mailer.Send(msg)
	})
	if err != nil {
		dispatchesTotal.WithLabelValues(scenario, "failure").Inc()
		return err
	}
	dispatchesTotal.WithLabelValues(scenario, "success").Inc()
	d.logger.Info().Str("scenario", scenario).Str("code", req.Code).Msg("notification sent")
	return nil
}
