package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strconv"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/harees/url-classifier/internal/config"
	"github.com/harees/url-classifier/internal/core"
	"github.com/harees/url-classifier/internal/utils"
	"go.uber.org/zap"
)

const (
	headerValueMaxSize = 512
	analysisTimeout    = 10 * time.Second
)

// MessageResult is the outcome of scanning one message for links
type MessageResult struct {
	URLs     []string
	Worst    *core.Verdict
	WorstURL string
	Message  []byte
}

// SMTPFilter is a content filter that classifies the links found in mail
// and relays the message with verdict headers to the next hop
type SMTPFilter struct {
	service       *core.URLService
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	cfg           config.SMTPConfig
	server        *smtp.Server
	deliver       func(sender string, recipients []string, data []byte) error
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(
	service *core.URLService,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	cfg config.SMTPConfig,
) *SMTPFilter {
	f := &SMTPFilter{
		service:       service,
		logger:        logger,
		textProcessor: textProcessor,
		cfg:           cfg,
	}
	f.deliver = f.relay
	return f
}

// Start starts the SMTP server
func (f *SMTPFilter) Start() error {
	ln, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}

	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	f.logger.Info("SMTP filter starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessURL classifies a single URL
func (f *SMTPFilter) ProcessURL(ctx context.Context, rawURL string) (*core.Verdict, error) {
	return f.service.Analyze(ctx, rawURL)
}

// ProcessMessage classifies every link in a raw message and returns the
// message with verdict headers prepended
func (f *SMTPFilter) ProcessMessage(ctx context.Context, raw []byte) (*MessageResult, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	text, err := extractTextFromMessage(msg)
	if err != nil {
		// Links found before the failure are still worth checking
		f.logger.Warn("Failed to extract all message text", zap.Error(err))
	}

	result := &MessageResult{URLs: ExtractURLs(text, f.cfg.MaxURLs)}
	for _, u := range result.URLs {
		verdict, err := f.ProcessURL(ctx, u)
		if err != nil {
			f.logger.Warn("Failed to classify link",
				zap.String("url", f.textProcessor.TruncateText(u, logURLMaxSize)),
				zap.Error(err))
			continue
		}
		if result.Worst == nil || verdict.Score < result.Worst.Score {
			result.Worst = verdict
			result.WorstURL = u
		}
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "%s: %d\r\n", f.cfg.CountHeader, len(result.URLs))
	if result.Worst != nil {
		reason := fmt.Sprintf("%s (%s)", result.Worst.Reason, result.WorstURL)
		fmt.Fprintf(&out, "%s: %s\r\n", f.cfg.StatusHeader, result.Worst.Status)
		fmt.Fprintf(&out, "%s: %.2f\r\n", f.cfg.ScoreHeader, result.Worst.Score)
		fmt.Fprintf(&out, "%s: %s\r\n", f.cfg.ReasonHeader, f.textProcessor.HeaderValue(reason, headerValueMaxSize))
	}
	out.Write(raw)
	result.Message = out.Bytes()

	return result, nil
}

// relay sends the processed message to the next hop
func (f *SMTPFilter) relay(sender string, recipients []string, data []byte) error {
	addr := net.JoinHostPort(f.cfg.RelayAddress, strconv.Itoa(f.cfg.RelayPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay %s: %w", addr, err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := false
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", rcpt),
				zap.Error(err))
			continue
		}
		accepted = true
	}
	if !accepted {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data scans the message, then rejects or relays it
func (s *smtpSession) Data(r io.Reader) error {
	f := s.filter

	raw, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()

	result, err := f.ProcessMessage(ctx, raw)
	if err != nil {
		f.logger.Error("Failed to process message", zap.Error(err), zap.String("sender", s.sender))
		return err
	}

	if f.cfg.BlockDangerous && result.Worst != nil && result.Worst.Status == core.StatusDangerous {
		f.logger.Info("Rejecting message with dangerous link",
			zap.String("from", s.sender),
			zap.String("url", f.textProcessor.TruncateText(result.WorstURL, logURLMaxSize)),
			zap.Float64("score", result.Worst.Score),
			zap.String("reason", result.Worst.Reason))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected: dangerous link (score: %.2f)", result.Worst.Score),
		}
	}

	if f.cfg.RelayEnabled {
		if err := f.deliver(s.sender, s.recipients, result.Message); err != nil {
			f.logger.Error("Failed to relay message", zap.Error(err), zap.String("sender", s.sender))
			return err
		}
	} else {
		f.logger.Warn("Relay disabled, message was scanned but not forwarded")
	}

	fields := []zap.Field{
		zap.String("from", s.sender),
		zap.Int("links", len(result.URLs)),
	}
	if result.Worst != nil {
		fields = append(fields,
			zap.String("worst_status", string(result.Worst.Status)),
			zap.Float64("worst_score", result.Worst.Score))
	}
	f.logger.Info("Processed message", fields...)

	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
