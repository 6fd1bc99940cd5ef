package emailService

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	subjectWelcome        = "Welcome to PayBillsWithUs"
	templateWelcome       = "welcome.html"
	subjectResetPassword  = "Reset your password"
	templateResetPassword = "password_reset.html"

	defaultQueueSize = 100
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type EmailData interface {
	TemplateFileName() string
	Subject() string
}

type EmailSender interface {
	QueueEmail(to string, data EmailData)
}

type WelcomeData struct {
	FirstName      string
	CustomerNumber string
}

func (WelcomeData) TemplateFileName() string {
	return templateWelcome
}

func (WelcomeData) Subject() string {
	return subjectWelcome
}

type ResetPasswordData struct {
	FirstName string
	ResetURL  string
	ExpiresAt time.Time
}

func (ResetPasswordData) TemplateFileName() string {
	return templateResetPassword
}

func (ResetPasswordData) Subject() string {
	return subjectResetPassword
}

// Render builds the message body for data from the embedded templates.
func Render(data EmailData) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, data.TemplateFileName(), data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", data.TemplateFileName(), err)
	}
	return body.String(), nil
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailTask struct {
	to      string
	data    EmailData
	subject string
}

// EmailService sends queued templated mail from a single worker goroutine.
type EmailService struct {
	cfg       SMTPConfig
	send      SendFunc
	logger    *zap.Logger
	taskQueue chan EmailTask
	done      chan struct{}
	closeOnce sync.Once
}

func NewEmailService(cfg SMTPConfig, logger *zap.Logger) *EmailService {
	return newEmailService(cfg, smtp.SendMail, logger)
}

func newEmailService(cfg SMTPConfig, send SendFunc, logger *zap.Logger) *EmailService {
	s := &EmailService{
		cfg:       cfg,
		send:      send,
		logger:    logger,
		taskQueue: make(chan EmailTask, defaultQueueSize),
		done:      make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *EmailService) worker() {
	defer close(s.done)
	for task := range s.taskQueue {
		if err := s.sendTemplatedEmail(task.to, task.data, task.subject); err != nil {
			s.logger.Error("error sending email", zap.String("template", task.data.TemplateFileName()), zap.Error(err))
		}
	}
}

func (s *EmailService) QueueEmail(to string, data EmailData) {
	s.taskQueue <- EmailTask{to: to, data: data, subject: data.Subject()}
}

// Close stops accepting mail and waits for the queue to drain.
func (s *EmailService) Close() {
	s.closeOnce.Do(func() {
		close(s.taskQueue)
	})
	<-s.done
}

func (s *EmailService) sendTemplatedEmail(to string, data EmailData, subject string) error {
	body, err := Render(data)
	if err != nil {
		return err
	}

	message := []byte("From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\";\r\n\r\n" +
		body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(s.cfg.Host+":"+s.cfg.Port, auth, s.cfg.From, []string{to}, message); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

// LogSender renders mail and logs it instead of sending. It is used when SMTP is not configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) QueueEmail(to string, data EmailData) {
	body, err := Render(data)
	if err != nil {
		l.logger.Error("error rendering email", zap.Error(err))
		return
	}
	l.logger.Info("email not sent, SMTP is not configured",
		zap.String("subject", data.Subject()),
		zap.Int("body_bytes", len(body)))
}
