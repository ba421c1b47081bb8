// Package notify delivers text notifications to phone numbers.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Notification is one outbound text message.
type Notification struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Notifier sends a single notification. Implementations are called from
// queue workers and must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

const (
	ProviderLog    = "log"
	ProviderHTTP   = "http"
	ProviderAliyun = "aliyun"
)

type Config struct {
	Provider string

	// http provider
	Endpoint string
	APIKey   string

	// aliyun provider
	AccessKeyID     string
	AccessKeySecret string
	SignName        string
	TemplateCode    string
}

// New builds the configured notifier. A provider missing its credentials
// falls back to the log notifier, which records and skips every send.
func New(cfg Config, logger *zap.Logger) (Notifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderLog:
		return NewLogNotifier(logger), nil
	case ProviderHTTP:
		if cfg.Endpoint == "" || cfg.APIKey == "" {
			logger.Warn("SMS service not configured, notifications will be skipped")
			return NewLogNotifier(logger), nil
		}
		return NewHTTPNotifier(cfg.Endpoint, cfg.APIKey, nil)
	case ProviderAliyun:
		if cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
			logger.Warn("aliyun SMS credentials missing, notifications will be skipped")
			return NewLogNotifier(logger), nil
		}
		return NewAliyunNotifier(cfg)
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
	}
}

// MaskPhone keeps the last four digits for logs.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// LogNotifier stands in when no SMS provider is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Send(ctx context.Context, n Notification) error {
	l.logger.Info("SMS service not configured, skipping send",
		zap.String("phone", MaskPhone(n.Phone)),
		zap.Int("message_len", len(n.Message)),
	)
	return nil
}
