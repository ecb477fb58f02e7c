package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"activityrewards/config"
	"activityrewards/core/events"
	"activityrewards/integrations/natsbus"
	"activityrewards/integrations/webhooks"
	telemetry "activityrewards/observability/otel"
	"activityrewards/rpc"
)

// Sinks are the optional downstream emitters opened from configuration.
type Sinks struct {
	NATS    *natsbus.Publisher
	Webhook *webhooks.Dispatcher
}

// Emitters returns the sinks as a fanout led by extra, skipping disabled ones.
func (s *Sinks) Emitters(extra ...events.Emitter) events.Emitter {
	fanout := events.Fanout{}
	for _, emitter := range extra {
		if emitter != nil {
			fanout = append(fanout, emitter)
		}
	}
	if s != nil && s.NATS != nil {
		fanout = append(fanout, s.NATS)
	}
	if s != nil && s.Webhook != nil {
		fanout = append(fanout, s.Webhook)
	}
	return fanout
}

// Close drains and stops every open sink.
func (s *Sinks) Close() {
	if s == nil {
		return
	}
	if s.Webhook != nil {
		s.Webhook.Close()
	}
	if s.NATS != nil {
		s.NATS.Close()
	}
}

// OpenSinks connects the NATS publisher and webhook dispatcher configured in
// cfg. Sections without a URL are skipped.
func OpenSinks(service string, cfg *config.Config, logger *slog.Logger) (*Sinks, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sinks := &Sinks{}
	if url := strings.TrimSpace(cfg.NATS.URL); url != "" {
		publisher, err := natsbus.Connect(url, cfg.NATS.SubjectPrefix, service, logger)
		if err != nil {
			return nil, err
		}
		sinks.NATS = publisher
	}
	if url := strings.TrimSpace(cfg.Webhook.URL); url != "" {
		opts := []webhooks.Option{
			webhooks.WithLogger(logger),
			webhooks.WithEventTypes(cfg.Webhook.Events...),
		}
		if cfg.Webhook.MaxAttempts > 0 {
			opts = append(opts, webhooks.WithRetryPolicy(cfg.Webhook.MaxAttempts, 0, 0))
		}
		dispatcher, err := webhooks.NewDispatcher(url, []byte(cfg.WebhookSecret()), opts...)
		if err != nil {
			sinks.Close()
			return nil, fmt.Errorf("webhook: %w", err)
		}
		sinks.Webhook = dispatcher
	}
	return sinks, nil
}

// TelemetryConfig maps cfg.Telemetry onto the exporter settings.
func TelemetryConfig(service string, cfg *config.Config) telemetry.Config {
	return telemetry.Config{
		ServiceName: service,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	}
}

// ServerConfig maps cfg onto the RPC server settings.
func ServerConfig(cfg *config.Config, logger *slog.Logger) rpc.ServerConfig {
	return rpc.ServerConfig{
		Auth: rpc.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.AuthSecret(),
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  cfg.ClockSkew(),
		},
		RateLimit: rpc.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		Logger:       logger,
	}
}
