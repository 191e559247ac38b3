package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

// PublisherConfig configures the NATS connection and subject namespace
type PublisherConfig struct {
	URL           string
	SubjectPrefix string
}

// NATSPublisher implements EventPublisher for NATS JetStream
type NATSPublisher struct {
	nc            *nats.Conn
	js            nats.JetStreamContext
	subjectPrefix string
	logger        *logger.Logger
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(cfg PublisherConfig, log *logger.Logger) (*NATSPublisher, error) {
	subjectPrefix := strings.TrimSpace(cfg.SubjectPrefix)
	if subjectPrefix == "" {
		subjectPrefix = "gallery"
	}

	// Connect to NATS with retry
	nc, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Get JetStream context
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	log.Info("Connected to NATS", "url", cfg.URL)

	return &NATSPublisher{
		nc:            nc,
		js:            js,
		subjectPrefix: subjectPrefix,
		logger:        log,
	}, nil
}

// PublishEvent publishes an event to NATS (async). The subject is published
// under the configured namespace, so "image.uploaded" becomes
// "gallery.image.uploaded" with the default prefix.
func (p *NATSPublisher) PublishEvent(ctx context.Context, subject string, event interface{}) error {
	// Marshal event to JSON
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	fullSubject := p.subjectPrefix + "." + subject

	// Async publish (fire-and-forget for better performance)
	_, err = p.js.PublishAsync(fullSubject, data)
	if err != nil {
		p.logger.Error("Failed to publish event", err,
			"subject", fullSubject,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published",
		"subject", fullSubject,
		"size", len(data),
	)

	return nil
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() error {
	if p.nc != nil {
		p.logger.Info("Closing NATS connection")
		p.nc.Close()
	}
	return nil
}
