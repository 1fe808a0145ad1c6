// Package mqtt delivers notification requests and receives partner
// responses over an MQTT broker. It is one possible transport behind the
// notify.Notifier contract; the engine itself has no opinion on delivery.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/gep-platform/assignd/core/assign"
	"github.com/gep-platform/assignd/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker        string          `json:"broker"`
	ClientID      string          `json:"client_id"`
	Username      string          `json:"username"`
	Password      string          `json:"password"`
	NotifyTopic   string          `json:"notify_topic"`
	ResponseTopic string          `json:"response_topic"`
	EscalateTopic string          `json:"escalate_topic"`
	UseTLS        bool            `json:"use_tls"`
	ClientCert    string          `json:"client_cert"`
	ClientKey     string          `json:"client_key"`
	CABundle      string          `json:"ca_bundle"`
	QoS           map[string]byte `json:"qos"`
	MaxRetries    int             `json:"max_retries"`
	BackoffMS     int             `json:"backoff_ms"`
	TLSConfig     *tls.Config     `json:"-"`
}

// SetDefaults fills the topics with their defaults.
func (c *Config) SetDefaults() {
	if c.NotifyTopic == "" {
		c.NotifyTopic = "assign/notify"
	}
	if c.ResponseTopic == "" {
		c.ResponseTopic = "assign/response/+"
	}
	if c.EscalateTopic == "" {
		c.EscalateTopic = "assign/escalate"
	}
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoNotifier implements notify.Notifier on Eclipse Paho and feeds partner
// responses into a channel consumed by the manager.
type PahoNotifier struct {
	cli       pahoClient
	cfg       Config
	logger    logger.Logger
	responses chan assign.PartnerResponse

	mu     sync.Mutex
	closed bool
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoNotifier connects to the broker and subscribes to the response
// topic.
func NewPahoNotifier(cfg Config) (*PahoNotifier, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_notifier")
	n := &PahoNotifier{
		cfg:       cfg,
		logger:    log,
		responses: make(chan assign.PartnerResponse, 64),
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		qos := byte(0)
		if q, ok := cfg.QoS["response"]; ok {
			qos = q
		}
		if token := c.Subscribe(cfg.ResponseTopic, qos, n.onResponse); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	n.cli = c
	return n, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Responses returns the channel of partner accept/decline replies.
func (n *PahoNotifier) Responses() <-chan assign.PartnerResponse {
	return n.responses
}

func (n *PahoNotifier) onResponse(_ paho.Client, msg paho.Message) {
	var m struct {
		AssignmentID string `json:"assignment_id"`
		PartnerID    string `json:"partner_id"`
		Accepted     bool   `json:"accepted"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		n.logger.Errorf("failed to decode response: %v", err)
		return
	}
	if m.AssignmentID == "" {
		n.logger.Warnf("response without assignment id on %s", msg.Topic())
		return
	}
	n.logger.Infof("received response for assignment %s (accepted=%v)", m.AssignmentID, m.Accepted)
	select {
	case n.responses <- assign.PartnerResponse{AssignmentID: m.AssignmentID, PartnerID: m.PartnerID, Accepted: m.Accepted}:
	default:
		n.logger.Warnf("response channel full, dropping response for %s", m.AssignmentID)
	}
}

// RequestNotification publishes the proposal notification to the partner's
// topic and returns the command identifier for delivery tracking.
func (n *PahoNotifier) RequestNotification(_ context.Context, partnerID, assignmentID string, deadline time.Time) (string, error) {
	cmdID := uuid.NewString()
	payload, err := json.Marshal(struct {
		CommandID    string `json:"command_id"`
		PartnerID    string `json:"partner_id"`
		AssignmentID string `json:"assignment_id"`
		Deadline     string `json:"deadline"`
	}{
		CommandID:    cmdID,
		PartnerID:    partnerID,
		AssignmentID: assignmentID,
		Deadline:     deadline.Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}
	topic := fmt.Sprintf("%s/%s", n.cfg.NotifyTopic, partnerID)
	if err := n.publish(topic, "notify", payload); err != nil {
		return "", err
	}
	n.logger.Infof("sent notification %s to %s", cmdID, topic)
	return cmdID, nil
}

// RequestEscalation publishes the unfulfillable request to the escalation
// topic.
func (n *PahoNotifier) RequestEscalation(_ context.Context, requestID, reason string) error {
	payload, err := json.Marshal(struct {
		RequestID string `json:"request_id"`
		Reason    string `json:"reason"`
		Timestamp int64  `json:"timestamp"`
	}{RequestID: requestID, Reason: reason, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return err
	}
	return n.publish(n.cfg.EscalateTopic, "escalate", payload)
}

func (n *PahoNotifier) publish(topic, kind string, payload []byte) error {
	qos := byte(0)
	if q, ok := n.cfg.QoS[kind]; ok {
		qos = q
	}
	retries := n.cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := time.Duration(n.cfg.BackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= retries; attempt++ {
		token := n.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		n.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Close disconnects from the broker and closes the response channel.
func (n *PahoNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
	close(n.responses)
}
