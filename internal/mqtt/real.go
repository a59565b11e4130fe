package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/tile-floor/internal/command"
	"github.com/sweeney/tile-floor/internal/game"
)

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	BufferSize int

	// Commands, if set, receives payloads from TopicCommand.
	Commands Submitter

	Log *zap.SugaredLogger
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	log    *zap.SugaredLogger

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealPublisher creates a publisher for the given broker. An unreachable
// broker is not an error: paho keeps retrying and messages are buffered.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	if o.ClientID == "" {
		o.ClientID = "tile-floor"
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 100
	}
	if o.Log == nil {
		o.Log = zap.NewNop().Sugar()
	}

	p := &RealPublisher{
		log:    o.Log,
		buffer: newRingBuffer(o.BufferSize),
	}

	will, err := WillPayload(time.Now())
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warnw("mqtt connection lost", "error", err)
		}).
		SetOnConnectHandler(func(c paho.Client) {
			p.log.Infow("mqtt connected", "broker", o.Broker)
			if o.Commands != nil {
				p.subscribe(c, o.Commands)
			}
			go p.flush()
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		p.log.Warnw("mqtt broker not reachable yet, buffering", "broker", o.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func (p *RealPublisher) subscribe(c paho.Client, sub Submitter) {
	handle := CommandHandler(sub, p, CommandTimeout, p.log)
	token := c.Subscribe(TopicCommand, 1, func(_ paho.Client, m paho.Message) {
		// Submit blocks until the poll loop replies; keep paho's router free.
		go handle(m.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		p.log.Warnw("mqtt subscribe timeout", "topic", TopicCommand)
		return
	}
	if err := token.Error(); err != nil {
		p.log.Warnw("mqtt subscribe failed", "topic", TopicCommand, "error", err)
	}
}

// flush replays buffered messages after a reconnect.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	msgs := p.buffer.drainAll()
	p.mu.Unlock()

	if len(msgs) > 0 {
		p.log.Infow("mqtt replaying buffered messages", "count", len(msgs))
	}
	for _, m := range msgs {
		if err := p.send(m); err != nil {
			p.log.Warnw("mqtt replay failed", "topic", m.topic, "error", err)
		}
	}
}

func (p *RealPublisher) publish(m bufferedMsg) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		dropped := p.buffer.push(m)
		p.mu.Unlock()
		if dropped {
			p.log.Warnw("mqtt buffer full, dropping oldest", "capacity", len(p.buffer.buf))
		}
		return nil
	}
	return p.send(m)
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// Publish sends a gameplay notice. QoS 0, not retained.
func (p *RealPublisher) Publish(n game.Notice) error {
	payload, err := FormatPayload(n)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event. QoS 1 so lifecycle
// transitions are not lost.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// PublishResponse sends a command reply. QoS 1.
func (p *RealPublisher) PublishResponse(resp command.Response) error {
	payload, err := FormatResponse(resp)
	if err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	return p.publish(bufferedMsg{topic: TopicCommandResponse, payload: payload, qos: 1})
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a reconnect.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
