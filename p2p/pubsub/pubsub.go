// Package pubsub delivers messages to every node attached to a named topic.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	pb "github.com/libp2p/go-libp2p-pubsub/pb"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-sessionmesh/hash"
)

var (
	// ErrValidationReject is returned by a handler for malformed messages.
	// The sending peer is disconnected.
	ErrValidationReject = errors.New("validation reject")
	// ErrNotRegistered is returned when publishing to a topic without a handler.
	ErrNotRegistered = errors.New("topic is not registered")
	// ErrRegistered is returned when registering a topic twice.
	ErrRegistered = errors.New("topic is already registered")
)

// GossipHandler receives every message published on a topic, including
// messages published by this node. Handlers run synchronously before the
// message is relayed further.
type GossipHandler = func(context.Context, peer.ID, []byte) error

// Publisher publishes messages.
type Publisher interface {
	Publish(context.Context, string, []byte) error
}

// Subscriber attaches and detaches handlers for topics.
type Subscriber interface {
	Register(string, GossipHandler) error
	Unregister(string) error
}

// PublishSubscriber common interface for publisher and subscribing.
type PublishSubscriber interface {
	Publisher
	Subscriber
}

// Config for PubSub.
type Config struct {
	Flood          bool `mapstructure:"flood"`
	MaxMessageSize int  `mapstructure:"max-message-size"`
}

// DefaultConfig for PubSub.
func DefaultConfig() Config {
	return Config{Flood: true, MaxMessageSize: 2 << 20}
}

// GossipPubSub is a wrapper around gossipsub that dispatches messages through
// topic validators.
type GossipPubSub struct {
	logger *zap.Logger
	pubsub *pubsub.PubSub
	host   host.Host

	mu sync.RWMutex
	// handles are kept after unregistering, a topic can be joined only once.
	handles map[string]*pubsub.Topic
	relays  map[string]pubsub.RelayCancelFunc
}

var _ PublishSubscriber = (*GossipPubSub)(nil)

// New creates PubSub instance.
func New(ctx context.Context, logger *zap.Logger, h host.Host, cfg Config) (*GossipPubSub, error) {
	ps, err := pubsub.NewGossipSub(ctx, h, getOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gossipsub instance: %w", err)
	}
	return &GossipPubSub{
		logger:  logger,
		pubsub:  ps,
		host:    h,
		handles: map[string]*pubsub.Topic{},
		relays:  map[string]pubsub.RelayCancelFunc{},
	}, nil
}

// Register joins a topic and installs handler for it.
func (ps *GossipPubSub) Register(topic string, handler GossipHandler) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, exist := ps.relays[topic]; exist {
		return fmt.Errorf("%w: %s", ErrRegistered, topic)
	}
	kind := topicKind(topic)
	self := ps.host.ID()
	err := ps.pubsub.RegisterTopicValidator(
		topic,
		func(ctx context.Context, pid peer.ID, msg *pubsub.Message) pubsub.ValidationResult {
			start := time.Now()
			err := handler(ctx, pid, msg.Data)
			processed.WithLabelValues(kind, castResult(err)).Observe(time.Since(start).Seconds())
			switch {
			case errors.Is(err, ErrValidationReject):
				ps.logger.Debug("rejected gossip message",
					zap.String("topic", topic),
					zap.Stringer("peer", pid),
					zap.Error(err),
				)
				if pid != self {
					_ = ps.host.Network().ClosePeer(pid)
				}
				return pubsub.ValidationReject
			case err != nil:
				ps.logger.Debug("ignored gossip message",
					zap.String("topic", topic),
					zap.Stringer("peer", pid),
					zap.Error(err),
				)
				return pubsub.ValidationIgnore
			default:
				return pubsub.ValidationAccept
			}
		},
	)
	if err != nil {
		return fmt.Errorf("register validator for %s: %w", topic, err)
	}
	topich, err := ps.handleLocked(topic)
	if err != nil {
		_ = ps.pubsub.UnregisterTopicValidator(topic)
		return err
	}
	relay, err := topich.Relay()
	if err != nil {
		_ = ps.pubsub.UnregisterTopicValidator(topic)
		return fmt.Errorf("relay topic %s: %w", topic, err)
	}
	ps.relays[topic] = relay
	ps.logger.Debug("registered topic", zap.String("topic", topic))
	return nil
}

// Unregister leaves a topic. Messages for it are no longer delivered.
func (ps *GossipPubSub) Unregister(topic string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	relay, exist := ps.relays[topic]
	if !exist {
		return fmt.Errorf("%w: %s", ErrNotRegistered, topic)
	}
	delete(ps.relays, topic)
	relay()
	if err := ps.pubsub.UnregisterTopicValidator(topic); err != nil {
		return fmt.Errorf("unregister validator for %s: %w", topic, err)
	}
	ps.logger.Debug("unregistered topic", zap.String("topic", topic))
	return nil
}

func (ps *GossipPubSub) handleLocked(topic string) (*pubsub.Topic, error) {
	if topich, ok := ps.handles[topic]; ok {
		return topich, nil
	}
	topich, err := ps.pubsub.Join(topic)
	if err != nil {
		return nil, fmt.Errorf("join topic %s: %w", topic, err)
	}
	ps.handles[topic] = topich
	return topich, nil
}

// Publish message to the topic.
func (ps *GossipPubSub) Publish(ctx context.Context, topic string, msg []byte) error {
	ps.mu.RLock()
	_, registered := ps.relays[topic]
	topich := ps.handles[topic]
	ps.mu.RUnlock()
	if !registered {
		return fmt.Errorf("%w: %s", ErrNotRegistered, topic)
	}
	if err := topich.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to topic %v: %w", topic, err)
	}
	published.WithLabelValues(topicKind(topic)).Inc()
	return nil
}

// Peers returns peers subscribed to a topic.
func (ps *GossipPubSub) Peers(topic string) []peer.ID {
	return ps.pubsub.ListPeers(topic)
}

// topicKind drops variable parts of a topic name for metric labels.
// "/sm/3/session/<group>" becomes "session".
func topicKind(topic string) string {
	parts := strings.Split(strings.TrimPrefix(topic, "/"), "/")
	if len(parts) >= 3 {
		return parts[2]
	}
	return topic
}

func castResult(err error) string {
	switch {
	case err == nil:
		return "accept"
	case errors.Is(err, ErrValidationReject):
		return "reject"
	default:
		return "ignore"
	}
}

func msgID(msg *pb.Message) string {
	digest := hash.Sum([]byte(msg.GetTopic()), msg.Data)
	return string(digest[:])
}

func getOptions(cfg Config) []pubsub.Option {
	options := []pubsub.Option{
		pubsub.WithFloodPublish(cfg.Flood),
		pubsub.WithMessageIdFn(msgID),
		pubsub.WithNoAuthor(),
		pubsub.WithMessageSignaturePolicy(pubsub.StrictNoSign),
		pubsub.WithPeerOutboundQueueSize(1024),
		pubsub.WithValidateQueueSize(1024),
	}
	if cfg.MaxMessageSize != 0 {
		options = append(options, pubsub.WithMaxMessageSize(cfg.MaxMessageSize))
	}
	return options
}
