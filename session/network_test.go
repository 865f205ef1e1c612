package session

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-sessionmesh/codec"
	"github.com/spacemeshos/go-sessionmesh/common/types"
	"github.com/spacemeshos/go-sessionmesh/p2p/pubsub"
)

var errUnreachable = errors.New("peer unreachable")

// network delivers gossip synchronously to every registered handler, the
// publisher's included, and routes requests to the target's join handler.
type network struct {
	mu        sync.Mutex
	endpoints map[peer.ID]*endpoint
	isolated  map[peer.ID]bool
	log       []types.Message
}

func newNetwork() *network {
	return &network{
		endpoints: map[peer.ID]*endpoint{},
		isolated:  map[peer.ID]bool{},
	}
}

func randPeerID(tb testing.TB) peer.ID {
	tb.Helper()
	sk, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(tb, err)
	id, err := peer.IDFromPrivateKey(sk)
	require.NoError(tb, err)
	return id
}

func (n *network) join(tb testing.TB) *endpoint {
	ep := &endpoint{net: n, id: randPeerID(tb), handlers: map[string]pubsub.GossipHandler{}}
	n.mu.Lock()
	n.endpoints[ep.id] = ep
	n.mu.Unlock()
	return ep
}

// isolate stops delivery to and from the peer.
func (n *network) isolate(id peer.ID, isolated bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.isolated[id] = isolated
}

// published returns decoded messages of the given kind sent by sender.
func (n *network) published(sender types.Stamp, kind types.MessageKind) []types.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var rst []types.Message
	for _, msg := range n.log {
		if msg.Sender == sender && msg.Body.Kind() == kind {
			rst = append(rst, msg)
		}
	}
	return rst
}

func (n *network) notifications(sender types.Stamp, event types.NotificationKind) int {
	count := 0
	for _, msg := range n.published(sender, types.NotificationMsg) {
		if msg.Body.(*types.Notification).Event == event {
			count++
		}
	}
	return count
}

func (n *network) receivers(from peer.ID, topic string) []pubsub.GossipHandler {
	n.mu.Lock()
	defer n.mu.Unlock()
	var rst []pubsub.GossipHandler
	for id, ep := range n.endpoints {
		if id != from && (n.isolated[id] || n.isolated[from]) {
			continue
		}
		if h := ep.handler(topic); h != nil {
			rst = append(rst, h)
		}
	}
	return rst
}

type endpoint struct {
	net *network
	id  peer.ID

	mu       sync.Mutex
	handlers map[string]pubsub.GossipHandler
	serve    func(context.Context, []byte) ([]byte, error)
}

func (e *endpoint) handler(topic string) pubsub.GossipHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handlers[topic]
}

func (e *endpoint) Register(topic string, handler pubsub.GossipHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[topic] = handler
	return nil
}

func (e *endpoint) Unregister(topic string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers, topic)
	return nil
}

func (e *endpoint) Publish(ctx context.Context, topic string, data []byte) error {
	var msg types.Message
	if err := codec.Decode(data, &msg); err == nil {
		e.net.mu.Lock()
		e.net.log = append(e.net.log, msg)
		e.net.mu.Unlock()
	}
	for _, h := range e.net.receivers(e.id, topic) {
		_ = h(ctx, e.id, data)
	}
	return nil
}

func (e *endpoint) Request(ctx context.Context, pid peer.ID, req []byte) ([]byte, error) {
	e.net.mu.Lock()
	target, ok := e.net.endpoints[pid]
	cut := e.net.isolated[pid] || e.net.isolated[e.id]
	e.net.mu.Unlock()
	if !ok || cut {
		return nil, errUnreachable
	}
	target.mu.Lock()
	serve := target.serve
	target.mu.Unlock()
	if serve == nil {
		return nil, errUnreachable
	}
	return serve(ctx, req)
}
