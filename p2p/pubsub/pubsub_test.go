package pubsub

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type inbox struct {
	mu       sync.Mutex
	messages map[peer.ID][]string
}

func (in *inbox) handler(self peer.ID) GossipHandler {
	return func(_ context.Context, _ peer.ID, msg []byte) error {
		in.mu.Lock()
		defer in.mu.Unlock()
		in.messages[self] = append(in.messages[self], string(msg))
		return nil
	}
}

func (in *inbox) received(id peer.ID, msg string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Contains(in.messages[id], msg)
}

func TestGossipPubSub(t *testing.T) {
	const topic = "/sm/1/session/group"
	mesh, err := mocknet.FullMeshConnected(3)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	in := &inbox{messages: map[peer.ID][]string{}}
	var pss []*GossipPubSub
	for _, h := range mesh.Hosts() {
		ps, err := New(ctx, zaptest.NewLogger(t), h, DefaultConfig())
		require.NoError(t, err)
		require.NoError(t, ps.Register(topic, in.handler(h.ID())))
		pss = append(pss, ps)
	}
	require.ErrorIs(t, pss[0].Register(topic, in.handler(mesh.Hosts()[0].ID())), ErrRegistered)
	require.Eventually(t, func() bool {
		for _, ps := range pss {
			if len(ps.Peers(topic)) != len(pss)-1 {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, pss[0].Publish(ctx, topic, []byte("first")))
	require.Eventually(t, func() bool {
		for _, h := range mesh.Hosts() {
			if !in.received(h.ID(), "first") {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond, "every member, publisher included, receives the message")

	require.NoError(t, pss[2].Unregister(topic))
	require.ErrorIs(t, pss[2].Unregister(topic), ErrNotRegistered)
	require.ErrorIs(t, pss[2].Publish(ctx, topic, []byte("nope")), ErrNotRegistered)

	require.NoError(t, pss[1].Publish(ctx, topic, []byte("second")))
	require.Eventually(t, func() bool {
		return in.received(mesh.Hosts()[0].ID(), "second")
	}, 5*time.Second, 10*time.Millisecond)
	require.False(t, in.received(mesh.Hosts()[2].ID(), "second"))

	require.NoError(t, pss[2].Register(topic, in.handler(mesh.Hosts()[2].ID())))
	require.NoError(t, pss[2].Publish(ctx, topic, []byte("third")))
	require.Eventually(t, func() bool {
		return in.received(mesh.Hosts()[2].ID(), "third")
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTopicKind(t *testing.T) {
	require.Equal(t, "presence", topicKind("/sm/0/presence"))
	require.Equal(t, "session", topicKind("/sm/12/session/abcdef"))
	require.Equal(t, "other", topicKind("other"))
}
