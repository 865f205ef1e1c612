package server

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

func TestServer(t *testing.T) {
	const limit = 1024

	mesh, err := mocknet.FullMeshConnected(3)
	require.NoError(t, err)
	proto := "/test/server"
	request := []byte("test request")
	testErr := errors.New("test error")

	handler := func(ctx context.Context, msg []byte) ([]byte, error) {
		peerID, found := ContextPeerID(ctx)
		if !found {
			return nil, errors.New("no peer id")
		}
		return append(msg, []byte(peerID)...), nil
	}
	errhandler := func(_ context.Context, _ []byte) ([]byte, error) {
		return nil, testErr
	}
	opts := []Opt{
		WithTimeout(time.Second),
		WithLog(zaptest.NewLogger(t)),
		WithRequestSizeLimit(limit),
	}
	client := New(mesh.Hosts()[0], proto, handler, opts...)
	srv1 := New(mesh.Hosts()[1], proto, handler, opts...)
	srv2 := New(mesh.Hosts()[2], proto, errhandler, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	noPeerID, found := ContextPeerID(ctx)
	require.Equal(t, peer.ID(""), noPeerID)
	require.False(t, found)
	var eg errgroup.Group
	eg.Go(func() error {
		return srv1.Run(ctx)
	})
	eg.Go(func() error {
		return srv2.Run(ctx)
	})
	require.Eventually(t, func() bool {
		for _, h := range mesh.Hosts()[1:] {
			if !slices.Contains(h.Mux().Protocols(), protocol.ID(proto)) {
				return false
			}
		}
		return true
	}, time.Second, 10*time.Millisecond)
	t.Cleanup(func() {
		cancel()
		eg.Wait()
	})

	t.Run("ReceiveMessage", func(t *testing.T) {
		before := testutil.ToFloat64(srv1.metrics.accepted)
		response, err := client.Request(ctx, mesh.Hosts()[1].ID(), request)
		require.NoError(t, err)
		expResponse := append(append([]byte{}, request...), []byte(mesh.Hosts()[0].ID())...)
		require.Equal(t, expResponse, response)
		require.Equal(t, before+1, testutil.ToFloat64(srv1.metrics.accepted))
	})
	t.Run("ReceiveError", func(t *testing.T) {
		_, err := client.Request(ctx, mesh.Hosts()[2].ID(), request)
		var srvErr *ServerError
		require.ErrorAs(t, err, &srvErr)
		require.ErrorContains(t, err, "peer error")
		require.ErrorContains(t, err, testErr.Error())
	})
	t.Run("NotConnected", func(t *testing.T) {
		_, err := client.Request(ctx, "unknown", request)
		require.ErrorIs(t, err, ErrNotConnected)
	})
	t.Run("limit overflow", func(t *testing.T) {
		_, err := client.Request(ctx, mesh.Hosts()[1].ID(), make([]byte, limit+1))
		require.ErrorIs(t, err, ErrRequestTooLarge)
	})
}

func TestQueued(t *testing.T) {
	mesh, err := mocknet.FullMeshConnected(2)
	require.NoError(t, err)

	var (
		queueSize = 10
		proto     = "/test/queued"
		wg        sync.WaitGroup
	)
	wg.Add(queueSize)
	client := New(mesh.Hosts()[0], proto, nil)
	srv := New(
		mesh.Hosts()[1],
		proto,
		func(_ context.Context, msg []byte) ([]byte, error) {
			return msg, nil
		},
		WithQueueSize(queueSize),
		WithRequestsPerInterval(queueSize, time.Second),
		WithLog(zaptest.NewLogger(t)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	var eg errgroup.Group
	eg.Go(func() error {
		return srv.Run(ctx)
	})
	t.Cleanup(func() {
		cancel()
		eg.Wait()
	})
	require.Eventually(t, func() bool {
		return slices.Contains(mesh.Hosts()[1].Mux().Protocols(), protocol.ID(proto))
	}, time.Second, 10*time.Millisecond)

	var failed sync.Map
	for i := 0; i < queueSize; i++ {
		go func() {
			defer wg.Done()
			if _, err := client.Request(ctx, mesh.Hosts()[1].ID(), []byte("ping")); err != nil {
				failed.Store(i, err)
			}
		}()
	}
	wg.Wait()
	failed.Range(func(key, value any) bool {
		t.Errorf("request %v failed: %v", key, value)
		return true
	})
}
