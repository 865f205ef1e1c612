// Package server implements unicast request/response over libp2p streams.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-varint"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/spacemeshos/go-sessionmesh/codec"
)

var (
	// ErrNotConnected is returned when peer is not connected.
	ErrNotConnected = errors.New("peer is not connected")
	// ErrRequestTooLarge is returned when a request exceeds the size limit.
	ErrRequestTooLarge = errors.New("request too large")
)

// Opt is a type to configure a server.
type Opt func(s *Server)

// WithTimeout configures stream timeout.
func WithTimeout(timeout time.Duration) Opt {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// WithLog configures logger for the server.
func WithLog(log *zap.Logger) Opt {
	return func(s *Server) {
		s.logger = log
	}
}

// WithRequestSizeLimit limits the size of accepted and sent requests.
func WithRequestSizeLimit(limit int) Opt {
	return func(s *Server) {
		s.requestLimit = limit
	}
}

// WithQueueSize parametrize number of message that will be kept in queue
// and eventually processed by server. Otherwise stream is closed immediately.
//
// Defaults to 100.
func WithQueueSize(size int) Opt {
	return func(s *Server) {
		s.queueSize = size
	}
}

// WithRequestsPerInterval parametrizes server rate limit.
//
// Defaults to 100 requests per second.
func WithRequestsPerInterval(n int, interval time.Duration) Opt {
	return func(s *Server) {
		s.requestsPerInterval = n
		s.interval = interval
	}
}

// Handler is a handler to be defined by the application.
type Handler func(context.Context, []byte) ([]byte, error)

// ServerError is used by the client to represent an error returned by the
// server.
type ServerError struct {
	msg string
}

func (*ServerError) Is(target error) bool {
	_, ok := target.(*ServerError)
	return ok
}

func (err *ServerError) Error() string {
	return fmt.Sprintf("peer error: %s", err.msg)
}

//go:generate scalegen -types Response

// Response is a server response.
type Response struct {
	Data  []byte `scale:"max=16777216"`
	Error string `scale:"max=1024"`
}

type peerIDKey struct{}

func withPeerID(ctx context.Context, peerID peer.ID) context.Context {
	return context.WithValue(ctx, peerIDKey{}, peerID)
}

// ContextPeerID retrieves the ID of the peer being served from the context.
func ContextPeerID(ctx context.Context) (peer.ID, bool) {
	id, ok := ctx.Value(peerIDKey{}).(peer.ID)
	return id, ok
}

// Server for the Handler.
type Server struct {
	logger              *zap.Logger
	protocol            string
	handler             Handler
	timeout             time.Duration
	requestLimit        int
	queueSize           int
	requestsPerInterval int
	interval            time.Duration

	metrics *tracker

	h host.Host
}

// New server for the handler.
func New(h host.Host, proto string, handler Handler, opts ...Opt) *Server {
	srv := &Server{
		logger:              zap.NewNop(),
		protocol:            proto,
		handler:             handler,
		h:                   h,
		timeout:             10 * time.Second,
		requestLimit:        1 << 20,
		queueSize:           100,
		requestsPerInterval: 100,
		interval:            time.Second,
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.metrics = newTracker(proto)
	return srv
}

type request struct {
	stream   network.Stream
	received time.Time
}

// Run accepts streams until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	limit := rate.NewLimiter(rate.Every(s.interval/time.Duration(s.requestsPerInterval)), s.requestsPerInterval)
	queue := make(chan request, s.queueSize)
	s.h.SetStreamHandler(protocol.ID(s.protocol), func(stream network.Stream) {
		select {
		case queue <- request{stream: stream, received: time.Now()}:
			s.metrics.accepted.Inc()
		default:
			s.metrics.dropped.Inc()
			stream.Close()
		}
	})
	defer s.h.RemoveStreamHandler(protocol.ID(s.protocol))

	var eg errgroup.Group
	eg.SetLimit(s.queueSize)
	for {
		select {
		case <-ctx.Done():
			eg.Wait()
			return nil
		case req := <-queue:
			if err := limit.Wait(ctx); err != nil {
				req.stream.Close()
				eg.Wait()
				return nil
			}
			eg.Go(func() error {
				if s.serve(ctx, req.stream) {
					s.metrics.completed.Inc()
				} else {
					s.metrics.failed.Inc()
				}
				s.metrics.serverLatency.Observe(time.Since(req.received).Seconds())
				return nil
			})
		}
	}
}

func (s *Server) serve(ctx context.Context, stream network.Stream) bool {
	defer stream.Close()
	_ = stream.SetDeadline(time.Now().Add(s.timeout))
	remote := stream.Conn().RemotePeer()
	rd := bufio.NewReader(stream)
	size, err := varint.ReadUvarint(rd)
	if err != nil {
		s.logger.Debug("initial read failed",
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Error(err),
		)
		return false
	}
	if size > uint64(s.requestLimit) {
		s.logger.Warn("request limit overflow",
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Int("limit", s.requestLimit),
			zap.Uint64("request", size),
		)
		_ = stream.Reset()
		return false
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(rd, buf); err != nil {
		s.logger.Debug("error reading request",
			zap.String("protocol", s.protocol),
			zap.Stringer("remotePeer", remote),
			zap.Error(err),
		)
		return false
	}
	var resp Response
	data, err := s.handler(withPeerID(ctx, remote), buf)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Data = data
	}
	wr := bufio.NewWriter(stream)
	if _, err := codec.EncodeTo(wr, &resp); err != nil {
		s.logger.Debug("failed to encode response", zap.Stringer("remotePeer", remote), zap.Error(err))
		return false
	}
	if err := wr.Flush(); err != nil {
		s.logger.Debug("failed to write response", zap.Stringer("remotePeer", remote), zap.Error(err))
		return false
	}
	return resp.Error == ""
}

// Request sends a binary request to the peer and waits for the response.
func (s *Server) Request(ctx context.Context, pid peer.ID, req []byte) ([]byte, error) {
	start := time.Now()
	data, err := s.request(ctx, pid, req)
	took := time.Since(start).Seconds()
	switch {
	case errors.Is(err, &ServerError{}):
		s.metrics.clientServerError.Inc()
		s.metrics.clientLatency.Observe(took)
	case err != nil:
		s.metrics.clientFailed.Inc()
		s.metrics.clientLatencyFailure.Observe(took)
	default:
		s.metrics.clientSucceeded.Inc()
		s.metrics.clientLatency.Observe(took)
	}
	s.logger.Debug("request execution time",
		zap.String("protocol", s.protocol),
		zap.Stringer("peer", pid),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	return data, err
}

func (s *Server) request(ctx context.Context, pid peer.ID, req []byte) ([]byte, error) {
	if len(req) > s.requestLimit {
		return nil, fmt.Errorf("%w: %d > %d", ErrRequestTooLarge, len(req), s.requestLimit)
	}
	if s.h.Network().Connectedness(pid) != network.Connected {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, pid)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	stream, err := s.h.NewStream(network.WithNoDial(ctx, "existing connection"), pid, protocol.ID(s.protocol))
	if err != nil {
		return nil, fmt.Errorf("open stream to %s: %w", pid, err)
	}
	defer stream.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetDeadline(deadline)
	}
	wr := bufio.NewWriter(stream)
	if _, err := wr.Write(varint.ToUvarint(uint64(len(req)))); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	if _, err := wr.Write(req); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	if err := wr.Flush(); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	var resp Response
	if _, err := codec.DecodeFrom(bufio.NewReader(stream), &resp); err != nil {
		return nil, fmt.Errorf("peer %s: %w", pid, err)
	}
	if resp.Error != "" {
		return nil, &ServerError{msg: resp.Error}
	}
	return resp.Data, nil
}
