package session

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/spacemeshos/go-sessionmesh/store"
)

//go:generate mockgen -typed -package=session -destination=./mocks.go -source=./interface.go

// Requester delivers a request to a single peer and waits for the response.
type Requester interface {
	Request(ctx context.Context, pid peer.ID, req []byte) ([]byte, error)
}

// Store persists the own character between sessions.
type Store interface {
	Load(name string) (*store.Record, error)
	Save(rec *store.Record) error
}
