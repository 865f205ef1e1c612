package p2p

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/natefinch/atomic"
)

const keyFilename = "p2p.key"

type identityInfo struct {
	Key []byte
	ID  peer.ID
}

// EnsureIdentity loads the node's p2p key from dir, generating and storing a
// new one when the directory does not have it.
func EnsureIdentity(dir string) (crypto.PrivKey, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("ensure that directory %s exist: %w", dir, err)
	}
	path := filepath.Join(dir, keyFilename)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var info identityInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("decode identity from %s: %w", path, err)
		}
		key, err := crypto.UnmarshalEd25519PrivateKey(info.Key)
		if err != nil {
			return nil, fmt.Errorf("unmarshal private key from %s: %w", path, err)
		}
		return key, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read identity from %s: %w", path, err)
	}
	key, _, err := crypto.GenerateEd25519Key(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	id, err := peer.IDFromPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("derive peer id: %w", err)
	}
	raw, err := key.Raw()
	if err != nil {
		return nil, fmt.Errorf("raw private key: %w", err)
	}
	data, err = json.Marshal(identityInfo{Key: raw, ID: id})
	if err != nil {
		return nil, fmt.Errorf("encode identity: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("write identity to %s: %w", path, err)
	}
	return key, nil
}
