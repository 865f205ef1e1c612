package session

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// Config of a session actor.
type Config struct {
	// Partition scopes the broadcast domain. Messages from other partitions
	// are dropped.
	Partition uint32 `mapstructure:"partition"`
	// LeaseTime is how long a session stays discoverable without an
	// announcement.
	LeaseTime time.Duration `mapstructure:"lease-time"`
	// PlayerLeaseTime is how long a member stays in the session without a
	// heartbeat. Every member uses a lease in
	// [PlayerLeaseTime-PlayerLeaseJitter, PlayerLeaseTime+PlayerLeaseJitter).
	PlayerLeaseTime   time.Duration `mapstructure:"player-lease-time"`
	PlayerLeaseJitter time.Duration `mapstructure:"player-lease-jitter"`
	// SyncInterval plays the role of a lease for the periodic fragment
	// broadcast: it happens within [0.2, 0.4) of it, and within
	// [0.02, 0.04) of it during an emergency.
	SyncInterval        time.Duration `mapstructure:"sync-interval"`
	RespawnDelay        time.Duration `mapstructure:"respawn-delay"`
	ErrorReportInterval time.Duration `mapstructure:"error-report-interval"`
	JoinTimeout         time.Duration `mapstructure:"join-timeout"`
	DigestCache         int           `mapstructure:"digest-cache"`
	QueueSize           int           `mapstructure:"queue-size"`
}

// DefaultConfig for a session actor.
func DefaultConfig() Config {
	return Config{
		LeaseTime:           30 * time.Second,
		PlayerLeaseTime:     10 * time.Minute,
		PlayerLeaseJitter:   time.Minute,
		SyncInterval:        20 * time.Second,
		RespawnDelay:        30 * time.Second,
		ErrorReportInterval: 5 * time.Second,
		JoinTimeout:         10 * time.Second,
		DigestCache:         1024,
		QueueSize:           256,
	}
}

// MarshalLogObject implements logging interface.
func (c *Config) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddUint32("partition", c.Partition)
	encoder.AddDuration("lease_time", c.LeaseTime)
	encoder.AddDuration("player_lease_time", c.PlayerLeaseTime)
	encoder.AddDuration("player_lease_jitter", c.PlayerLeaseJitter)
	encoder.AddDuration("sync_interval", c.SyncInterval)
	encoder.AddDuration("respawn_delay", c.RespawnDelay)
	return nil
}

// Status of the actor in the session lifecycle.
type Status uint8

const (
	// Unjoined actors only discover sessions.
	Unjoined Status = iota
	// JoinedNormal actors broadcast their fragment at the regular interval.
	JoinedNormal
	// JoinedEmergency actors learned that their own character was not seen
	// correctly by a peer and broadcast at the fast interval until a
	// broadcast succeeds.
	JoinedEmergency
)

func (s Status) String() string {
	switch s {
	case Unjoined:
		return "unjoined"
	case JoinedNormal:
		return "joined"
	case JoinedEmergency:
		return "emergency"
	}
	return "unknown"
}
