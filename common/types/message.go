package types

import (
	"errors"
	"fmt"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"
)

//go:generate scalegen -types Announcement,Query,JoinRequest,Joined,Left,Heartbeat,ErrorDetected

// ErrUnknownMessage is returned when decoding a message with an unknown kind.
var ErrUnknownMessage = errors.New("unknown message kind")

// MessageKind tags the body carried by a Message.
type MessageKind uint8

const (
	// AnnouncementMsg advertises that a session group is alive.
	AnnouncementMsg MessageKind = iota + 1
	// QueryMsg asks advertisers to announce soon.
	QueryMsg
	// JoinRequestMsg is sent by unicast to a session contact.
	JoinRequestMsg
	// FragmentMsg carries a periodic broadcast of a node's view.
	FragmentMsg
	// JoinedMsg informs the group about a new member.
	JoinedMsg
	// LeftMsg informs the group that a member left.
	LeftMsg
	// HeartbeatMsg refreshes a member's liveness lease.
	HeartbeatMsg
	// ErrorDetectedMsg asks every member to broadcast sooner.
	ErrorDetectedMsg
	// NotificationMsg carries the outcome of a local command.
	NotificationMsg
)

func (k MessageKind) String() string {
	switch k {
	case AnnouncementMsg:
		return "announcement"
	case QueryMsg:
		return "query"
	case JoinRequestMsg:
		return "join_request"
	case FragmentMsg:
		return "fragment"
	case JoinedMsg:
		return "joined"
	case LeftMsg:
		return "left"
	case HeartbeatMsg:
		return "heartbeat"
	case ErrorDetectedMsg:
		return "error_detected"
	case NotificationMsg:
		return "notification"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Body is the payload of a Message.
type Body interface {
	scale.Type
	Kind() MessageKind
}

// Message is the envelope for everything exchanged between nodes. Every
// message is scoped to a partition.
type Message struct {
	Partition uint32
	Group     Stamp
	Sender    Stamp
	Clock     Timestamp
	Body      Body
}

// MarshalLogObject implements logging interface.
func (m *Message) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("kind", m.Body.Kind().String())
	encoder.AddUint32("partition", m.Partition)
	encoder.AddString("group", m.Group.ShortString())
	encoder.AddString("sender", m.Sender.ShortString())
	encoder.AddUint64("clock", uint64(m.Clock))
	return nil
}

// Announcement advertises a session group. Contact is the libp2p peer id of
// the announcing member, used to send a join request.
type Announcement struct {
	Name    string `scale:"max=64"`
	Contact string `scale:"max=128"`
}

// Kind implements Body.
func (*Announcement) Kind() MessageKind { return AnnouncementMsg }

// Query is sent by an observer that needs to learn about groups quickly.
type Query struct{}

// Kind implements Body.
func (*Query) Kind() MessageKind { return QueryMsg }

// JoinRequest carries the joiner's character to the session contact.
type JoinRequest struct {
	Character Character
}

// Kind implements Body.
func (*JoinRequest) Kind() MessageKind { return JoinRequestMsg }

// Joined announces a new member to the group.
type Joined struct {
	Character Character
}

// Kind implements Body.
func (*Joined) Kind() MessageKind { return JoinedMsg }

// Left announces that a member left the group.
type Left struct {
	Character Stamp
}

// Kind implements Body.
func (*Left) Kind() MessageKind { return LeftMsg }

// Heartbeat refreshes the liveness lease of the sender.
type Heartbeat struct {
	Name string `scale:"max=64"`
}

// Kind implements Body.
func (*Heartbeat) Kind() MessageKind { return HeartbeatMsg }

// ErrorDetected reports that the sender could not resolve an entity that
// Subject is responsible for.
type ErrorDetected struct {
	Subject Stamp
}

// Kind implements Body.
func (*ErrorDetected) Kind() MessageKind { return ErrorDetectedMsg }

// EncodeScale implements scale codec interface.
func (m *Message) EncodeScale(enc *scale.Encoder) (total int, err error) {
	if m.Body == nil {
		return 0, errors.New("message without body")
	}
	{
		n, err := scale.EncodeByte(enc, byte(m.Body.Kind()))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact32(enc, m.Partition)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := m.Group.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := m.Sender.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, uint64(m.Clock))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := m.Body.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (m *Message) DecodeScale(dec *scale.Decoder) (total int, err error) {
	var kind MessageKind
	{
		field, n, err := scale.DecodeByte(dec)
		if err != nil {
			return total, err
		}
		total += n
		kind = MessageKind(field)
	}
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		m.Partition = field
	}
	{
		n, err := m.Group.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := m.Sender.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		m.Clock = Timestamp(field)
	}
	body, err := newBody(kind)
	if err != nil {
		return total, err
	}
	n, err := body.DecodeScale(dec)
	if err != nil {
		return total, err
	}
	m.Body = body
	return total + n, nil
}

func newBody(kind MessageKind) (Body, error) {
	switch kind {
	case AnnouncementMsg:
		return &Announcement{}, nil
	case QueryMsg:
		return &Query{}, nil
	case JoinRequestMsg:
		return &JoinRequest{}, nil
	case FragmentMsg:
		return &Fragment{}, nil
	case JoinedMsg:
		return &Joined{}, nil
	case LeftMsg:
		return &Left{}, nil
	case HeartbeatMsg:
		return &Heartbeat{}, nil
	case ErrorDetectedMsg:
		return &ErrorDetected{}, nil
	case NotificationMsg:
		return &Notification{}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, kind)
}
