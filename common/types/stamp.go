package types

import (
	"bytes"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/spacemeshos/go-scale"
)

// StampSize in bytes.
const StampSize = 16

// Stamp is an opaque identifier minted once for a character, house or session
// group. Stamps are never reused.
type Stamp [StampSize]byte

// EmptyStamp is a canonical empty Stamp.
var EmptyStamp Stamp

// NewStamp mints a fresh random stamp.
func NewStamp() Stamp {
	return Stamp(uuid.New())
}

// ParseStamp parses the canonical textual form produced by String.
func ParseStamp(s string) (Stamp, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return EmptyStamp, err
	}
	return Stamp(id), nil
}

// String returns the canonical textual form of the stamp.
func (s Stamp) String() string {
	return uuid.UUID(s).String()
}

// ShortString returns the first 5 characters of the hex encoded stamp, for logging purposes.
func (s Stamp) ShortString() string {
	return Shorten(hex.EncodeToString(s[:]), 5)
}

// Empty is true if stamp was never minted.
func (s Stamp) Empty() bool {
	return s == EmptyStamp
}

// Compare orders stamps bytewise.
func (s Stamp) Compare(other Stamp) int {
	return bytes.Compare(s[:], other[:])
}

// EncodeScale implements scale codec interface.
func (s *Stamp) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, s[:])
}

// DecodeScale implements scale codec interface.
func (s *Stamp) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, s[:])
}

// Shorten shortens a string to a specified length.
func Shorten(s string, maxlen int) string {
	if len(s) < maxlen {
		return s
	}
	return s[:maxlen]
}
