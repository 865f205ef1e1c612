package types

import (
	"fmt"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"
)

// Location is a tile on the open-world map.
type Location struct {
	X int32
	Y int32
}

func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.X, l.Y)
}

// MarshalLogObject implements logging interface.
func (l Location) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt32("x", l.X)
	encoder.AddInt32("y", l.Y)
	return nil
}

// EncodeScale implements scale codec interface.
func (l *Location) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeUint32(enc, uint32(l.X))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeUint32(enc, uint32(l.Y))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (l *Location) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeUint32(dec)
		if err != nil {
			return total, err
		}
		total += n
		l.X = int32(field)
	}
	{
		field, n, err := scale.DecodeUint32(dec)
		if err != nil {
			return total, err
		}
		total += n
		l.Y = int32(field)
	}
	return total, nil
}
