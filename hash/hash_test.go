package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSumIsStableAcrossPooledHashers(t *testing.T) {
	first := Sum([]byte("topic"), []byte("payload"))
	for range 10 {
		require.Equal(t, first, Sum([]byte("topic"), []byte("payload")))
	}
	require.Equal(t, first, Sum([]byte("topicpayload")))
	require.NotEqual(t, first, Sum([]byte("payload"), []byte("topic")))
}
