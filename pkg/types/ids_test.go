package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerID(t *testing.T) {
	id, priv, err := GeneratePeerID()
	require.NoError(t, err)
	require.NotNil(t, priv)
	assert.False(t, id.IsEmpty())

	t.Run("String_RoundTrip", func(t *testing.T) {
		parsed, err := ParsePeerID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("ShortString", func(t *testing.T) {
		assert.Len(t, id.ShortString(), 8)
		assert.True(t, len(id.String()) > 8)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, "", EmptyPeerID.String())
		assert.True(t, EmptyPeerID.IsEmpty())
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := json.Marshal(map[string]PeerID{"peer": id})
		require.NoError(t, err)

		var out map[string]PeerID
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, id, out["peer"])
	})
}

func TestParsePeerID_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyPeerID},
		{"not_base58", "0OIl", ErrInvalidPeerID},
		{"too_short", "3mJr7AoUXx2Wqd", ErrInvalidPeerID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePeerID(tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPeerIDFromBytes(t *testing.T) {
	_, err := PeerIDFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidPeerID)

	raw := make([]byte, 32)
	raw[0] = 7
	id, err := PeerIDFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, id.Bytes())
}

func TestContentKey_Validate(t *testing.T) {
	assert.NoError(t, ContentKey("file1").Validate())
	assert.ErrorIs(t, ContentKey("").Validate(), ErrEmptyContentKey)

	long := make([]byte, MaxContentKeyLen+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, ContentKey(long).Validate(), ErrContentKeyTooLong)
}
