package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dep2p/go-fileshare/pkg/types"
)

func TestResponseChannel(t *testing.T) {
	var zero ResponseChannel
	assert.True(t, zero.IsZero())

	peer := types.PeerID{1}
	a := NewResponseChannel(peer)
	b := NewResponseChannel(peer)
	assert.False(t, a.IsZero())
	assert.NotEqual(t, a, b)
	assert.Equal(t, peer, a.Peer)
	assert.Equal(t, a.ID.String(), a.String())
}

func TestTokens_String(t *testing.T) {
	assert.Equal(t, "q7", QueryID(7).String())
	assert.Equal(t, "r42", RequestID(42).String())
}

func TestEventTypes(t *testing.T) {
	events := map[string]Event{
		TypeAdvertiseDone:   AdvertiseDone{},
		TypeDiscoverDone:    DiscoverDone{},
		TypeRequestDone:     RequestDone{},
		TypeInboundRequest:  InboundRequest{},
		TypeListenAddrAdded: ListenAddrAdded{},
		TypePeerConnected:   PeerConnected{},
	}
	for want, ev := range events {
		assert.Equal(t, want, ev.Type())
	}
}
