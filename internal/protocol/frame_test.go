package protocol_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrCamelCode/orion/internal/protocol"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data, err := protocol.Encode(protocol.MethodLobbyPeerConnect, protocol.LobbyPeerConnect{
		LobbyID:  "AB1CD",
		PeerName: "peer0",
	})
	require.NoError(t, err)

	method, body, err := protocol.Decode(data)
	require.NoError(t, err)
	require.Equal(t, protocol.MethodLobbyPeerConnect, method)

	var p protocol.LobbyPeerConnect
	require.NoError(t, protocol.DecodePayload(body, &p))
	require.Equal(t, "AB1CD", p.LobbyID)
	require.Equal(t, "peer0", p.PeerName)
}

func TestEncodeEmptyObjectIsNonEmpty(t *testing.T) {
	data, err := protocol.Encode(protocol.MethodMediationSuccess, struct{}{})
	require.NoError(t, err)

	parts := strings.SplitN(string(data), ":", 2)
	require.Len(t, parts, 2)
	require.Equal(t, protocol.MethodMediationSuccess, parts[0])
	require.NotEmpty(t, parts[1])
}

func TestDecodeFrameShape(t *testing.T) {
	data, err := protocol.Encode("some_method", map[string]int{"a": 1})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "some_method:"))
	// Exactly one separator; the base64 alphabet never contains ':'.
	require.Equal(t, 1, strings.Count(string(data), ":"))
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"no_separator",
		":missingmethod",
		"method:!!!not-base64!!!",
		"method:bm90IGpzb24=", // "not json"
	}
	for _, c := range cases {
		_, _, err := protocol.Decode([]byte(c))
		require.ErrorIs(t, err, protocol.ErrMalformedFrame, "input %q", c)
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	method, body, err := protocol.Decode([]byte("ptpMediation_success:"))
	require.NoError(t, err)
	require.Equal(t, protocol.MethodMediationSuccess, method)
	require.Empty(t, body)
}
