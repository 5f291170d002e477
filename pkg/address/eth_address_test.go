package address

import (
	"errors"
	"strings"
	"testing"

	"arb-client/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"checksummed balance address", "0x51F14ab69C8f748F72b6DB1Aa66875faf7c24Bd2"},
		{"checksummed default recipient", "0x741CD80d41eDE318feD4010E296704a061f4115a"},
		{"checksummed token contract", "0x75faf114eafb1BDbe2F0316DF893fd58CE46AA4d"},
		{"all lower case", "0x51f14ab69c8f748f72b6db1aa66875faf7c24bd2"},
		{"all upper case", "0x51F14AB69C8F748F72B6DB1AA66875FAF7C24BD2"},
		{"no prefix", "51F14ab69C8f748F72b6DB1Aa66875faf7c24Bd2"},
		{"surrounding spaces", "  0x51F14ab69C8f748F72b6DB1Aa66875faf7c24Bd2 "},
	}

	want := common.HexToAddress("0x51F14ab69C8f748F72b6DB1Aa66875faf7c24Bd2")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			if strings.Contains(strings.ToLower(tt.input), "51f14ab6") {
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"one digit short", "0x51F14ab69C8f748F72b6DB1Aa66875faf7c24Bd"},
		{"one digit long", "0x51F14ab69C8f748F72b6DB1Aa66875faf7c24Bd22"},
		{"bad checksum", "0x51f14ab69C8f748F72b6DB1Aa66875faf7c24Bd2"},
		{"non hex", "0xZZF14ab69C8f748F72b6DB1Aa66875faf7c24Bd2"},
		{"empty", ""},
		{"prefix only", "0x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errno.ErrInvalidAddress))
			assert.Contains(t, err.Error(), tt.input)
		})
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	for _, s := range []string{
		"0x51F14ab69C8f748F72b6DB1Aa66875faf7c24Bd2",
		"0x741CD80d41eDE318feD4010E296704a061f4115a",
		"0x75faf114eafb1BDbe2F0316DF893fd58CE46AA4d",
	} {
		addr, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, addr.Hex())
	}
}

func TestPubKeyToAddress(t *testing.T) {
	key, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)

	got, err := PubKeyToAddress(crypto.FromECDSAPub(&key.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), got)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", got.Hex())

	_, err = PubKeyToAddress([]byte{0x04, 0x01})
	assert.True(t, errors.Is(err, errno.ErrInvalidAddress))
}
