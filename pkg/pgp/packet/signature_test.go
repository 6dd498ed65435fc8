// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package packet_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfold/gpg-import/pkg/pgp/packet"
)

// subpacket encodes one subpacket with a single-octet length.
func subpacket(typ byte, value ...byte) []byte {
	return append([]byte{byte(len(value) + 1), typ}, value...)
}

// sigBody assembles a version-4 signature packet body around the given
// subpacket areas.
func sigBody(sigType byte, hashed, unhashed []byte) []byte {
	body := []byte{4, sigType, packet.AlgoEdDSA, 8}
	body = append(body, byte(len(hashed)>>8), byte(len(hashed)))
	body = append(body, hashed...)
	body = append(body, byte(len(unhashed)>>8), byte(len(unhashed)))
	body = append(body, unhashed...)

	// Left 16 bits of the hash and the signature MPI, present but never
	// interpreted.
	return append(body, 0x12, 0x34, 0x00, 0x08, 0xFF)
}

func decodeSignature(t *testing.T, body []byte) *packet.Signature {
	t.Helper()

	pkt, err := packet.Decode(&packet.RawPacket{Tag: packet.TagSignature, Body: body})
	require.NoError(t, err)

	sig, ok := pkt.(*packet.Signature)
	require.True(t, ok)

	return sig
}

func TestDecodeSignature(t *testing.T) {
	created := time.Date(2023, 7, 14, 9, 30, 0, 0, time.UTC)

	hashed := subpacket(2, beTime(created)...)
	hashed = append(hashed, subpacket(9, 0x00, 0x01, 0x51, 0x80)...) // 86400 seconds
	hashed = append(hashed, subpacket(25, 1)...)

	issuer := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	unhashed := subpacket(16, issuer...)

	sig := decodeSignature(t, sigBody(packet.SigTypePositiveCert, hashed, unhashed))

	assert.Equal(t, 4, sig.Version)
	assert.Equal(t, byte(packet.SigTypePositiveCert), sig.Type)
	assert.Equal(t, created, sig.CreatedAt)
	assert.True(t, sig.IsCertification())
	assert.True(t, sig.PrimaryUserID())

	lifetime, ok := sig.KeyLifetime()
	require.True(t, ok)
	assert.Equal(t, 24*time.Hour, lifetime)

	keyID, ok := sig.IssuerKeyID()
	require.True(t, ok)
	assert.Equal(t, "0102030405060708", keyID)
}

func TestSignatureIssuerFingerprintWins(t *testing.T) {
	created := time.Date(2023, 7, 14, 9, 30, 0, 0, time.UTC)

	fpr := append([]byte{4}, bytes.Repeat([]byte{0xCD}, 20)...)

	hashed := subpacket(2, beTime(created)...)
	hashed = append(hashed, subpacket(33, fpr...)...)

	unhashed := subpacket(16, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08)

	sig := decodeSignature(t, sigBody(packet.SigTypeSubkeyBind, hashed, unhashed))

	assert.False(t, sig.IsCertification())

	keyID, ok := sig.IssuerKeyID()
	require.True(t, ok)
	assert.Equal(t, "CDCDCDCDCDCDCDCD", keyID)
}

func TestSignatureCriticalSubpacket(t *testing.T) {
	created := time.Date(2023, 7, 14, 9, 30, 0, 0, time.UTC)

	// Criticality bit set on the creation time subpacket.
	hashed := subpacket(2|0x80, beTime(created)...)

	sig := decodeSignature(t, sigBody(packet.SigTypeGenericCert, hashed, nil))

	assert.Equal(t, created, sig.CreatedAt)
}

func TestSignatureDefaults(t *testing.T) {
	created := time.Date(2023, 7, 14, 9, 30, 0, 0, time.UTC)

	sig := decodeSignature(t, sigBody(packet.SigTypeGenericCert, subpacket(2, beTime(created)...), nil))

	_, ok := sig.KeyLifetime()
	assert.False(t, ok)

	assert.False(t, sig.PrimaryUserID())

	_, ok = sig.IssuerKeyID()
	assert.False(t, ok)
}

func TestDecodeSignatureErrors(t *testing.T) {
	created := time.Date(2023, 7, 14, 9, 30, 0, 0, time.UTC)

	v3 := sigBody(packet.SigTypePositiveCert, subpacket(2, beTime(created)...), nil)
	v3[0] = 3

	for _, tt := range []struct {
		name string
		body []byte
	}{
		{name: "version 3", body: v3},
		{name: "no creation time", body: sigBody(packet.SigTypePositiveCert, subpacket(25, 1), nil)},
		{name: "zero-length subpacket", body: sigBody(packet.SigTypePositiveCert, []byte{0}, nil)},
		{name: "subpacket area overrun", body: []byte{4, 0x13, 22, 8, 0xFF, 0xFF}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := packet.Decode(&packet.RawPacket{Tag: packet.TagSignature, Body: tt.body})
			assert.ErrorIs(t, err, packet.ErrMalformedPacket)
		})
	}
}
