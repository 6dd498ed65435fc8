// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package packet

import (
	"fmt"
	"time"
)

// Signature types relevant to key structure (RFC 4880, section 5.2.1).
const (
	SigTypeGenericCert  = 0x10
	SigTypePersonaCert  = 0x11
	SigTypeCasualCert   = 0x12
	SigTypePositiveCert = 0x13
	SigTypeSubkeyBind   = 0x18
)

// Signature subpacket types consumed by bundle construction.
const (
	subpacketCreationTime  = 2
	subpacketKeyExpiry     = 9
	subpacketIssuer        = 16
	subpacketPrimaryUserID = 25
	subpacketIssuerFpr     = 33
)

// Subpackets is a flat mapping from subpacket type to raw value. Subpackets
// do not nest; values are decoded lazily by the accessors that need them.
type Subpackets map[byte][]byte

// Signature is a decoded version-4 signature packet. Only the structural
// fields are interpreted; the signature MPIs themselves are retained
// unparsed since this package never verifies anything.
type Signature struct {
	Version int
	Type    byte

	CreatedAt time.Time

	Hashed   Subpackets
	Unhashed Subpackets
}

func (*Signature) packet() {}

// IsCertification reports whether the signature certifies a user id.
func (s *Signature) IsCertification() bool {
	return s.Type >= SigTypeGenericCert && s.Type <= SigTypePositiveCert
}

// KeyLifetime returns the key expiration period from the hashed area, if
// present. Absence means the key does not expire.
func (s *Signature) KeyLifetime() (time.Duration, bool) {
	v, ok := s.Hashed[subpacketKeyExpiry]
	if !ok || len(v) != 4 {
		return 0, false
	}

	return time.Duration(beUint32(v)) * time.Second, true
}

// PrimaryUserID reports whether the hashed area flags the certified user id
// as the primary one.
func (s *Signature) PrimaryUserID() bool {
	v, ok := s.Hashed[subpacketPrimaryUserID]

	return ok && len(v) == 1 && v[0] != 0
}

// IssuerKeyID returns the issuing key id as 16 uppercase hex digits, from
// the hashed issuer-fingerprint subpacket when available, otherwise from the
// issuer subpacket of either area.
func (s *Signature) IssuerKeyID() (string, bool) {
	if v, ok := s.Hashed[subpacketIssuerFpr]; ok && len(v) == 21 && v[0] == 4 {
		return fmt.Sprintf("%X", v[13:]), true
	}

	for _, area := range []Subpackets{s.Hashed, s.Unhashed} {
		if v, ok := area[subpacketIssuer]; ok && len(v) == 8 {
			return fmt.Sprintf("%X", v), true
		}
	}

	return "", false
}

// parseSignature decodes a version-4 signature packet body up to and
// including both subpacket areas.
func parseSignature(body []byte) (*Signature, error) {
	br := &byteReader{buf: body}

	version, err := br.byte()
	if err != nil {
		return nil, err
	}

	if version != 4 {
		return nil, fmt.Errorf("%w: signature version %d", ErrMalformedPacket, version)
	}

	sigType, err := br.byte()
	if err != nil {
		return nil, err
	}

	// Public key algorithm and hash algorithm octets: present, unused.
	if _, err := br.bytes(2); err != nil {
		return nil, err
	}

	hashed, err := readSubpacketArea(br)
	if err != nil {
		return nil, err
	}

	unhashed, err := readSubpacketArea(br)
	if err != nil {
		return nil, err
	}

	created, ok := hashed[subpacketCreationTime]
	if !ok || len(created) != 4 {
		return nil, fmt.Errorf("%w: signature lacks a creation time", ErrMalformedPacket)
	}

	return &Signature{
		Version:   int(version),
		Type:      sigType,
		CreatedAt: time.Unix(int64(beUint32(created)), 0).UTC(),
		Hashed:    hashed,
		Unhashed:  unhashed,
	}, nil
}

// readSubpacketArea decodes one 2-octet-length-prefixed subpacket area into
// a type to raw-value map. A duplicated type keeps the last occurrence.
func readSubpacketArea(br *byteReader) (Subpackets, error) {
	hi, err := br.byte()
	if err != nil {
		return nil, err
	}

	lo, err := br.byte()
	if err != nil {
		return nil, err
	}

	area, err := br.bytes(int(hi)<<8 | int(lo))
	if err != nil {
		return nil, err
	}

	out := Subpackets{}
	sub := &byteReader{buf: area}

	for sub.off < len(sub.buf) {
		length, err := subpacketLength(sub)
		if err != nil {
			return nil, err
		}

		if length == 0 {
			return nil, fmt.Errorf("%w: zero-length subpacket", ErrMalformedPacket)
		}

		raw, err := sub.bytes(length)
		if err != nil {
			return nil, err
		}

		// High bit of the type octet is the criticality flag.
		out[raw[0]&0x7F] = raw[1:]
	}

	return out, nil
}

// subpacketLength decodes the subpacket length field, which covers the type
// octet plus the value: one octet below 192, the two-octet form up to
// 16319, or 0xFF followed by four octets.
func subpacketLength(br *byteReader) (int, error) {
	b0, err := br.byte()
	if err != nil {
		return 0, err
	}

	switch {
	case b0 < 192:
		return int(b0), nil
	case b0 < 255:
		b1, err := br.byte()
		if err != nil {
			return 0, err
		}

		return (int(b0)-192)<<8 + int(b1) + 192, nil
	default:
		hi, err := br.bytes(4)
		if err != nil {
			return 0, err
		}

		return int(beUint32(hi)), nil
	}
}
