// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package packet

// Packet is a decoded packet: *PublicKey, *UserID or *Signature.
type Packet interface {
	packet()
}

// Decode interprets a raw packet according to its tag. Tags irrelevant to
// key structure (trust, user attributes, marker packets and so on) decode to
// nil with no error; a recognized tag whose body does not decode is a
// terminal failure, since it indicates corrupted key material.
func Decode(raw *RawPacket) (Packet, error) {
	switch raw.Tag {
	case TagPublicKey, TagSecretKey:
		return parseKey(raw.Body, false)
	case TagPublicSubkey, TagSecretSubkey:
		return parseKey(raw.Body, true)
	case TagUserID:
		return parseUserID(raw.Body), nil
	case TagSignature:
		return parseSignature(raw.Body)
	default:
		return nil, nil
	}
}
