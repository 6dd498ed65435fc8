// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package packet

import (
	"crypto/sha1" //nolint:gosec // fingerprints and keygrips are defined over SHA-1
	"fmt"
	"time"
)

// PublicKey is a decoded key packet: a primary key or a subkey, public or
// secret. For secret key packets only the leading public portion is
// interpreted; the private material is never touched.
type PublicKey struct {
	Version   int
	CreatedAt time.Time
	Material  KeyMaterial

	// Subkey records whether the packet arrived under a subkey tag.
	Subkey bool

	fingerprint [20]byte
}

func (*PublicKey) packet() {}

// Fingerprint returns the 40-hex-digit uppercase v4 fingerprint.
func (k *PublicKey) Fingerprint() string {
	return fmt.Sprintf("%X", k.fingerprint[:])
}

// KeyID returns the 16-hex-digit key id, the low-order 8 bytes of the
// fingerprint.
func (k *PublicKey) KeyID() string {
	return fmt.Sprintf("%X", k.fingerprint[12:])
}

// parseKey decodes a key packet body shared by all four key tags. The
// version-4 fingerprint is the SHA-1 of the public portion framed by a 0x99
// octet and a 2-octet length, exactly as the portion appeared on the wire.
func parseKey(body []byte, subkey bool) (*PublicKey, error) {
	br := &byteReader{buf: body}

	version, err := br.byte()
	if err != nil {
		return nil, err
	}

	if version != 4 {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedKeyVersion, version)
	}

	created, err := br.bytes(4)
	if err != nil {
		return nil, err
	}

	algo, err := br.byte()
	if err != nil {
		return nil, err
	}

	material, err := readKeyMaterial(int(algo), br)
	if err != nil {
		return nil, err
	}

	public := body[:br.off]

	key := &PublicKey{
		Version:   int(version),
		CreatedAt: time.Unix(int64(beUint32(created)), 0).UTC(),
		Material:  material,
		Subkey:    subkey,
	}

	h := sha1.New() //nolint:gosec
	h.Write([]byte{0x99, byte(len(public) >> 8), byte(len(public))})
	h.Write(public)
	copy(key.fingerprint[:], h.Sum(nil))

	return key, nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
