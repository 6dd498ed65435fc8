// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package packet

import (
	"bytes"
	"fmt"
)

// Public key algorithm ids (RFC 4880, section 9.1).
const (
	AlgoRSA            = 1
	AlgoRSAEncryptOnly = 2
	AlgoRSASignOnly    = 3
	AlgoElgamal        = 16
	AlgoDSA            = 17
	AlgoECDH           = 18
	AlgoECDSA          = 19
	AlgoEdDSA          = 22
)

// MPI is an OpenPGP multi-precision integer: a 2-octet bit length followed
// by the big-endian magnitude.
type MPI struct {
	BitLength int
	Value     []byte
}

// Trimmed returns the magnitude with any leading zero octets stripped.
func (m MPI) Trimmed() []byte {
	v := m.Value
	for len(v) > 0 && v[0] == 0 {
		v = v[1:]
	}

	return v
}

// Curve identifies a named elliptic curve by its encoded object identifier.
type Curve struct {
	Name string
	OID  []byte

	// Native marks curves whose points travel in the compact native form
	// (0x40 prefix) rather than the uncompressed 0x04 form.
	Native bool
}

// Supported named curves. Anything else is an unsupported algorithm:
// fingerprints would still come out right, but keygrips would not, so the
// whole key is refused.
var curves = []Curve{
	{Name: "nistp256", OID: []byte{0x2A, 0x86, 0x48, 0xCE, 0x3D, 0x03, 0x01, 0x07}},
	{Name: "nistp384", OID: []byte{0x2B, 0x81, 0x04, 0x00, 0x22}},
	{Name: "nistp521", OID: []byte{0x2B, 0x81, 0x04, 0x00, 0x23}},
	{Name: "brainpoolP256r1", OID: []byte{0x2B, 0x24, 0x03, 0x03, 0x02, 0x08, 0x01, 0x01, 0x07}},
	{Name: "brainpoolP384r1", OID: []byte{0x2B, 0x24, 0x03, 0x03, 0x02, 0x08, 0x01, 0x01, 0x0B}},
	{Name: "brainpoolP512r1", OID: []byte{0x2B, 0x24, 0x03, 0x03, 0x02, 0x08, 0x01, 0x01, 0x0D}},
	{Name: "ed25519", OID: []byte{0x2B, 0x06, 0x01, 0x04, 0x01, 0xDA, 0x47, 0x0F, 0x01}, Native: true},
	{Name: "cv25519", OID: []byte{0x2B, 0x06, 0x01, 0x04, 0x01, 0x97, 0x55, 0x01, 0x05, 0x01}, Native: true},
}

// KeyMaterial is the closed union over supported public key parameter sets.
// Decoded once from a key packet body and immutable afterwards.
type KeyMaterial interface {
	// AlgorithmID is the OpenPGP algorithm id the material was decoded for.
	AlgorithmID() int

	keyMaterial()
}

// RSAMaterial carries an RSA modulus and public exponent.
type RSAMaterial struct {
	algo int

	N MPI
	E MPI
}

// DSAMaterial carries the DSA group parameters and public value.
type DSAMaterial struct {
	P MPI
	Q MPI
	G MPI
	Y MPI
}

// ElgamalMaterial carries the Elgamal group parameters and public value.
type ElgamalMaterial struct {
	P MPI
	G MPI
	Y MPI
}

// ECDSAMaterial carries a named curve and an uncompressed public point.
type ECDSAMaterial struct {
	Curve Curve
	Point []byte
}

// EdDSAMaterial carries a named Edwards curve and a native-form public point.
type EdDSAMaterial struct {
	Curve Curve
	Point []byte
}

// ECDHMaterial carries a named curve, a public point and the KDF parameters
// that follow it on the wire.
type ECDHMaterial struct {
	Curve Curve
	Point []byte

	// KDF holds the raw KDF parameter octets (reserved, hash id, cipher id).
	KDF []byte
}

func (m *RSAMaterial) AlgorithmID() int     { return m.algo }
func (m *DSAMaterial) AlgorithmID() int     { return AlgoDSA }
func (m *ElgamalMaterial) AlgorithmID() int { return AlgoElgamal }
func (m *ECDSAMaterial) AlgorithmID() int   { return AlgoECDSA }
func (m *EdDSAMaterial) AlgorithmID() int   { return AlgoEdDSA }
func (m *ECDHMaterial) AlgorithmID() int    { return AlgoECDH }

func (*RSAMaterial) keyMaterial()     {}
func (*DSAMaterial) keyMaterial()     {}
func (*ElgamalMaterial) keyMaterial() {}
func (*ECDSAMaterial) keyMaterial()   {}
func (*EdDSAMaterial) keyMaterial()   {}
func (*ECDHMaterial) keyMaterial()    {}

// readKeyMaterial decodes the algorithm-specific fields of a key packet
// body. The point encoding convention is selected by the algorithm id and
// curve, never guessed from the data.
func readKeyMaterial(algo int, br *byteReader) (KeyMaterial, error) {
	switch algo {
	case AlgoRSA, AlgoRSAEncryptOnly, AlgoRSASignOnly:
		n, err := br.mpi()
		if err != nil {
			return nil, err
		}

		e, err := br.mpi()
		if err != nil {
			return nil, err
		}

		return &RSAMaterial{algo: algo, N: n, E: e}, nil
	case AlgoDSA:
		var m DSAMaterial

		for _, dst := range []*MPI{&m.P, &m.Q, &m.G, &m.Y} {
			v, err := br.mpi()
			if err != nil {
				return nil, err
			}

			*dst = v
		}

		return &m, nil
	case AlgoElgamal:
		var m ElgamalMaterial

		for _, dst := range []*MPI{&m.P, &m.G, &m.Y} {
			v, err := br.mpi()
			if err != nil {
				return nil, err
			}

			*dst = v
		}

		return &m, nil
	case AlgoECDSA:
		curve, point, err := readCurvePoint(br, false)
		if err != nil {
			return nil, err
		}

		return &ECDSAMaterial{Curve: curve, Point: point}, nil
	case AlgoEdDSA:
		curve, point, err := readCurvePoint(br, true)
		if err != nil {
			return nil, err
		}

		return &EdDSAMaterial{Curve: curve, Point: point}, nil
	case AlgoECDH:
		curve, point, err := readCurvePoint(br, false)
		if err != nil {
			return nil, err
		}

		kdf, err := readKDF(br)
		if err != nil {
			return nil, err
		}

		return &ECDHMaterial{Curve: curve, Point: point, KDF: kdf}, nil
	default:
		return nil, fmt.Errorf("%w: algorithm id %d", ErrUnsupportedAlgorithm, algo)
	}
}

// readCurvePoint decodes the length-prefixed curve OID and the MPI-wrapped
// public point, validating the point prefix against the curve's convention.
func readCurvePoint(br *byteReader, edwardsOnly bool) (Curve, []byte, error) {
	oidLen, err := br.byte()
	if err != nil {
		return Curve{}, nil, err
	}

	oid, err := br.bytes(int(oidLen))
	if err != nil {
		return Curve{}, nil, err
	}

	curve, ok := curveByOID(oid)
	if !ok {
		return Curve{}, nil, fmt.Errorf("%w: curve OID %x", ErrUnsupportedAlgorithm, oid)
	}

	if edwardsOnly && !curve.Native {
		return Curve{}, nil, fmt.Errorf("%w: EdDSA over %s", ErrUnsupportedAlgorithm, curve.Name)
	}

	point, err := br.mpi()
	if err != nil {
		return Curve{}, nil, err
	}

	if err := checkPointPrefix(curve, point.Value); err != nil {
		return Curve{}, nil, err
	}

	return curve, point.Value, nil
}

// checkPointPrefix enforces the per-curve point encoding: native curves
// carry 0x40-prefixed compact points, Weierstrass curves carry SEC1 points.
func checkPointPrefix(curve Curve, point []byte) error {
	if len(point) == 0 {
		return fmt.Errorf("%w: empty EC point", ErrMalformedPacket)
	}

	if curve.Native {
		if point[0] != 0x40 {
			return fmt.Errorf("%w: %s point prefix 0x%02x, want native 0x40", ErrMalformedPacket, curve.Name, point[0])
		}

		return nil
	}

	switch point[0] {
	case 0x02, 0x03, 0x04:
		return nil
	}

	return fmt.Errorf("%w: %s point prefix 0x%02x", ErrMalformedPacket, curve.Name, point[0])
}

// readKDF decodes the ECDH KDF parameter block: a one-octet length followed
// by that many octets (reserved format id, hash id, cipher id).
func readKDF(br *byteReader) ([]byte, error) {
	size, err := br.byte()
	if err != nil {
		return nil, err
	}

	kdf, err := br.bytes(int(size))
	if err != nil {
		return nil, err
	}

	if len(kdf) < 3 || kdf[0] != 0x01 {
		return nil, fmt.Errorf("%w: ECDH KDF parameters %x", ErrMalformedPacket, kdf)
	}

	return kdf, nil
}

func curveByOID(oid []byte) (Curve, bool) {
	for _, c := range curves {
		if bytes.Equal(c.OID, oid) {
			return c, true
		}
	}

	return Curve{}, false
}

// byteReader is a bounds-checked cursor over a packet body. Overruns are
// malformed packets, not stream truncation: the framing layer has already
// delivered a complete body.
type byteReader struct {
	buf []byte
	off int
}

func (br *byteReader) byte() (byte, error) {
	if br.off >= len(br.buf) {
		return 0, fmt.Errorf("%w: body too short", ErrMalformedPacket)
	}

	b := br.buf[br.off]
	br.off++

	return b, nil
}

func (br *byteReader) bytes(n int) ([]byte, error) {
	if n < 0 || n > len(br.buf)-br.off {
		return nil, fmt.Errorf("%w: body too short", ErrMalformedPacket)
	}

	out := br.buf[br.off : br.off+n]
	br.off += n

	return out, nil
}

// mpi reads a multi-precision integer: 2-octet bit count, then the exact
// number of octets that bit count occupies.
func (br *byteReader) mpi() (MPI, error) {
	hi, err := br.byte()
	if err != nil {
		return MPI{}, err
	}

	lo, err := br.byte()
	if err != nil {
		return MPI{}, err
	}

	bits := int(hi)<<8 | int(lo)

	value, err := br.bytes((bits + 7) / 8)
	if err != nil {
		return MPI{}, err
	}

	return MPI{BitLength: bits, Value: value}, nil
}
