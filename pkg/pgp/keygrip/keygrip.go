// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package keygrip derives the keyring agent's 20-byte key identifier from
// public key parameters alone. Unlike a fingerprint, a keygrip is
// independent of the key's creation time, identity and signatures: the same
// parameters always grip the same, which is what lets an agent preset a
// passphrase for a key before ever seeing its certificates.
package keygrip

import (
	"crypto/sha1" //nolint:gosec // the grip format is defined over SHA-1
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/keyfold/gpg-import/pkg/pgp/packet"
)

// Compute derives the 40-hex-digit uppercase keygrip for the given key
// material.
func Compute(material packet.KeyMaterial) (string, error) {
	h := sha1.New() //nolint:gosec

	switch m := material.(type) {
	case *packet.RSAMaterial:
		// RSA grips hash the bare modulus in its signed form, without
		// any framing.
		h.Write(signed(m.N.Trimmed()))
	case *packet.DSAMaterial:
		writeElement(h, 'p', signed(m.P.Trimmed()))
		writeElement(h, 'q', signed(m.Q.Trimmed()))
		writeElement(h, 'g', signed(m.G.Trimmed()))
		writeElement(h, 'y', signed(m.Y.Trimmed()))
	case *packet.ElgamalMaterial:
		writeElement(h, 'p', signed(m.P.Trimmed()))
		writeElement(h, 'g', signed(m.G.Trimmed()))
		writeElement(h, 'y', signed(m.Y.Trimmed()))
	case *packet.ECDSAMaterial:
		if err := writeCurve(h, m.Curve, m.Point); err != nil {
			return "", err
		}
	case *packet.EdDSAMaterial:
		if err := writeCurve(h, m.Curve, m.Point); err != nil {
			return "", err
		}
	case *packet.ECDHMaterial:
		// KDF parameters are key-usage metadata, not key material: they
		// never contribute to the grip.
		if err := writeCurve(h, m.Curve, m.Point); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("keygrip: no grip defined for algorithm id %d", material.AlgorithmID())
	}

	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

// signed converts a magnitude to the signed integer form the agent hashes:
// a leading zero octet is prepended whenever the top bit is set, so the
// value never reads as negative.
func signed(value []byte) []byte {
	if len(value) == 0 {
		return []byte{0}
	}

	if value[0]&0x80 != 0 {
		return append([]byte{0}, value...)
	}

	return value
}

// writeElement hashes one named parameter in the agent's framed form:
// "(1:<name><decimal length>:<value>)".
func writeElement(h hash.Hash, name byte, value []byte) {
	fmt.Fprintf(h, "(1:%c%d:", name, len(value))
	h.Write(value)
	h.Write([]byte{')'})
}

// writeCurve hashes the framed domain parameter set of the named curve
// followed by the public point: p, a, b, g, n, q, with the cofactor left
// out. Constants enter as minimal unsigned magnitudes (negative ones by
// absolute value). Edwards-family points shed their 0x40 prefix; Weierstrass
// points are hashed in uncompressed form as-is.
func writeCurve(h hash.Hash, curve packet.Curve, point []byte) error {
	params, ok := ecCurves[curve.Name]
	if !ok {
		return fmt.Errorf("keygrip: no domain parameters for curve %s", curve.Name)
	}

	q := point

	if curve.Native {
		if len(point) == 0 || point[0] != 0x40 {
			return fmt.Errorf("keygrip: %s point is not in native form", curve.Name)
		}

		q = point[1:]
	} else {
		if len(point) == 0 || point[0] != 0x04 {
			// Compressed Weierstrass points cannot be canonicalized
			// without curve arithmetic this package does not perform.
			return fmt.Errorf("keygrip: %s point is not uncompressed", curve.Name)
		}
	}

	writeElement(h, 'p', params.p)
	writeElement(h, 'a', params.a)
	writeElement(h, 'b', params.b)
	writeElement(h, 'g', params.g)
	writeElement(h, 'n', params.n)
	writeElement(h, 'q', q)

	return nil
}

// ecParams holds the domain constants hashed into an EC grip: field prime,
// curve coefficients, base point in uncompressed form and group order.
type ecParams struct {
	p, a, b, g, n []byte
}

// ecCurves carries the grip constants for every curve the packet layer
// admits, keyed by curve name.
var ecCurves = map[string]ecParams{
	"nistp256": {
		p: mustHex("ffffffff00000001000000000000000000000000ffffffffffffffffffffffff"),
		a: mustHex("ffffffff00000001000000000000000000000000fffffffffffffffffffffffc"),
		b: mustHex("5ac635d8aa3a93e7b3ebbd55769886bc651d06b0cc53b0f63bce3c3e27d2604b"),
		g: mustHex("046b17d1f2e12c4247f8bce6e563a440f277037d812deb33a0f4a13945d898c296" +
			"4fe342e2fe1a7f9b8ee7eb4a7c0f9e162bce33576b315ececbb6406837bf51f5"),
		n: mustHex("ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551"),
	},
	"nistp384": {
		p: mustHex("fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe" +
			"ffffffff0000000000000000ffffffff"),
		a: mustHex("fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe" +
			"ffffffff0000000000000000fffffffc"),
		b: mustHex("b3312fa7e23ee7e4988e056be3f82d19181d9c6efe8141120314088f5013875a" +
			"c656398d8a2ed19d2a85c8edd3ec2aef"),
		g: mustHex("04aa87ca22be8b05378eb1c71ef320ad746e1d3b628ba79b9859f741e082542a38" +
			"5502f25dbf55296c3a545e3872760ab73617de4a96262c6f5d9e98bf9292dc29" +
			"f8f41dbd289a147ce9da3113b5f0b8c00a60b1ce1d7e819d7a431d7c90ea0e5f"),
		n: mustHex("ffffffffffffffffffffffffffffffffffffffffffffffffc7634d81f4372ddf" +
			"581a0db248b0a77aecec196accc52973"),
	},
	"nistp521": {
		p: mustHex("01ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff" +
			"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff" +
			"ffff"),
		a: mustHex("01ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff" +
			"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff" +
			"fffc"),
		b: mustHex("51953eb9618e1c9a1f929a21a0b68540eea2da725b99b315f3b8b489918ef109" +
			"e156193951ec7e937b1652c0bd3bb1bf073573df883d2c34f1ef451fd46b503f" +
			"00"),
		g: mustHex("0400c6858e06b70404e9cd9e3ecb662395b4429c648139053fb521f828af606b4d" +
			"3dbaa14b5e77efe75928fe1dc127a2ffa8de3348b3c1856a429bf97e7e31c2e5" +
			"bd66011839296a789a3bc0045c8a5fb42c7d1bd998f54449579b446817afbd17" +
			"273e662c97ee72995ef42640c550b9013fad0761353c7086a272c24088be9476" +
			"9fd16650"),
		n: mustHex("01ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff" +
			"fffa51868783bf2f966b7fcc0148f709a5d03bb5c9b8899c47aebb6fb71e9138" +
			"6409"),
	},
	"brainpoolP256r1": {
		p: mustHex("a9fb57dba1eea9bc3e660a909d838d726e3bf623d52620282013481d1f6e5377"),
		a: mustHex("7d5a0975fc2c3057eef67530417affe7fb8055c126dc5c6ce94a4b44f330b5d9"),
		b: mustHex("26dc5c6ce94a4b44f330b5d9bbd77cbf958416295cf7e1ce6bccdc18ff8c07b6"),
		g: mustHex("048bd2aeb9cb7e57cb2c4b482ffc81b7afb9de27e1e3bd23c23a4453bd9ace3262" +
			"547ef835c3dac4fd97f8461a14611dc9c27745132ded8e545c1d54c72f046997"),
		n: mustHex("a9fb57dba1eea9bc3e660a909d838d718c397aa3b561a6f7901e0e82974856a7"),
	},
	"brainpoolP384r1": {
		p: mustHex("8cb91e82a3386d280f5d6f7e50e641df152f7109ed5456b412b1da197fb71123" +
			"acd3a729901d1a71874700133107ec53"),
		a: mustHex("7bc382c63d8c150c3c72080ace05afa0c2bea28e4fb22787139165efba91f90f" +
			"8aa5814a503ad4eb04a8c7dd22ce2826"),
		b: mustHex("04a8c7dd22ce28268b39b55416f0447c2fb77de107dcd2a62e880ea53eeb62d5" +
			"7cb4390295dbc9943ab78696fa504c11"),
		g: mustHex("041d1c64f068cf45ffa2a63a81b7c13f6b8847a3e77ef14fe3db7fcafe0cbd10e8" +
			"e826e03436d646aaef87b2e247d4af1e8abe1d7520f9c2a45cb1eb8e95cfd552" +
			"62b70b29feec5864e19c054ff99129280e4646217791811142820341263c5315"),
		n: mustHex("8cb91e82a3386d280f5d6f7e50e641df152f7109ed5456b31f166e6cac0425a7" +
			"cf3ab6af6b7fc3103b883202e9046565"),
	},
	"brainpoolP512r1": {
		p: mustHex("aadd9db8dbe9c48b3fd4e6ae33c9fc07cb308db3b3c9d20ed6639cca70330871" +
			"7d4d9b009bc66842aecda12ae6a380e62881ff2f2d82c68528aa6056583a48f3"),
		a: mustHex("7830a3318b603b89e2327145ac234cc594cbdd8d3df91610a83441caea9863bc" +
			"2ded5d5aa8253aa10a2ef1c98b9ac8b57f1117a72bf2c7b9e7c1ac4d77fc94ca"),
		b: mustHex("3df91610a83441caea9863bc2ded5d5aa8253aa10a2ef1c98b9ac8b57f1117a7" +
			"2bf2c7b9e7c1ac4d77fc94cadc083e67984050b75ebae5dd2809bd638016f723"),
		g: mustHex("0481aee4bdd82ed9645a21322e9c4c6a9385ed9f70b5d916c1b43b62eef4d0098e" +
			"ff3b1f78e2d0d48d50d1687b93b97d5f7c6d5047406a5e688b352209bcb9f822" +
			"7dde385d566332ecc0eabfa9cf7822fdf209f70024a57b1aa000c55b881f8111" +
			"b2dcde494a5f485e5bca4bd88a2763aed1ca2b2fa8f0540678cd1e0f3ad80892"),
		n: mustHex("aadd9db8dbe9c48b3fd4e6ae33c9fc07cb308db3b3c9d20ed6639cca70330870" +
			"553e5c414ca92619418661197fac10471db1d381085ddaddb58796829ca90069"),
	},
	// a = -1 and b = d enter by absolute value.
	"ed25519": {
		p: mustHex("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffed"),
		a: mustHex("01"),
		b: mustHex("2dfc9311d490018c7338bf8688861767ff8ff5b2bebe27548a14b235eca6874a"),
		g: mustHex("04216936d3cd6e53fec0a4e231fdd6dc5c692cc7609525a7b2c9562d608f25d51a" +
			"6666666666666666666666666666666666666666666666666666666666666658"),
		n: mustHex("1000000000000000000000000000000014def9dea2f79cd65812631a5cf5d3ed"),
	},
	"cv25519": {
		p: mustHex("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffed"),
		a: mustHex("01db41"),
		b: mustHex("01"),
		g: mustHex("040000000000000000000000000000000000000000000000000000000000000009" +
			"20ae19a1b8a086b4e01edd2c7748d14c923d4d7e6d7c61b229e9c5a27eced3d9"),
		n: mustHex("1000000000000000000000000000000014def9dea2f79cd65812631a5cf5d3ed"),
	},
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}

	return b
}
