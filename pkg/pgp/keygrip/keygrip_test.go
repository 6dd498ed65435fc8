// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package keygrip_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfold/gpg-import/pkg/pgp/keygrip"
	"github.com/keyfold/gpg-import/pkg/pgp/packet"
)

// The expected grips below were produced with GnuPG 2.2.40/libgcrypt 1.10.1
// (gpg --list-keys --with-colons --with-keygrip) for keys whose public
// parameters are inlined here.

const rsaModulusHex = "fc1ca0731552c082d75dba7799f9438a81c7dd076f850e9d5c64463039aded00" +
	"08b7b8d525c90b9a2559991212ef0bd0dad18564ece0784d9002b157e7a22fd3" +
	"bae16a33053f12326689231b62f011dc7037da07855e65a4a6daa0990026bace" +
	"f86fcea16f4bd755baa8d203ad8896aec34383f5e4806a87b498726714f6015e" +
	"dd4ee5d067110f7e799a0c1ca70c1240270b4f5971feffae692e06b451e8ce0d" +
	"efbf899059bbf44f5237f1e8b9973294c16eb25dc8a7993df72ca1f4b9cdfee4" +
	"0214645195dc90c90f375d5df38721d125b6d0194c7f74b8cab0edc3fb2ebd32" +
	"ddc784a21a57c8bdc5901bcc8121996e2b4d8d4542b4da39e97fc1e1c488d8fd"

const (
	dsaPHex = "aec942255a2e16a1810f708b2d380e710e6b7200f8f6090961e117ca98829ee9" +
		"586642b6e6b913a11b69e54320791ce32f994ba020e121ce3c7591d72d23a9f9" +
		"e3260a3316aeb23163ed343fc269015576c275c1bd67b310209924d7dc8b9bc2" +
		"480ca5773b150bf3cf6beb0488d7b1e26ccd11a34383e75a1b29f5faa73154a2" +
		"e94e716a950e5c3e10f6e90ba41e5ca947f62a28d762a05378eb49cbb214cf73" +
		"1453a59d9156db4f94d5112fe9376da37fec54736a4870124e6918f64652a575" +
		"d2283c359c07ef773c321edc6bc1c2810214bc02d834aabb1e52aa4785ecc739" +
		"b3d69b0649cb1edfaca983a131313218782021c2c64988acb68e9f35f2942b3b"
	dsaQHex = "d5e3d48b45f5f1f10d5508f5a7e4d9cd2947239f756bffcf13ed547e8fd8d847"
	dsaGHex = "81cfc0d39cc639de0e2ed72a7ddc9aadd84aabae7d6d233c4ca803fd11a59729" +
		"2a8bfcde8987d5b587e475f807344ef47f804281f96ac18b4ad6ba2ed598753f" +
		"c3c8ee9405259842954551c64ffcb41cf49000bb042cd3fbea2fa887a12db72e" +
		"ccefdec1947548f95de5f2e26f8bc60395be1c9eb7e4d58da53990bb4da9154f" +
		"9224c7ca903c80d624ea2b269f3503aa14b94d95bfd8654616e4fb3fdac9aee4" +
		"d6cfa22a1e5d812c555a307f540daf20047439a4fda624ab1c84062e08e6ef97" +
		"6bc128429cc31b3cf17efd47c70cf8a52b2fb71d3b968085f9340738d390a715" +
		"ffcf4dd2bd0054a65633e444e4f33806b5523cc3f6d6f6d0aaf5733f82a66448"
	dsaYHex = "1ae248199cb8cc62b274829621191cd3a9e0b302bf33d3746bf8d1e033bbfb68" +
		"5058de7beb4f616be7830dbba5c0707e433d185424d8c7bba8ecb4860a7b34d7" +
		"a61847337d18471fe41300ae958ce7c75a6a3ccb326b5544cc3917a04e5e32f4" +
		"dc16ad57013e818c6fca0e224c46b4d14d1ca276424c2e6dfc4cb21e6ad4de7e" +
		"7006a6f71c5be2759df2d976fe7f94857efbf8db44a5bb0290fa4c2acb3b71e8" +
		"a042bd8b4353390b7da480ea9a43c1a50f3d3f7bb1398ab51cee17a9296ea75e" +
		"a2fd4c0e3f34da27369f2cd3cbe2bff0683cef5d689bd81ef8264e2e92cabdba" +
		"4dcf5bcb14768de1687225d7a76938aabd812344a4f0a186df7de6758dcea65f"
)

const (
	elgamalPHex = "c378e2b9f13a69215f40f166fd4dc8e1cf1ab0460b471a7b002bdbdfe8e63668" +
		"3c8615c1418bbf6aeb1522ee4fea9e178e6beeb08279dc97d24ad7afc76fe71a" +
		"a80e245924c825477c09b847292abc79f10705a31ef6678e80a1f9ee46def84d" +
		"a0e06d18988f338f761bcac1b720f952a432d3d478968cac0f213c560e183173" +
		"c73aba2a771f3799dbc5987f9ad557eb18071b5a19f73234dae5cdc53df5038c" +
		"7e0413a3e34f70d4dc8efafd35e0f2602eedad3afa53453db206d74923af04f5" +
		"a43742313cd751321b7bf523edd54f3763cae47f525da4636e4a72dc3105d536" +
		"2a884dd31b8f2b0d36f4be5ef031fbeb733b30de8ca0985c1d99f4f3576a580b"
	elgamalGHex = "05"
	elgamalYHex = "762bfaeed127c54ea9a473c22de46bad81e3475d30687bacb0b325b6e719518b" +
		"751a5c7eee0463bdda27bf062ba61aed7c73c925297635fd3e71853b5489bcbf" +
		"22ba81a3493535900f401447558721bb3465f076621723b49bd6f1743dc47983" +
		"d9b44de0917a98b81f6046a0b0eb2793d1d63fa2aba16deabd6a0e92b5268760" +
		"87639c559a9bf730dd996e05668ee950bc2bbe7d5c9c284e8a1ca13a27d8970f" +
		"213d07ed8a811ec92b3bfdc71b640e7fd3654624bb5dd0745c107c3bbdd5a612" +
		"289b25a7d1597300ed0e7a7cbd8d0dfb0e64f272f9bd593e2c5d7048cfc1dba4" +
		"53b933bf15c6b1c5a86bf7e48041d95e6749cad1f6915c4da2e11df16431c565"
)

const (
	ed25519PointHex  = "40ecc7b74b1d6f4093d89eee63924bc4854986f51f0dcca0d2c6f4b8685438d9bc"
	cv25519PointHex  = "406247aae3ec11a712dd2bc6d82c3d40d0d0bc2a4760d56eb849a20eeb223b856a"
	nistp256PointHex = "0458d36572b2898036ad0cd3da779d4d591dea0d9701fbe8e4d27e319683f3cc64" +
		"23d2b25145ed92f17d5b8895347881a58cb4b08c3695cacc9876980a9ffc65e4"
)

func mpi(t *testing.T, hexValue string) packet.MPI {
	t.Helper()

	value, err := hex.DecodeString(hexValue)
	require.NoError(t, err)

	return packet.MPI{BitLength: len(value) * 8, Value: value}
}

func point(t *testing.T, hexValue string) []byte {
	t.Helper()

	value, err := hex.DecodeString(hexValue)
	require.NoError(t, err)

	return value
}

func TestComputeRSA(t *testing.T) {
	grip, err := keygrip.Compute(&packet.RSAMaterial{
		N: mpi(t, rsaModulusHex),
		E: mpi(t, "010001"),
	})
	require.NoError(t, err)

	assert.Equal(t, "B075465AE50C3E9AAB9E31226804222FD1FDB379", grip)
}

func TestComputeRSAIgnoresLeadingZeros(t *testing.T) {
	// A non-minimal modulus encoding grips the same as the minimal one.
	grip, err := keygrip.Compute(&packet.RSAMaterial{
		N: mpi(t, "0000"+rsaModulusHex),
		E: mpi(t, "010001"),
	})
	require.NoError(t, err)

	assert.Equal(t, "B075465AE50C3E9AAB9E31226804222FD1FDB379", grip)
}

func TestComputeRSAIgnoresExponent(t *testing.T) {
	grip, err := keygrip.Compute(&packet.RSAMaterial{
		N: mpi(t, rsaModulusHex),
		E: mpi(t, "03"),
	})
	require.NoError(t, err)

	assert.Equal(t, "B075465AE50C3E9AAB9E31226804222FD1FDB379", grip)
}

func TestComputeDSA(t *testing.T) {
	grip, err := keygrip.Compute(&packet.DSAMaterial{
		P: mpi(t, dsaPHex),
		Q: mpi(t, dsaQHex),
		G: mpi(t, dsaGHex),
		Y: mpi(t, dsaYHex),
	})
	require.NoError(t, err)

	assert.Equal(t, "E401D26AE586875031E2E1ADDDA6EE6429818E3C", grip)
}

func TestComputeElgamal(t *testing.T) {
	grip, err := keygrip.Compute(&packet.ElgamalMaterial{
		P: mpi(t, elgamalPHex),
		G: mpi(t, elgamalGHex),
		Y: mpi(t, elgamalYHex),
	})
	require.NoError(t, err)

	assert.Equal(t, "044B5E6BC185283DD37DC081C77C128064001121", grip)
}

func TestComputeEdDSA(t *testing.T) {
	grip, err := keygrip.Compute(&packet.EdDSAMaterial{
		Curve: packet.Curve{Name: "ed25519", Native: true},
		Point: point(t, ed25519PointHex),
	})
	require.NoError(t, err)

	assert.Equal(t, "B7158AB71A4CDC4C0E69230BAA0DA3AEB3B776EF", grip)
}

func TestComputeECDH(t *testing.T) {
	grip, err := keygrip.Compute(&packet.ECDHMaterial{
		Curve: packet.Curve{Name: "cv25519", Native: true},
		Point: point(t, cv25519PointHex),
		KDF:   []byte{0x01, 0x08, 0x07},
	})
	require.NoError(t, err)

	assert.Equal(t, "71A871FF63CF194742560CC36A6EA098D40127A5", grip)
}

func TestComputeECDHIgnoresKDF(t *testing.T) {
	grip, err := keygrip.Compute(&packet.ECDHMaterial{
		Curve: packet.Curve{Name: "cv25519", Native: true},
		Point: point(t, cv25519PointHex),
		KDF:   []byte{0x01, 0x0A, 0x09},
	})
	require.NoError(t, err)

	assert.Equal(t, "71A871FF63CF194742560CC36A6EA098D40127A5", grip)
}

func TestComputeECDSA(t *testing.T) {
	grip, err := keygrip.Compute(&packet.ECDSAMaterial{
		Curve: packet.Curve{Name: "nistp256"},
		Point: point(t, nistp256PointHex),
	})
	require.NoError(t, err)

	assert.Equal(t, "7B60C8D06D8FE6C254C4649C01054F72CD53E12A", grip)
}

func TestComputePointConventionErrors(t *testing.T) {
	_, err := keygrip.Compute(&packet.EdDSAMaterial{
		Curve: packet.Curve{Name: "ed25519", Native: true},
		Point: point(t, nistp256PointHex),
	})
	assert.ErrorContains(t, err, "native form")

	_, err = keygrip.Compute(&packet.ECDSAMaterial{
		Curve: packet.Curve{Name: "nistp256"},
		Point: append([]byte{0x02}, point(t, nistp256PointHex)[1:33]...),
	})
	assert.ErrorContains(t, err, "not uncompressed")

	_, err = keygrip.Compute(&packet.ECDSAMaterial{
		Curve: packet.Curve{Name: "secp256k1"},
		Point: point(t, nistp256PointHex),
	})
	assert.ErrorContains(t, err, "no domain parameters")
}
