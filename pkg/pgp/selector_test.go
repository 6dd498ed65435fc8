// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pgp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfold/gpg-import/pkg/pgp"
)

const (
	primaryFpr = "85E1AA4D9A980B4E14E678C627551C4E1C27BF2A"
	encryptFpr = "C19A8A4A8D17B3B60B4E45C2F63D7EA6A2C5D2B9"
	altFpr     = "0E4C2D8E91F7A3B5C6D7E8F9A0B1C2D3E4F5A6B7"
)

func testBundle() *pgp.KeyBundle {
	return &pgp.KeyBundle{
		KeyDetails: pgp.KeyDetails{
			Fingerprint: primaryFpr,
			KeyID:       primaryFpr[24:],
			Keygrip:     "63E1B1B2C3D4E5F60718293A4B5C6D7E8F901234",
		},
		Identity: pgp.Identity{Text: "Bruce Wayne <batman@dc.com>", Name: "Bruce Wayne", Email: "batman@dc.com"},
		Subkeys: []pgp.Subkey{
			{KeyDetails: pgp.KeyDetails{Fingerprint: encryptFpr, KeyID: encryptFpr[24:]}},
			{KeyDetails: pgp.KeyDetails{Fingerprint: altFpr, KeyID: altFpr[24:]}},
		},
	}
}

func TestSelectEmptyFilter(t *testing.T) {
	selected, err := testBundle().Select("")
	require.NoError(t, err)

	assert.Equal(t, primaryFpr, selected.Fingerprint)

	selected, err = testBundle().Select("   ")
	require.NoError(t, err)

	assert.Equal(t, primaryFpr, selected.Fingerprint)
}

func TestSelectByFingerprint(t *testing.T) {
	selected, err := testBundle().Select(encryptFpr)
	require.NoError(t, err)

	assert.Equal(t, encryptFpr, selected.Fingerprint)
}

func TestSelectCaseInsensitive(t *testing.T) {
	selected, err := testBundle().Select("c19a8a4a8d17b3b60b4e45c2f63d7ea6a2c5d2b9")
	require.NoError(t, err)

	assert.Equal(t, encryptFpr, selected.Fingerprint)
}

func TestSelectByKeyID(t *testing.T) {
	selected, err := testBundle().Select(altFpr[24:])
	require.NoError(t, err)

	assert.Equal(t, altFpr, selected.Fingerprint)
}

func TestSelectByFingerprintSuffix(t *testing.T) {
	selected, err := testBundle().Select("1C27BF2A")
	require.NoError(t, err)

	assert.Equal(t, primaryFpr, selected.Fingerprint)
}

func TestSelectNotFound(t *testing.T) {
	_, err := testBundle().Select("00000000")
	assert.ErrorIs(t, err, pgp.ErrKeyNotFound)
}

func TestSelectAmbiguous(t *testing.T) {
	bundle := testBundle()
	bundle.Subkeys = append(bundle.Subkeys, pgp.Subkey{
		KeyDetails: pgp.KeyDetails{
			Fingerprint: "1111111111111111111111111111111111C5D2B9",
			KeyID:       "1111111111C5D2B9",
		},
	})

	_, err := bundle.Select("C5D2B9")

	var ambiguous *pgp.AmbiguousSelectionError

	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "C5D2B9", ambiguous.Filter)
	assert.Len(t, ambiguous.Candidates, 2)
}

func TestSelectReturnsCopy(t *testing.T) {
	bundle := testBundle()

	selected, err := bundle.Select("")
	require.NoError(t, err)

	selected.Fingerprint = "mutated"

	assert.Equal(t, primaryFpr, bundle.Fingerprint)
}
