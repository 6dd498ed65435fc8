// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package pgp assembles decoded OpenPGP packet streams into logical signing
// keys: a primary key with its resolved identity, expiry and subkeys, each
// carrying the identifiers (fingerprint, key id, keygrip) the surrounding
// tooling acts on.
package pgp

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/keyfold/gpg-import/pkg/pgp/armor"
	"github.com/keyfold/gpg-import/pkg/pgp/keygrip"
	"github.com/keyfold/gpg-import/pkg/pgp/packet"
)

// Bundle construction failures.
var (
	// ErrMissingIdentity is returned when a key carries no user id packet.
	// A key without an identity cannot be used to configure signing.
	ErrMissingIdentity = errors.New("pgp: key has no user identity")

	// ErrMissingBindingSignature is returned when a subkey is not bound to
	// the primary key by any binding signature.
	ErrMissingBindingSignature = errors.New("pgp: subkey has no binding signature")
)

// KeyDetails are the derived identifiers and lifetime of a single key,
// primary or subkey.
type KeyDetails struct {
	// Fingerprint is the 40-hex-digit v4 fingerprint.
	Fingerprint string

	// KeyID is the 16-hex-digit short identifier, the fingerprint's tail.
	KeyID string

	// Keygrip is the keyring agent's 40-hex-digit parameter digest.
	Keygrip string

	// CreatedAt is the key packet's creation timestamp.
	CreatedAt time.Time

	// ExpiresAt is CreatedAt plus the governing signature's expiration
	// period; nil when the key does not expire.
	ExpiresAt *time.Time
}

// Expired reports whether the key is past its expiry at the given time.
func (d *KeyDetails) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}

// Identity is a resolved user identity.
type Identity struct {
	Text  string
	Name  string
	Email string
}

// Subkey is a bound subkey with its own independently derived details.
type Subkey struct {
	KeyDetails

	// Binding is the governing binding signature.
	Binding *packet.Signature
}

// KeyBundle is a fully resolved logical key: the primary key's details, its
// primary identity and its subkeys, in stream order.
type KeyBundle struct {
	KeyDetails

	Identity Identity
	Subkeys  []Subkey
}

// ParseBundle decodes armored (optionally once-more base64-wrapped) key
// material into a KeyBundle. The input is consumed in a single forward pass
// and nothing is retained beyond the returned bundle.
func ParseBundle(input []byte) (*KeyBundle, error) {
	block, err := armor.Decode(input)
	if err != nil {
		return nil, err
	}

	return buildBundle(packet.NewReader(block.Data))
}

// ParseBundleBinary builds a bundle from an already dearmored packet stream,
// for callers that hold on to the binary form (for example to hand it to an
// external keyring afterwards).
func ParseBundleBinary(data []byte) (*KeyBundle, error) {
	return buildBundle(packet.NewReader(data))
}

// identity and boundSubkey accumulate certificates during the forward pass;
// the governing signature is resolved once the stream ends.
type identityState struct {
	uid  *packet.UserID
	sigs []*packet.Signature
}

type subkeyState struct {
	key  *packet.PublicKey
	sigs []*packet.Signature
}

// attachTarget is the grouping state: signatures bind to the most recent
// user id or subkey packet.
type attachTarget int

const (
	attachNone attachTarget = iota
	attachIdentity
	attachSubkey
)

func buildBundle(r *packet.Reader) (*KeyBundle, error) {
	var (
		primary    *packet.PublicKey
		identities []*identityState
		subkeys    []*subkeyState
		target     attachTarget
	)

	for {
		raw, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		decoded, err := packet.Decode(raw)
		if err != nil {
			return nil, err
		}

		switch p := decoded.(type) {
		case nil:
			// Irrelevant tag, skipped.
		case *packet.PublicKey:
			switch {
			case primary == nil && !p.Subkey:
				primary = p
			case primary == nil:
				return nil, fmt.Errorf("%w: subkey before primary key", packet.ErrMalformedPacket)
			case !p.Subkey:
				return nil, fmt.Errorf("%w: second primary key in stream", packet.ErrMalformedPacket)
			default:
				subkeys = append(subkeys, &subkeyState{key: p})
				target = attachSubkey
			}
		case *packet.UserID:
			if primary == nil {
				return nil, fmt.Errorf("%w: user id before primary key", packet.ErrMalformedPacket)
			}

			identities = append(identities, &identityState{uid: p})
			target = attachIdentity
		case *packet.Signature:
			switch {
			case target == attachIdentity && p.IsCertification():
				current := identities[len(identities)-1]
				current.sigs = append(current.sigs, p)
			case target == attachSubkey && p.Type == packet.SigTypeSubkeyBind:
				current := subkeys[len(subkeys)-1]
				current.sigs = append(current.sigs, p)
			default:
				// Direct key signatures, revocations and other signature
				// kinds do not participate in bundle structure.
			}
		}
	}

	if primary == nil {
		return nil, fmt.Errorf("%w: no key packet in stream", packet.ErrMalformedPacket)
	}

	if len(identities) == 0 {
		return nil, ErrMissingIdentity
	}

	return assembleBundle(primary, identities, subkeys)
}

func assembleBundle(primary *packet.PublicKey, identities []*identityState, subkeys []*subkeyState) (*KeyBundle, error) {
	chosen := chooseIdentity(identities)

	details, err := deriveDetails(primary, governing(chosen.sigs))
	if err != nil {
		return nil, err
	}

	bundle := &KeyBundle{
		KeyDetails: details,
		Identity: Identity{
			Text:  chosen.uid.Text,
			Name:  chosen.uid.Name,
			Email: chosen.uid.Email,
		},
	}

	for _, sk := range subkeys {
		binding := governing(sk.sigs)
		if binding == nil {
			return nil, fmt.Errorf("%w: subkey created %s", ErrMissingBindingSignature, sk.key.CreatedAt.Format(time.RFC3339))
		}

		skDetails, err := deriveDetails(sk.key, binding)
		if err != nil {
			return nil, err
		}

		bundle.Subkeys = append(bundle.Subkeys, Subkey{
			KeyDetails: skDetails,
			Binding:    binding,
		})
	}

	return bundle, nil
}

// governing picks the effective signature: the one with the latest creation
// time, later stream position winning ties. Nil when no signatures exist.
func governing(sigs []*packet.Signature) *packet.Signature {
	var best *packet.Signature

	for _, sig := range sigs {
		if best == nil || !sig.CreatedAt.Before(best.CreatedAt) {
			best = sig
		}
	}

	return best
}

// chooseIdentity prefers the identity whose governing signature sets the
// primary-user-id flag, falling back to the first identity in the stream.
func chooseIdentity(identities []*identityState) *identityState {
	for _, id := range identities {
		if sig := governing(id.sigs); sig != nil && sig.PrimaryUserID() {
			return id
		}
	}

	return identities[0]
}

// deriveDetails computes the identifier set for one key packet. The expiry
// comes from the governing signature; no expiration subpacket means the key
// does not expire.
func deriveDetails(key *packet.PublicKey, sig *packet.Signature) (KeyDetails, error) {
	grip, err := keygrip.Compute(key.Material)
	if err != nil {
		return KeyDetails{}, err
	}

	details := KeyDetails{
		Fingerprint: key.Fingerprint(),
		KeyID:       key.KeyID(),
		Keygrip:     grip,
		CreatedAt:   key.CreatedAt,
	}

	if sig != nil {
		if lifetime, ok := sig.KeyLifetime(); ok {
			expires := key.CreatedAt.Add(lifetime)
			details.ExpiresAt = &expires
		}
	}

	return details, nil
}
