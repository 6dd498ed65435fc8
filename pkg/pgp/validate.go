// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pgp

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// DefaultAllowedClockSkew is the tolerance applied to expiry checks so that
// a key freshly expired on a skewed CI clock is still reported usable.
const DefaultAllowedClockSkew = 5 * time.Minute

type validationOptions struct {
	allowedClockSkew time.Duration
	now              func() time.Time
}

func newDefaultValidationOptions() validationOptions {
	return validationOptions{
		allowedClockSkew: DefaultAllowedClockSkew,
		now:              time.Now,
	}
}

// ValidationOption represents a functional validation option.
type ValidationOption func(*validationOptions)

// WithAllowedClockSkew sets the allowed clock skew in the key expiration
// validation.
func WithAllowedClockSkew(allowedClockSkew time.Duration) ValidationOption {
	return func(o *validationOptions) {
		o.allowedClockSkew = allowedClockSkew
	}
}

// WithNow overrides the clock used by the validation.
func WithNow(now func() time.Time) ValidationOption {
	return func(o *validationOptions) {
		o.now = now
	}
}

// Validate checks that neither the primary key nor any subkey has expired.
// Every expired key is reported, not just the first.
func (b *KeyBundle) Validate(opt ...ValidationOption) error {
	options := newDefaultValidationOptions()

	for _, o := range opt {
		o(&options)
	}

	now := options.now().Add(-options.allowedClockSkew)

	var result *multierror.Error

	if b.Expired(now) {
		result = multierror.Append(result, fmt.Errorf("primary key %s expired on %s", b.KeyID, b.ExpiresAt.Format(time.RFC1123Z)))
	}

	for i := range b.Subkeys {
		sk := &b.Subkeys[i]
		if sk.Expired(now) {
			result = multierror.Append(result, fmt.Errorf("subkey %s expired on %s", sk.KeyID, sk.ExpiresAt.Format(time.RFC1123Z)))
		}
	}

	return result.ErrorOrNil()
}
