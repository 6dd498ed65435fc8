// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/keyfold/gpg-import/pkg/pgp"
)

// renderBundle formats the parsed key the way the report presents it.
func renderBundle(bundle *pgp.KeyBundle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "user:           %s <%s>\n", bundle.Identity.Name, bundle.Identity.Email)
	fmt.Fprintf(&b, "fingerprint:    %s\n", bundle.Fingerprint)
	fmt.Fprintf(&b, "keygrip:        %s\n", bundle.Keygrip)
	fmt.Fprintf(&b, "key_id:         %s\n", bundle.KeyID)
	fmt.Fprintf(&b, "created_on:     %s\n", bundle.CreatedAt.Format(time.RFC1123Z))

	if bundle.ExpiresAt != nil {
		fmt.Fprintf(&b, "expires_on:     %s\n", expiryText(*bundle.ExpiresAt))
	}

	for _, sk := range bundle.Subkeys {
		fmt.Fprintf(&b, "sub_keygrip:    %s\n", sk.Keygrip)
		fmt.Fprintf(&b, "sub_key_id:     %s\n", sk.KeyID)
		fmt.Fprintf(&b, "sub_created_on: %s\n", sk.CreatedAt.Format(time.RFC1123Z))

		if sk.ExpiresAt != nil {
			fmt.Fprintf(&b, "sub_expires_on: %s\n", expiryText(*sk.ExpiresAt))
		}
	}

	return b.String()
}

// expiryText annotates an expiry timestamp with how far away it is.
func expiryText(expiresOn time.Time) string {
	days := int(time.Until(expiresOn).Hours() / 24)

	var note string

	switch {
	case days == 1:
		note = "in 1 day"
	case days == 0:
		note = "expires today"
	case days == -1:
		note = "expired 1 day ago"
	case days < 0:
		note = fmt.Sprintf("expired %d days ago", -days)
	default:
		note = fmt.Sprintf("in %d days", days)
	}

	return fmt.Sprintf("%s (%s)", expiresOn.Format(time.RFC1123Z), note)
}
