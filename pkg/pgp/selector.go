// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pgp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrKeyNotFound is returned by Select when the filter matches neither the
// primary key nor any subkey.
var ErrKeyNotFound = errors.New("pgp: no key matches the filter")

// AmbiguousSelectionError is returned by Select when a filter matches more
// than one key; it names every candidate so the caller can disambiguate.
type AmbiguousSelectionError struct {
	Filter     string
	Candidates []string
}

func (e *AmbiguousSelectionError) Error() string {
	return fmt.Sprintf("pgp: filter %q matches multiple keys: %s", e.Filter, strings.Join(e.Candidates, ", "))
}

// Select resolves an optional case-insensitive hex filter against the
// bundle. A key matches on its full fingerprint, its full key id or any
// suffix of its fingerprint; the match must be unique. An empty filter
// selects the primary key.
func (b *KeyBundle) Select(filter string) (*KeyDetails, error) {
	needle := strings.ToUpper(strings.TrimSpace(filter))
	if needle == "" {
		details := b.KeyDetails

		return &details, nil
	}

	var matches []*KeyDetails

	if matchesKey(&b.KeyDetails, needle) {
		matches = append(matches, &b.KeyDetails)
	}

	for i := range b.Subkeys {
		if matchesKey(&b.Subkeys[i].KeyDetails, needle) {
			matches = append(matches, &b.Subkeys[i].KeyDetails)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, filter)
	case 1:
		details := *matches[0]

		return &details, nil
	default:
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, m.Fingerprint)
		}

		return nil, &AmbiguousSelectionError{Filter: filter, Candidates: candidates}
	}
}

// matchesKey implements the filter rule. A full-key-id match is a special
// case of a fingerprint suffix for v4 keys, but is kept explicit since it is
// the form users copy out of gpg output.
func matchesKey(d *KeyDetails, needle string) bool {
	return needle == d.Fingerprint ||
		needle == d.KeyID ||
		strings.HasSuffix(d.Fingerprint, needle)
}
