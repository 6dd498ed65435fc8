// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package importer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/keyfold/gpg-import/pkg/fileutils"
)

// ErrNoKeyMaterial is returned when a KeySource resolves to nothing.
var ErrNoKeyMaterial = errors.New("importer: no private key material provided")

// KeySource locates the private key material for an import: an inline value
// (typically injected through a CI secret) or a file path. The inline value
// wins when both are set.
type KeySource struct {
	// Value is the armored or base64-wrapped key material itself.
	Value string

	// Path is a file containing the key material.
	Path string
}

// Material resolves the key bytes.
func (s KeySource) Material() ([]byte, error) {
	if v := strings.TrimSpace(s.Value); v != "" {
		return []byte(v), nil
	}

	if s.Path != "" {
		if !fileutils.FileExists(s.Path) {
			return nil, fmt.Errorf("importer: key file %s does not exist", s.Path)
		}

		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, fmt.Errorf("importer: read key file: %w", err)
		}

		return data, nil
	}

	return nil, ErrNoKeyMaterial
}
