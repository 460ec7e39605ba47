// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyauth.
//
// go-keyauth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"
	"os"

	"github.com/jeremyhahn/go-keyauth/pkg/enforcement"
	"github.com/spf13/cobra"
)

// keyidResult is the rendered derivation result.
type keyidResult struct {
	KeyID string `json:"key_id"`
}

func (r keyidResult) String() string {
	return r.KeyID
}

var keyidCmd = &cobra.Command{
	Use:   "keyid <key-material-file>",
	Short: "Derive a key's tracking identifier from its raw material",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		material, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read key material: %w", err)
		}

		enforcer := enforcement.New(nil)
		keyid, err := enforcer.DeriveKeyID(material)
		if err != nil {
			return err
		}
		return printResult(keyidResult{KeyID: keyid.String()})
	},
}
