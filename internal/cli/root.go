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

// Package cli implements the keyauth command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagOutput  string
	flagVerbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "keyauth",
	Short: "go-keyauth - authorization-policy engine for hardware-backed keys",
	Long: `go-keyauth decides whether a cryptographic operation on a
hardware-backed key may proceed, enforcing the authorization attributes
baked into the key at generation time: validity windows, purpose
restrictions, per-key rate limits, per-boot usage caps, and secure
authentication requirements.

Run it as a service with 'keyauth serve', or evaluate a single request
document offline with 'keyauth authorize'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "/etc/keyauth/config.yaml",
		"config file")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text",
		"output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(authorizeCmd)
	rootCmd.AddCommand(keyidCmd)
	rootCmd.AddCommand(versionCmd)
}
