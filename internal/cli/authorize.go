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
	"github.com/jeremyhahn/go-keyauth/pkg/logging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	flagTokenKeyFile string
)

// requestDoc is the YAML request document evaluated by 'keyauth authorize'.
type requestDoc struct {
	Purpose           string                     `yaml:"purpose"`
	KeyID             string                     `yaml:"key_id"`
	KeyAuthorizations []enforcement.AttributeDoc `yaml:"key_authorizations"`
	OperationParams   []enforcement.AttributeDoc `yaml:"operation_params"`
	OperationHandle   uint64                     `yaml:"operation_handle"`
	BeginOperation    bool                       `yaml:"begin_operation"`
}

// decisionResult is the rendered verdict.
type decisionResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func (r decisionResult) String() string {
	if r.Allowed {
		return "ALLOWED"
	}
	return fmt.Sprintf("DENIED (%s)", r.Reason)
}

var authorizeCmd = &cobra.Command{
	Use:   "authorize <request.yaml>",
	Short: "Evaluate an authorization request document offline",
	Long: `Evaluates a single authorization request against a fresh policy
engine. Tracking tables start empty, so rate-limit and usage-cap
constraints only reflect state within this one evaluation; use the
server for stateful enforcement.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read request document: %w", err)
		}
		var doc requestDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse request document: %w", err)
		}

		purpose, err := enforcement.ParsePurpose(doc.Purpose)
		if err != nil {
			return err
		}
		keyid, err := enforcement.ParseKeyID(doc.KeyID)
		if err != nil {
			return err
		}
		authSet, err := enforcement.DocsToSet(doc.KeyAuthorizations)
		if err != nil {
			return err
		}
		operationParams, err := enforcement.DocsToSet(doc.OperationParams)
		if err != nil {
			return err
		}

		cfg := &enforcement.Config{
			Logger: logging.NewLogger(flagVerbose),
		}
		if flagTokenKeyFile != "" {
			key, err := os.ReadFile(flagTokenKeyFile)
			if err != nil {
				return fmt.Errorf("failed to read token key: %w", err)
			}
			cfg.Verifier = enforcement.NewHMACVerifier(key)
		}
		enforcer := enforcement.New(cfg)

		decisionErr := enforcer.AuthorizeOperation(purpose, keyid, authSet,
			operationParams, doc.OperationHandle, doc.BeginOperation)

		result := decisionResult{Allowed: decisionErr == nil}
		if decisionErr != nil {
			result.Reason = decisionErr.Error()
		}
		if err := printResult(result); err != nil {
			return err
		}
		if decisionErr != nil {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	authorizeCmd.Flags().StringVar(&flagTokenKeyFile, "token-key-file", "",
		"file holding the raw auth-token HMAC key")
}
