package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wang-tianhao/vibrant-bearer-auth-go/jwtauth"
)

type verifyOpts struct {
	keyFlags

	Token string
	Scope string
}

func newCmdVerify(f *factory) *cobra.Command {
	opts := &verifyOpts{}

	cmd := &cobra.Command{
		Use:   "verify [token|-]",
		Short: "Verify a token and print its claims",
		Long:  "Verify checks signature and expiry with the public key only. Pass - or nothing to read the token from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && args[0] != "-" {
				opts.Token = args[0]
			} else {
				token, err := readToken(cmd.InOrStdin())
				if err != nil {
					return err
				}
				opts.Token = token
			}
			return verifyRun(f, opts)
		},
	}

	opts.keyFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Scope, "require-scope", "", "Fail unless the token carries this scope")

	return cmd
}

func verifyRun(f *factory, opts *verifyOpts) error {
	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}

	claims, err := jwtauth.NewVerifier(cfg).Verify(opts.Token)
	if err != nil {
		return err
	}
	if opts.Scope != "" && !claims.HasScope(opts.Scope) {
		return fmt.Errorf("token lacks scope %q", opts.Scope)
	}

	out := map[string]interface{}{
		"sub":        claims.Subject,
		"iss":        claims.Issuer,
		"iat":        claims.IssuedAt.Format(time.RFC3339),
		"exp":        claims.ExpiresAt.Format(time.RFC3339),
		"scopes":     claims.Scopes(),
		"refresh":    claims.IsRefresh(),
		"claims":     claims.Custom,
		"expires_in": claims.ExpiresAt.Sub(f.Clock.Now()).Round(time.Second).String(),
	}
	enc := json.NewEncoder(f.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readToken(r io.Reader) (string, error) {
	if r == nil {
		r = os.Stdin
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", fmt.Errorf("no token given")
	}
	return token, nil
}
