package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wang-tianhao/vibrant-bearer-auth-go/jwtauth"
)

type issueOpts struct {
	keyFlags

	Subject string
	Issuer  string
	Claims  map[string]string
	Scopes  []string
	TTL     time.Duration
	Refresh bool
	Pair    bool
}

func newCmdIssue(f *factory) *cobra.Command {
	opts := &issueOpts{}

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint an access token, a refresh token, or both",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Subject == "" {
				return errors.New("--sub is missing")
			}
			if opts.Issuer == "" {
				return errors.New("--iss is missing")
			}
			if opts.Refresh && opts.Pair {
				return errors.New("--refresh and --pair are mutually exclusive")
			}
			if opts.TTL != 0 && (opts.Refresh || opts.Pair) {
				return errors.New("--ttl only applies to access tokens")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return issueRun(f, opts)
		},
	}

	opts.keyFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Subject, "sub", "", "Subject (principal id)")
	cmd.Flags().StringVar(&opts.Issuer, "iss", "", "Issuer claim, e.g. https://auth.example.org")
	cmd.Flags().StringToStringVar(&opts.Claims, "claim", nil, "Extra claim as key=value (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Scopes, "scope", nil, "Scope to grant (repeatable or comma separated)")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "Access token lifetime; defaults to the configured lifetime")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "Mint a refresh token instead of an access token")
	cmd.Flags().BoolVar(&opts.Pair, "pair", false, "Mint an access and a refresh token and print them as JSON")

	return cmd
}

func issueRun(f *factory, opts *issueOpts) error {
	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}
	issuer, err := jwtauth.NewIssuer(cfg)
	if err != nil {
		return err
	}

	switch {
	case opts.Pair:
		pair, err := issuer.IssuePair(opts.Subject, opts.Issuer, opts.Claims, opts.Scopes)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(f.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"access_token":       pair.AccessToken,
			"refresh_token":      pair.RefreshToken,
			"issued_at":          pair.IssuedAt.Format(time.RFC3339),
			"access_expires_at":  pair.AccessExpiresAt.Format(time.RFC3339),
			"refresh_expires_at": pair.RefreshExpiresAt.Format(time.RFC3339),
		})
	case opts.Refresh:
		token, err := issuer.IssueRefresh(opts.Subject, opts.Issuer, opts.Claims, opts.Scopes)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(f.Out, token)
		return err
	default:
		ttl := opts.TTL
		if ttl == 0 {
			ttl = cfg.AccessTokenTTL()
		}
		token, err := issuer.IssueWithTTL(opts.Subject, opts.Issuer, opts.Claims, opts.Scopes, ttl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(f.Out, token)
		return err
	}
}
