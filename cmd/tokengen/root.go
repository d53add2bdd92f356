package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Wang-tianhao/vibrant-bearer-auth-go/jwtauth"
)

// factory carries what every subcommand needs
type factory struct {
	Out    io.Writer
	ErrOut io.Writer
	Logger *slog.Logger
	Clock  jwtauth.Clock

	level *slog.LevelVar
}

func newFactory(out, errOut io.Writer) *factory {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	return &factory{
		Out:    out,
		ErrOut: errOut,
		Logger: slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level})),
		Clock:  jwtauth.SystemClock(),
		level:  level,
	}
}

// keyFlags are shared by commands that need key material
type keyFlags struct {
	configFile     string
	publicKeyFile  string
	privateKeyFile string
}

func newCmdRoot(f *factory) *cobra.Command {
	var verboseLevel int

	cmd := &cobra.Command{
		Use:   "tokengen",
		Short: "Issue and verify RS256 bearer tokens",
		Long:  "tokengen mints access and refresh tokens and checks them against a public key.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case verboseLevel >= 2:
				f.level.Set(slog.LevelDebug)
			case verboseLevel == 1:
				f.level.Set(slog.LevelInfo)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().CountVarP(&verboseLevel, "verbose", "v", "verbose output (-v or -vv)")

	cmd.AddCommand(newCmdKeygen(f))
	cmd.AddCommand(newCmdIssue(f))
	cmd.AddCommand(newCmdVerify(f))

	return cmd
}

func (k *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&k.configFile, "config", envDefault("TOKENGEN_CONFIG", "jwtauth.yaml"), "Path to the settings file (TOKENGEN_CONFIG)")
	cmd.Flags().StringVar(&k.publicKeyFile, "public-key-file", "", "PEM public key, overrides the settings file")
	cmd.Flags().StringVar(&k.privateKeyFile, "private-key-file", "", "PEM private key, overrides the settings file")
}

// loadConfig merges the settings file, the environment and the key flags.
// A missing settings file is fine as long as keys arrive some other way.
func (k *keyFlags) loadConfig(f *factory) (*jwtauth.Config, error) {
	settings, err := jwtauth.LoadSettings(k.configFile)
	if err != nil {
		if !errors.Is(err, jwtauth.ErrSettingsNotFound) {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		f.Logger.Debug("settings file not found, using defaults", slog.String("filename", k.configFile))
		settings = jwtauth.DefaultSettings()
	}
	settings.ApplyEnv(os.LookupEnv)

	if k.publicKeyFile != "" {
		settings.Keys.PublicKey, settings.Keys.PublicKeyFile = "", k.publicKeyFile
	}
	if k.privateKeyFile != "" {
		settings.Keys.PrivateKey, settings.Keys.PrivateKeyFile = "", k.privateKeyFile
	}

	return jwtauth.NewConfigFromSettings(settings, f.Logger, jwtauth.WithClock(f.Clock))
}

func envDefault(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
