// Package cli wires configuration, the diagnostic log and the extraction
// runner behind the azcreds command.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/azcreds/extract"
	"github.com/jrsteele09/azcreds/internal/config"
	"github.com/jrsteele09/azcreds/internal/diaglog"
	"github.com/jrsteele09/azcreds/internal/errors"
	"github.com/jrsteele09/azcreds/protect"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewRootCommand builds the azcreds command. v receives flag bindings; a nil v uses a fresh instance.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	if v == nil {
		v = viper.New()
	}
	cfg := config.New(v)

	root := &cobra.Command{
		Use:   "azcreds",
		Short: "Extract Azure CLI credentials from the local token cache without network access",
		Long: `azcreds reads the Azure CLI subscription profile and the MSAL token cache,
unprotects the cache with the host facility (DPAPI on Windows) and writes the
selected access/refresh token, authentication realm and default subscription
to a JSON artifact for the network phase. No network call is made.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := root.Flags()
	flags.String(config.KeyAzureDir, "", "Azure CLI config directory (default $AZURE_CONFIG_DIR or ~/.azure)")
	flags.String(config.KeyProfileFile, "", "Path to azureProfile.json")
	flags.String(config.KeyCacheFile, "", "Path to the MSAL token cache")
	flags.String(config.KeyOutputFile, "", "Path of the credential artifact")
	flags.String(config.KeyLogFile, "", "Path of the diagnostic log (default next to the artifact)")
	flags.String(config.KeyClientID, config.AzureCLIClientID, "Client id whose tokens are selected")
	flags.String(config.KeyTarget, "management", "Substring the token target must contain")
	flags.Duration(config.KeySafetyMargin, 30*time.Second, "Minimum remaining lifetime of a usable access token")
	flags.String(config.KeyProtector, string(protect.ModeAuto), "Cache protector: auto, dpapi or plaintext")
	flags.Bool(config.KeyBanner, true, "Print the startup banner")
	flags.Bool(config.KeyDebug, false, "Enable debug logging")

	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", f.Name, err)
		}
	})

	return root
}

func run(cfg config.Config, out, errOut io.Writer) (err error) {
	if err := config.Validate(cfg); err != nil {
		return logStartupError(errOut, err)
	}
	if cfg.GetShowBanner() {
		displayAppname(out, cfg.GetAppName())
	}

	level := zerolog.InfoLevel
	if cfg.GetDebug() {
		level = zerolog.DebugLevel
	}
	log, err := diaglog.Open(cfg.GetLogFile(), out, level)
	if err != nil {
		return logStartupError(errOut, errors.Wrapf(err, "opening diagnostic log"))
	}
	defer func() {
		if cerr := log.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "closing diagnostic log")
		}
	}()

	log.Info().Msgf("=== %s (phase 1 - offline) START ===", cfg.GetAppName())

	protector, err := protect.New(cfg.GetProtectorMode())
	if err != nil {
		log.Error().Str(errors.LogKey(err), err.Error()).Send()
		return err
	}

	if _, err := extract.NewRunner(cfg, protector, log.Logger).Run(); err != nil {
		return err
	}
	log.Info().Msg("=== phase 1 COMPLETE. Run the network phase next. ===")
	return nil
}

// logStartupError reports failures that happen before the diagnostic log is open.
func logStartupError(errOut io.Writer, err error) error {
	logger := zerolog.New(diaglog.NewLineWriter(errOut)).With().Timestamp().Logger()
	logger.Error().Str(errors.LogKey(err), err.Error()).Send()
	return err
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
