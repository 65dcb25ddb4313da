package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thomasdesr/mwspay"
	"github.com/thomasdesr/mwspay/internal/config"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/internal/logging"
	"github.com/thomasdesr/mwspay/transport"
	"go.uber.org/zap"
)

// app is shared by every subcommand and filled in before any of them run.
type app struct {
	v          *viper.Viper
	configFile string

	cfg    *config.Config
	logger *zap.Logger

	// roundTripper, when set, carries MWS calls instead of the default
	// transport.
	roundTripper http.RoundTripper
}

func newRootCommand() *cobra.Command {
	return (&app{v: config.New()}).rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mwspay",
		Short:        "Amazon Pay MWS client and IPN verifier",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("merchant-id", "", "merchant (seller) id")
	flags.String("region", "na", "MWS region: na, eu or jp")
	flags.Bool("sandbox", false, "use the sandbox endpoint")
	flags.Int("max-retries", transport.DefaultMaxRetries, "retries for 500 and 503 responses")
	flags.String("private-key", "", "PEM private key used by sign-payload")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.Bool("log-development", false, "human readable logs")

	for key, flag := range map[string]string{
		config.KeyMerchantID:     "merchant-id",
		config.KeyRegion:         "region",
		config.KeySandbox:        "sandbox",
		config.KeyMaxRetries:     "max-retries",
		config.KeyPrivateKeyPath: "private-key",
		config.KeyLogLevel:       "log-level",
		config.KeyLogDevelopment: "log-development",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}

	cmd.AddCommand(
		a.callCommand(),
		a.signPayloadCommand(),
		a.verifyIPNCommand(),
		a.serveCommand(),
	)

	return cmd
}

func (a *app) load() error {
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return errorutil.Wrapf(err, "reading config %s", a.configFile)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return errorutil.Wrap(err, "loading config")
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	a.logger = logger

	return nil
}

// clientOptions maps the loaded config onto mwspay.Client options.
func (a *app) clientOptions() ([]mwspay.Option[mwspay.Client], error) {
	opts := []mwspay.Option[mwspay.Client]{
		mwspay.WithRegion(string(a.cfg.Region)),
		mwspay.WithSandbox(a.cfg.Sandbox),
		mwspay.WithMaxRetries(a.cfg.MaxRetries),
		mwspay.WithLogger[mwspay.Client](logging.Smithy(a.logger)),
		mwspay.WithApplication[mwspay.Client](a.cfg.ApplicationName, a.cfg.ApplicationVersion),
	}

	if a.roundTripper != nil {
		opts = append(opts, mwspay.WithHTTPTransport[mwspay.Client](a.roundTripper))
	}

	if a.cfg.HasStaticCredentials() {
		opts = append(opts, mwspay.WithCredentials(a.cfg.AccessKey, a.cfg.SecretKey))
	}

	if a.cfg.PrivateKeyPath != "" {
		pemBytes, err := os.ReadFile(a.cfg.PrivateKeyPath)
		if err != nil {
			return nil, errorutil.Wrap(err, "reading private key")
		}
		opts = append(opts, mwspay.WithPrivateKeyPEM(pemBytes))
	}

	return opts, nil
}

func (a *app) newClient() (*mwspay.Client, error) {
	opts, err := a.clientOptions()
	if err != nil {
		return nil, err
	}

	return mwspay.NewClient(a.cfg.MerchantID, opts...)
}
