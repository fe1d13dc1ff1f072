package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayusman/handrom/internal/app"
	"github.com/ayusman/handrom/internal/config"
	"github.com/ayusman/handrom/internal/logging"
)

// cli holds state shared by every subcommand of one invocation.
type cli struct {
	configDir  string
	configFile string
	logLevel   string

	settings config.Config
	log      zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:   "handrom",
		Short: "Measure hand and wrist range of motion",
		Long: `Handrom turns hand and body keypoint frames into joint angles,
reduces them per repetition and interprets the results against the
expected targets for an injury.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&c.configDir, "config-dir", ".", "directory searched for handrom.toml, .json or .yaml")
	f.StringVar(&c.configFile, "config", "", "explicit config file")
	f.StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(newAnalyzeCmd(c), newRecordCmd(c), newProfilesCmd(c))
	return cmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if c.configFile != "" {
		c.settings, err = config.LoadFile(c.configFile)
	} else {
		c.settings, err = config.Load(c.configDir)
	}
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		c.settings.LogLevel = c.logLevel
	}

	w := cmd.ErrOrStderr()
	c.log = logging.NewConsole(w, c.settings.LogLevel, isTerminal(w))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// engine builds an engine from the loaded settings. The returned func
// releases the profile store, if one was opened.
func (c *cli) engine() (*app.Engine, func(), error) {
	cfg, err := app.ConfigFrom(c.settings, c.log)
	if err != nil {
		return nil, nil, err
	}

	release := func() {}
	if cfg.Store != nil {
		release = func() {
			if err := cfg.Store.Close(); err != nil {
				c.log.Warn().Err(err).Msg("failed to close profile store")
			}
		}
	}

	e, err := app.New(cfg)
	if err != nil {
		release()
		return nil, nil, err
	}
	return e, release, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
