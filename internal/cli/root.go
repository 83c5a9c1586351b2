package cli

import (
	"github.com/mgpai22/vvsrt/internal/config"
	"github.com/mgpai22/vvsrt/internal/logging"
	"github.com/spf13/cobra"
)

// state shared by the subcommands of one invocation
type app struct {
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "vvsrt",
		Short: "Subtitle generator for VOICEVOX projects",
		Long: `vvsrt converts a VOICEVOX project (.vvproj) into subtitles whose
timing follows the synthesized audio exactly.

Each utterance is split into readable lines that respect a character and
line budget without breaking words or punctuation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().
		BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")

	rootCmd.AddCommand(newConvertCmd(a))
	rootCmd.AddCommand(newValidateCmd(a))

	return rootCmd
}

func (a *app) setup() error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	a.cfg = cfg

	if a.verbose {
		a.logger = logging.NewLogger(true)
		return nil
	}
	logger, err := logging.NewWithLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func Execute() error {
	return NewRootCmd().Execute()
}
