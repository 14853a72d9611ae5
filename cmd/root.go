package cmd

import (
	"fmt"
	"os"

	"github.com/markusressel/pace2go/cmd/config"
	"github.com/markusressel/pace2go/cmd/global"
	"github.com/markusressel/pace2go/cmd/param"
	"github.com/markusressel/pace2go/internal"
	"github.com/markusressel/pace2go/internal/configuration"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pace2go",
	Short: "A simulated pacemaker control surface.",
	Long: `pace2go runs the control surface of a temporary pacemaker.
It reads rotary encoders and buttons, enforces the lock and emergency
interlocks and exposes the device state via REST, websocket and MQTT.`,
	// this is the default command to run when no subcommand is specified
	RunE: func(cmd *cobra.Command, args []string) error {
		setupUi()
		printHeader()

		configuration.ReadConfigFile()
		err := configuration.Validate(viper.ConfigFileUsed())
		if err != nil {
			ui.Error("Config Validation Error: %v", err)
			return err
		}

		internal.RunDaemon()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&global.CfgFile, "config", "c", "", "config file (default is ./pace2go.yaml, $HOME/pace2go.yaml or /etc/pace2go/pace2go.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&global.NoColor, "no-color", "", false, "Disable all terminal output coloration")
	rootCmd.PersistentFlags().BoolVarP(&global.NoStyle, "no-style", "", false, "Disable all terminal output styling")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "More verbose output")

	rootCmd.AddCommand(config.Command)
	rootCmd.AddCommand(param.Command)
}

func setupUi() {
	ui.SetDebugEnabled(global.Verbose)

	if global.NoColor {
		pterm.DisableColor()
	}
	if global.NoStyle {
		pterm.DisableStyling()
	}
}

// Print a large text with the LetterStyle from the standard theme.
func printHeader() {
	err := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("pace", pterm.NewStyle(pterm.FgLightRed)),
		pterm.NewLettersFromStringWithStyle("2", pterm.NewStyle(pterm.FgWhite)),
		pterm.NewLettersFromStringWithStyle("go", pterm.NewStyle(pterm.FgLightRed)),
	).Render()
	if err != nil {
		fmt.Println("pace2go")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.OnInitialize(func() {
		setupUi()
		configuration.InitConfig(global.CfgFile)
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
