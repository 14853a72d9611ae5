package param

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/markusressel/pace2go/internal/device"
	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <parameter> <value|reset|async>",
	Short: "Change the value of a parameter",
	Long: `Changes the value of a parameter. The daemon snaps the value to the
step grid of the parameter and clamps it into its limits.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()
		defer pterm.EnableOutput()

		p, err := pacing.ParseParameter(args[0])
		if err != nil {
			return err
		}

		var info device.ParameterInfo
		path := "/parameter/" + string(p) + "/"
		switch strings.ToLower(args[1]) {
		case "reset":
			err = call(http.MethodPost, path+"reset/", nil, &info)
		case "async":
			err = call(http.MethodPost, path, map[string]float64{"value": pacing.AsyncValue}, &info)
		default:
			value, parseErr := strconv.ParseFloat(args[1], 64)
			if parseErr != nil {
				return fmt.Errorf("invalid value '%s': %v", args[1], parseErr)
			}
			err = call(http.MethodPost, path, map[string]float64{"value": value}, &info)
		}
		if err != nil {
			return err
		}

		pterm.EnableOutput()
		ui.Success(formatInfo(info))
		return nil
	},
}

func init() {
	Command.AddCommand(setCmd)
}
