package configuration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/markusressel/pace2go/internal/ui"
	"github.com/markusressel/pace2go/internal/util"
	"golang.org/x/exp/slices"
)

func Validate(configPath string) error {
	if len(configPath) > 0 {
		ui.Debug("Validating configuration at %s", configPath)
	}
	return validateConfig(&CurrentConfig)
}

func validateConfig(config *Configuration) error {
	err := validateGeneral(config)
	if err != nil {
		return err
	}
	err = validateEncoders(config)
	if err != nil {
		return err
	}
	err = validateEmergency(config)
	if err != nil {
		return err
	}
	err = validateHardware(config)
	if err != nil {
		return err
	}
	return validateServices(config)
}

func validateGeneral(config *Configuration) error {
	if len(config.DbPath) <= 0 {
		return errors.New("dbPath must not be empty")
	}
	if config.PublishRate <= 0 {
		return errors.New(fmt.Sprintf("publishRate must be positive, was %s", config.PublishRate))
	}
	if config.PersistRate <= 0 {
		return errors.New(fmt.Sprintf("persistRate must be positive, was %s", config.PersistRate))
	}
	if config.HistorySize < 0 {
		return errors.New(fmt.Sprintf("historySize must not be negative, was %d", config.HistorySize))
	}
	return nil
}

func validateEncoders(config *Configuration) error {
	encoders := config.Encoders
	if encoders.GlitchThreshold <= 0 {
		return errors.New(fmt.Sprintf("encoders: glitchThreshold must be >= 1, was %d", encoders.GlitchThreshold))
	}
	if encoders.WatchdogTimeout <= 0 {
		return errors.New(fmt.Sprintf("encoders: watchdogTimeout must be positive, was %s", encoders.WatchdogTimeout))
	}
	if encoders.WatchdogRate <= 0 {
		return errors.New(fmt.Sprintf("encoders: watchdogRate must be positive, was %s", encoders.WatchdogRate))
	}
	if encoders.ActivityWindow <= 0 {
		return errors.New(fmt.Sprintf("encoders: activityWindow must be >= 1, was %d", encoders.ActivityWindow))
	}
	return nil
}

func validateEmergency(config *Configuration) error {
	mode := config.Emergency.ExitMode
	if !mode.Valid() {
		return errors.New(fmt.Sprintf("emergency: invalid exitMode %d", int(mode)))
	}
	if mode.IsEmergency() {
		return errors.New(fmt.Sprintf("emergency: exitMode must not be the emergency mode itself (%s)", mode))
	}
	return nil
}

func validateHardware(config *Configuration) error {
	hardware := config.Hardware
	if !hardware.Enabled {
		return nil
	}
	if len(hardware.Chip) <= 0 {
		return errors.New("hardware: chip must not be empty")
	}
	if hardware.Debounce < 0 {
		return errors.New(fmt.Sprintf("hardware: debounce must not be negative, was %s", hardware.Debounce))
	}

	lines := HardwareLines(hardware)
	used := map[int]string{}
	// sorted to keep error messages stable across runs
	for _, name := range util.SortedKeys(lines) {
		offset := lines[name]
		if offset < 0 {
			return errors.New(fmt.Sprintf("hardware: invalid line offset %d for %s", offset, name))
		}
		if other, ok := used[offset]; ok {
			return errors.New(fmt.Sprintf("hardware: line %d is used by both %s and %s", offset, other, name))
		}
		used[offset] = name
	}
	return nil
}

// HardwareLines maps every configured line to the name of its role
func HardwareLines(hardware HardwareConfig) map[string]int {
	encoders := hardware.Encoders
	buttons := hardware.Buttons
	return map[string]int{
		"encoders.rate.clk":        encoders.Rate.Clk,
		"encoders.rate.dt":         encoders.Rate.Dt,
		"encoders.aOutput.clk":     encoders.AOutput.Clk,
		"encoders.aOutput.dt":      encoders.AOutput.Dt,
		"encoders.vOutput.clk":     encoders.VOutput.Clk,
		"encoders.vOutput.dt":      encoders.VOutput.Dt,
		"encoders.sensitivity.clk": encoders.Sensitivity.Clk,
		"encoders.sensitivity.dt":  encoders.Sensitivity.Dt,
		"buttons.lock":             buttons.Lock,
		"buttons.up":               buttons.Up,
		"buttons.down":             buttons.Down,
		"buttons.left":             buttons.Left,
		"buttons.emergency":        buttons.Emergency,
	}
}

func validateServices(config *Configuration) error {
	var ports []string
	if config.Api.Enabled {
		if !validPort(config.Api.Port) {
			return errors.New(fmt.Sprintf("api: invalid port %d", config.Api.Port))
		}
		ports = append(ports, fmt.Sprintf("%d", config.Api.Port))
	}
	if config.Statistics.Enabled {
		if !validPort(config.Statistics.Port) {
			return errors.New(fmt.Sprintf("statistics: invalid port %d", config.Statistics.Port))
		}
		port := fmt.Sprintf("%d", config.Statistics.Port)
		if slices.Contains(ports, port) {
			return errors.New(fmt.Sprintf("statistics: port %s is already used by the api", port))
		}
	}
	if config.Mqtt.Enabled {
		if len(strings.TrimSpace(config.Mqtt.Broker)) <= 0 {
			return errors.New("mqtt: broker must not be empty")
		}
		if len(strings.TrimSpace(config.Mqtt.Topic)) <= 0 {
			return errors.New("mqtt: topic must not be empty")
		}
		if config.Mqtt.Qos > 2 {
			return errors.New(fmt.Sprintf("mqtt: invalid qos %d, use one of: 0 | 1 | 2", config.Mqtt.Qos))
		}
	}
	if config.Profiling.Enabled && !validPort(config.Profiling.Port) {
		return errors.New(fmt.Sprintf("profiling: invalid port %d", config.Profiling.Port))
	}
	return nil
}

func validPort(port int) bool {
	return port > 0 && port < 65536
}
