package configuration

import (
	"os"
	"time"

	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	// RestoreState restores the last persisted device state on startup
	RestoreState bool `json:"restoreState"`

	PublishRate time.Duration `json:"publishRate"`
	PersistRate time.Duration `json:"persistRate"`
	HistorySize int           `json:"historySize"`

	Encoders   EncoderConfig    `json:"encoders"`
	Emergency  EmergencyConfig  `json:"emergency"`
	Hardware   HardwareConfig   `json:"hardware"`
	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`
	Mqtt       MqttConfig       `json:"mqtt"`
	Profiling  ProfilingConfig  `json:"profiling"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("pace2go")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/pace2go/")
	}

	viper.SetEnvPrefix("PACE2GO")
	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dbpath", "/etc/pace2go/pace2go.db")
	v.SetDefault("RestoreState", true)
	v.SetDefault("PublishRate", 100*time.Millisecond)
	v.SetDefault("PersistRate", 1*time.Second)
	v.SetDefault("HistorySize", 600)

	v.SetDefault("encoders.GlitchThreshold", 10)
	v.SetDefault("encoders.WatchdogTimeout", 3*time.Second)
	v.SetDefault("encoders.WatchdogRate", 500*time.Millisecond)
	v.SetDefault("encoders.ActivityWindow", 20)

	v.SetDefault("emergency.ExitMode", pacing.ModeVVI.String())

	v.SetDefault("hardware.Enabled", false)
	v.SetDefault("hardware.Chip", "gpiochip0")
	v.SetDefault("hardware.Debounce", 300*time.Millisecond)
	v.SetDefault("hardware.encoders.rate.clk", 27)
	v.SetDefault("hardware.encoders.rate.dt", 22)
	v.SetDefault("hardware.encoders.aOutput.clk", 21)
	v.SetDefault("hardware.encoders.aOutput.dt", 20)
	v.SetDefault("hardware.encoders.vOutput.clk", 13)
	v.SetDefault("hardware.encoders.vOutput.dt", 6)
	v.SetDefault("hardware.encoders.sensitivity.clk", 10)
	v.SetDefault("hardware.encoders.sensitivity.dt", 9)
	v.SetDefault("hardware.buttons.lock", 17)
	v.SetDefault("hardware.buttons.up", 26)
	v.SetDefault("hardware.buttons.down", 16)
	v.SetDefault("hardware.buttons.left", 18)
	v.SetDefault("hardware.buttons.emergency", 23)

	v.SetDefault("api.Enabled", true)
	v.SetDefault("api.Host", "0.0.0.0")
	v.SetDefault("api.Port", 5000)
	v.SetDefault("api.AdminToken", "")

	v.SetDefault("statistics.Enabled", false)
	v.SetDefault("statistics.Port", 9000)

	v.SetDefault("mqtt.Enabled", false)
	v.SetDefault("mqtt.Broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.Topic", "pace2go/state")
	v.SetDefault("mqtt.ClientId", "pace2go")
	v.SetDefault("mqtt.Qos", 0)

	v.SetDefault("profiling.Enabled", false)
	v.SetDefault("profiling.Host", "localhost")
	v.SetDefault("profiling.Port", 6060)
}

// ReadConfigFile reads the config file if one is found, a missing file is not fatal
func ReadConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			ui.Fatal("Error reading config file, %s", err)
		}
		ui.Warning("No configuration file found, using defaults")
	} else {
		// this is only populated _after_ ReadInConfig()
		ui.Info("Using configuration file at: %s", viper.ConfigFileUsed())
	}

	LoadConfig()
}

func LoadConfig() {
	// load default configuration values
	err := viper.Unmarshal(&CurrentConfig, viper.DecodeHook(decodeHook()))
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		modeHookFunc(),
	)
}

// DefaultConfigYaml renders all default values as a configuration file
func DefaultConfigYaml() ([]byte, error) {
	v := viper.New()
	setDefaults(v)
	settings := v.AllSettings()
	formatDurations(settings)
	return yaml.Marshal(settings)
}

// formatDurations replaces durations with their string form, e.g. "300ms"
func formatDurations(settings map[string]interface{}) {
	for key, value := range settings {
		switch typed := value.(type) {
		case time.Duration:
			settings[key] = typed.String()
		case map[string]interface{}:
			formatDurations(typed)
		}
	}
}
