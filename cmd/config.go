package cmd

import (
	"strings"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mikaelmello/echoping/core"
)

const (
	envPrefix = "ECHOPING"

	cfgAddress    = "ip"
	cfgCount      = "packet-num"
	cfgTimeout    = "timeout"
	cfgTTL        = "ttl"
	cfgPrivileged = "privileged"
	cfgQuiet      = "quiet"
	cfgMetrics    = "metrics"
	cfgVerbose    = "verbose"
	cfgConfigFile = "config"
)

// config is the merged result of flags, environment and config file
type config struct {
	Address  string
	Settings *core.Settings
	Quiet    bool
	Metrics  bool
}

// addFlags declares the command line flags, their defaults are the default settings
func addFlags(flags *flag.FlagSet) {
	defaults := core.DefaultSettings()

	flags.StringP(cfgAddress, "i", "8.8.8.8", "IPv4 address of the target host")
	flags.IntP(cfgCount, "p", defaults.Count, "Amount of echo requests to send")
	flags.DurationP(cfgTimeout, "t", defaults.Timeout, "Time to wait for each reply")
	flags.Int(cfgTTL, defaults.TTL, "Time to live of outgoing echo requests")
	flags.Bool(cfgPrivileged, defaults.IsPrivileged, "Use a raw socket instead of a datagram socket")
	flags.BoolP(cfgQuiet, "q", false, "Only print the header and the statistics")
	flags.Bool(cfgMetrics, false, "Print the metrics of the run in Prometheus text format")
	flags.CountP(cfgVerbose, "v", "Increase logging verbosity, can be repeated")
	flags.StringP(cfgConfigFile, "c", "", "Path to a config file (json, yaml or toml)")
}

// loadConfig merges the flags with ECHOPING_* environment variables and the optional config file.
// Flags set explicitly take precedence over the environment, which takes precedence over the file.
func loadConfig(flags *flag.FlagSet) (*config, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, errors.Wrap(err, "binding flags")
	}

	if path := v.GetString(cfgConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "%v: reading config file %q",
				core.ErrInvalidSettings, path), core.ErrInvalidSettings)
		}
	}

	settings := core.DefaultSettings()
	settings.Count = v.GetInt(cfgCount)
	settings.Timeout = v.GetDuration(cfgTimeout)
	settings.TTL = v.GetInt(cfgTTL)
	settings.IsPrivileged = v.GetBool(cfgPrivileged)
	settings.LoggingLevel = verbosityLevel(v.GetInt(cfgVerbose))

	return &config{
		Address:  v.GetString(cfgAddress),
		Settings: settings,
		Quiet:    v.GetBool(cfgQuiet),
		Metrics:  v.GetBool(cfgMetrics),
	}, nil
}

// verbosityLevel raises the default warn level by one per verbose flag, up to trace
func verbosityLevel(verbose int) uint32 {
	level := int(log.WarnLevel) + verbose
	if level > int(log.TraceLevel) {
		level = int(log.TraceLevel)
	}
	if level < int(log.PanicLevel) {
		level = int(log.PanicLevel)
	}
	return uint32(level)
}
