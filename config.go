package inblock

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the file/environment form of the Bind options.
type Config struct {
	SmallBins     SizeClassConfig `mapstructure:"small_bins"`
	SmallBinShare float64         `mapstructure:"small_bin_share"`
	RefillRounds  int             `mapstructure:"refill_rounds"`
	Coalescing    string          `mapstructure:"coalescing"`
	Log           LogConfig       `mapstructure:"log"`
}

// SizeClassConfig mirrors SizeClasses.
type SizeClassConfig struct {
	Min   int `mapstructure:"min"`
	Gap   int `mapstructure:"gap"`
	Count int `mapstructure:"count"`
}

// DefaultConfig returns the configuration matching Bind's defaults.
func DefaultConfig() Config {
	return Config{
		SmallBins: SizeClassConfig{
			Min:   DefaultSizeClasses.Min,
			Gap:   DefaultSizeClasses.Gap,
			Count: DefaultSizeClasses.Count,
		},
		SmallBinShare: DefaultSmallBinShare,
		RefillRounds:  DefaultRefillRounds,
		Coalescing:    DeferredCoalescing.Name(),
		Log:           LogConfig{Level: "INFO", Format: "text"},
	}
}

// LoadConfig reads the configuration from file (optional, any format viper
// understands) and from environment variables named prefix + key, e.g.
// INBLOCK_SMALL_BINS_COUNT or INBLOCK_COALESCING. Unset keys keep their
// DefaultConfig values.
func LoadConfig(file, prefix string) (Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("small_bins.min", def.SmallBins.Min)
	v.SetDefault("small_bins.gap", def.SmallBins.Gap)
	v.SetDefault("small_bins.count", def.SmallBins.Count)
	v.SetDefault("small_bin_share", def.SmallBinShare)
	v.SetDefault("refill_rounds", def.RefillRounds)
	v.SetDefault("coalescing", def.Coalescing)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", file)
		}
	}
	if prefix != "" {
		v.SetEnvPrefix(strings.TrimSuffix(prefix, "_"))
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return cfg, nil
}

// Options converts cfg into Bind options. The logger is not included;
// build one with NewLogger(cfg.Log, w) and pass it with WithLogger.
func (cfg Config) Options() ([]Option, error) {
	policy, err := CoalescePolicyByName(cfg.Coalescing)
	if err != nil {
		return nil, err
	}
	o := defaultOptions()
	o.classes = SizeClasses{Min: cfg.SmallBins.Min, Gap: cfg.SmallBins.Gap, Count: cfg.SmallBins.Count}
	o.share = cfg.SmallBinShare
	o.refillRounds = cfg.RefillRounds
	o.coalescing = policy
	if err := o.validate(); err != nil {
		return nil, err
	}
	return []Option{
		WithSizeClasses(o.classes),
		WithSmallBinShare(o.share),
		WithRefillRounds(o.refillRounds),
		WithCoalescing(o.coalescing),
	}, nil
}
