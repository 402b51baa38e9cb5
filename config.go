package lmg

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// NoiseConfig configures the noisy backend.
type NoiseConfig struct {
	Params       []string           `mapstructure:"params"`
	V0           map[string]float64 `mapstructure:"v0"`
	Sigmas       map[string]float64 `mapstructure:"sigmas"`
	Trajectories int                `mapstructure:"trajectories"`
	PulseTime    float64            `mapstructure:"pulse_time"`
}

// Config holds everything an experiment run reads from file or environment.
type Config struct {
	ResultsDir        string        `mapstructure:"results_dir"`
	Samples           int           `mapstructure:"samples"`
	GridSamples       int           `mapstructure:"grid_samples"`
	GridQubits        int           `mapstructure:"grid_qubits"`
	Backend           string        `mapstructure:"backend"`
	PostSelection     bool          `mapstructure:"post_selection"`
	Noise             NoiseConfig   `mapstructure:"noise"`
	Seed              uint64        `mapstructure:"seed"`
	Cutoff            float64       `mapstructure:"cutoff"`
	Workers           int           `mapstructure:"workers"`
	SchedulingTimeout time.Duration `mapstructure:"scheduling_timeout"`
	JobTimeout        time.Duration `mapstructure:"job_timeout"`
	Retries           int           `mapstructure:"retries"`
	RateLimit         float64       `mapstructure:"rate_limit"`
	RateBurst         int           `mapstructure:"rate_burst"`
	Ledger            string        `mapstructure:"ledger"`
	Parameters        string        `mapstructure:"parameters"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("results_dir", "results")
	v.SetDefault("samples", 10000)
	v.SetDefault("grid_samples", 1<<13)
	v.SetDefault("grid_qubits", 1)
	v.SetDefault("backend", "noisy")
	v.SetDefault("post_selection", true)
	v.SetDefault("noise.params", []string{NoisePower12, NoiseFreq1, NoisePhase1, NoiseTime})
	v.SetDefault("noise.v0", map[string]float64{
		NoisePower12: 5e-4, NoiseFreq1: 5e3, NoisePhase1: 5e-2, NoiseTime: 5e-3,
	})
	v.SetDefault("noise.sigmas", map[string]float64{
		NoisePower12: 5e-4, NoiseFreq1: 5e3, NoisePhase1: 5e-2, NoiseTime: 5e-3,
	})
	v.SetDefault("noise.trajectories", defaultTrials)
	v.SetDefault("noise.pulse_time", defaultPulse)
	v.SetDefault("seed", 1)
	v.SetDefault("cutoff", DefaultCutoff)
	v.SetDefault("workers", 4)
	v.SetDefault("scheduling_timeout", 10*time.Second)
	v.SetDefault("job_timeout", 10*time.Minute)
	v.SetDefault("retries", 1)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_burst", 1)
	v.SetDefault("ledger", "")
	v.SetDefault("parameters", "")
}

// NewConfig returns the defaults without reading a file or the environment.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(err)
	}
	return cfg
}

/*
LoadConfig reads path, when not empty, over the defaults and then applies
LMG_* environment variables (LMG_SAMPLES, LMG_NOISE_TRAJECTORIES, ...).
*/
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LMG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings no run can use.
func (c *Config) Validate() error {
	if c.Samples <= 0 || c.GridSamples <= 0 {
		return errors.Errorf("sample counts must be positive, got %d and %d", c.Samples, c.GridSamples)
	}

	if c.GridQubits < 1 || c.GridQubits > MaxQubits {
		return errors.Wrapf(ErrInvalidQubits, "grid_qubits %d", c.GridQubits)
	}

	if c.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}

	if c.RateLimit < 0 {
		return errors.Errorf("rate_limit must not be negative, got %g", c.RateLimit)
	}

	if c.Cutoff <= 0 {
		return errors.Errorf("cutoff must be positive, got %g", c.Cutoff)
	}

	switch c.Backend {
	case "emulator", "noisy":
	default:
		return errors.Wrap(ErrUnknownBackend, c.Backend)
	}

	return c.NoiseModel().Validate()
}

// NoiseModel converts the noise section into a model seeded from Seed.
func (c *Config) NoiseModel() NoiseModel {
	return NoiseModel{
		Params:       c.Noise.Params,
		V0:           c.Noise.V0,
		Sigmas:       c.Noise.Sigmas,
		Trajectories: c.Noise.Trajectories,
		PulseTime:    c.Noise.PulseTime,
		Seed:         c.Seed,
	}
}
