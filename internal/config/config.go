package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"condorcet_dao/contract"
	"condorcet_dao/contract/condorcet"
	"condorcet_dao/sdk"
)

type ctxKey string

const configContextKey ctxKey = "condorcet.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

var ErrInvalidPeriod = errors.New("invalid voting period")

// Config is the local host setup. The module policy fields only seed `condorcet init`.
type Config struct {
	DataDir           string `yaml:"dataDir"           split_words:"true"`
	InMemory          bool   `yaml:"inMemory"          split_words:"true"`
	LogLevel          string `yaml:"logLevel"          split_words:"true"`
	MetricsListenAddr string `yaml:"metricsListenAddr" split_words:"true"`
	ChainID           string `yaml:"chainId"           envconfig:"CHAIN_ID"`
	PowerFile         string `yaml:"powerFile"         split_words:"true"`
	// module defaults
	DAO                     string `yaml:"dao"                     envconfig:"DAO"`
	Quorum                  string `yaml:"quorum"`
	VotingPeriod            string `yaml:"votingPeriod"            split_words:"true"`
	MinVotingPeriod         string `yaml:"minVotingPeriod"         split_words:"true"`
	CloseOnExecutionFailure bool   `yaml:"closeOnExecutionFailure" split_words:"true"`
}

func Defaults() *Config {
	return &Config{
		DataDir:           ".condorcet",
		LogLevel:          "info",
		MetricsListenAddr: ":12799",
		ChainID:           "local",
		DAO:               "contract:dao-core",
		Quorum:            "majority",
		VotingPeriod:      "height:100",
	}
}

// LoadConfig reads the optional yaml file over the defaults, then applies CONDORCET_* env vars.
func LoadConfig(configFile string) (*Config, error) {
	cfg := Defaults()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("condorcet", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if _, err := cfg.ModuleConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ModuleConfig turns the string defaults into a validated module config.
func (c *Config) ModuleConfig() (contract.Config, error) {
	quorum, err := ParseQuorum(c.Quorum)
	if err != nil {
		return contract.Config{}, err
	}
	period, err := ParseDuration(c.VotingPeriod)
	if err != nil {
		return contract.Config{}, err
	}
	out := contract.Config{
		Quorum:                           quorum,
		VotingPeriod:                     period,
		CloseProposalsOnExecutionFailure: c.CloseOnExecutionFailure,
		DAO:                              sdk.Address(c.DAO),
	}
	if c.MinVotingPeriod != "" {
		minPeriod, err := ParseDuration(c.MinVotingPeriod)
		if err != nil {
			return contract.Config{}, err
		}
		out.MinVotingPeriod = &minPeriod
	}
	if err := out.Validate(); err != nil {
		return contract.Config{}, err
	}
	return out, nil
}

// ParseQuorum reads "majority" (or nothing) or a decimal percent like "0.33".
func ParseQuorum(s string) (condorcet.PercentageThreshold, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "majority" {
		return condorcet.Majority(), nil
	}
	t, err := condorcet.ParsePercent(s)
	if err != nil {
		return condorcet.PercentageThreshold{}, fmt.Errorf("quorum: %w", err)
	}
	return t, nil
}

// ParseDuration reads "height:100" or "time:3600". A bare number is a block count.
func ParseDuration(s string) (condorcet.Duration, error) {
	kind, value, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		kind, value = "height", kind
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return condorcet.Duration{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	switch kind {
	case "height":
		return condorcet.Height(n), nil
	case "time":
		return condorcet.Time(n), nil
	default:
		return condorcet.Duration{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, kind)
	}
}

// PowerFile lists voting power checkpoints, the stand in for a voting power module.
type PowerFile struct {
	Members []PowerEntry `yaml:"members"`
}

type PowerEntry struct {
	Address string `yaml:"address"`
	Height  uint64 `yaml:"height"`
	Power   string `yaml:"power"`
}

// LoadPowerTable reads a power file into a contract.PowerTable.
func LoadPowerTable(path string) (*contract.PowerTable, error) {
	table := contract.NewPowerTable()
	if path == "" {
		return table, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading power file: %w", err)
	}
	var f PowerFile
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, fmt.Errorf("error parsing power file: %w", err)
	}
	for _, m := range f.Members {
		p, err := uint256.FromDecimal(m.Power)
		if err != nil {
			return nil, fmt.Errorf("power of %s: %w", m.Address, err)
		}
		if err := table.Set(sdk.Address(m.Address), m.Height, p); err != nil {
			return nil, fmt.Errorf("power of %s: %w", m.Address, err)
		}
	}
	return table, nil
}
