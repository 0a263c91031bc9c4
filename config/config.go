// Package config loads the node configuration: defaults, then an optional
// YAML file, then ZKVOTE_* environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"github.com/vocdoni/zkvote-core/audit"
	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/types"
	"github.com/vocdoni/zkvote-core/util"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ZKVOTE_API_PORT or
// ZKVOTE_PROOFS_MAX_CLOCK_SKEW.
const EnvPrefix = "zkvote"

// Blob store backends.
const (
	BlobBackendStorage = "storage"
	BlobBackendBadger  = "badger"
)

type Config struct {
	Datadir   string                   `yaml:"datadir"   split_words:"true"`
	Log       LogConfig                `yaml:"log"       split_words:"true"`
	API       APIConfig                `yaml:"api"       split_words:"true"`
	Blob      BlobConfig               `yaml:"blob"      split_words:"true"`
	Audit     AuditConfig              `yaml:"audit"     split_words:"true"`
	Bootstrap BootstrapConfig          `yaml:"bootstrap" split_words:"true"`
	Authority AuthorityConfig          `yaml:"authority" split_words:"true"`
	Proofs    ProofsConfig             `yaml:"proofs"    split_words:"true"`
	Circuits  map[string]CircuitConfig `yaml:"circuits"  ignored:"true"`
	Monitor   MonitorConfig            `yaml:"monitor"   split_words:"true"`
}

type LogConfig struct {
	Level       string `yaml:"level"       split_words:"true"`
	Output      string `yaml:"output"      split_words:"true"`
	ErrorOutput string `yaml:"errorOutput" split_words:"true"`
}

type APIConfig struct {
	Host string `yaml:"host" split_words:"true"`
	Port int    `yaml:"port" split_words:"true"`
}

type BlobConfig struct {
	Backend string `yaml:"backend" split_words:"true"`
	// Path of the badger directory, relative to Datadir. Empty keeps the
	// badger store in memory.
	Path string `yaml:"path" split_words:"true"`
}

type AuditConfig struct {
	Driver string `yaml:"driver" split_words:"true"`
	// DSN is the postgres connection string, or the sqlite directory.
	DSN string `yaml:"dsn" split_words:"true"`
}

// BootstrapConfig names the admin registered at start, if any.
type BootstrapConfig struct {
	Address    string `yaml:"address"    split_words:"true"`
	OfficialID string `yaml:"officialId" split_words:"true"`
}

type AuthorityConfig struct {
	UniqueOfficialID bool `yaml:"uniqueOfficialId" split_words:"true"`
	RequireZKProof   bool `yaml:"requireZkProof"   split_words:"true"`
}

type ProofsConfig struct {
	HumanityWindow  time.Duration `yaml:"humanityWindow"  split_words:"true"`
	AuthorityWindow time.Duration `yaml:"authorityWindow" split_words:"true"`
	MaxClockSkew    time.Duration `yaml:"maxClockSkew"    split_words:"true"`
}

// CircuitConfig locates the artifacts of one circuit. Hashes are hex
// sha256 digests.
type CircuitConfig struct {
	WasmURL  string `yaml:"wasmUrl"`
	WasmHash string `yaml:"wasmHash"`
	ZkeyURL  string `yaml:"zkeyUrl"`
	ZkeyHash string `yaml:"zkeyHash"`
	VkeyURL  string `yaml:"vkeyUrl"`
	VkeyHash string `yaml:"vkeyHash"`
}

// MonitorConfig drives the election expiry monitor. Key is the hex private
// key of a registered authority holding end_election.
type MonitorConfig struct {
	Enabled  bool          `yaml:"enabled"  split_words:"true"`
	Interval time.Duration `yaml:"interval" split_words:"true"`
	Key      string        `yaml:"key"      split_words:"true"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	datadir := filepath.Join(os.TempDir(), "zkvote")
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		datadir = filepath.Join(home, ".zkvote")
	}
	return &Config{
		Datadir: datadir,
		Log: LogConfig{
			Level:  "info",
			Output: "stdout",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 9090,
		},
		Blob: BlobConfig{
			Backend: BlobBackendStorage,
			Path:    "blobs",
		},
		Audit: AuditConfig{
			Driver: audit.DriverSQLite,
		},
		Proofs: ProofsConfig{
			HumanityWindow:  circuits.HumanityValidity,
			AuthorityWindow: circuits.AuthorityValidity,
			MaxClockSkew:    30 * time.Second,
		},
		Circuits: map[string]CircuitConfig{},
		Monitor: MonitorConfig{
			Interval: 30 * time.Second,
		},
	}
}

// Load returns the defaults overridden by file (if not empty) and by the
// environment.
func Load(file string) (*Config, error) {
	cfg := Default()
	if file != "" {
		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the node cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Datadir == "" {
		errs = append(errs, errors.New("datadir is empty"))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid api port %d", c.API.Port))
	}
	switch c.Blob.Backend {
	case BlobBackendStorage, BlobBackendBadger:
	default:
		errs = append(errs, fmt.Errorf("unknown blob backend %q", c.Blob.Backend))
	}
	switch c.Audit.Driver {
	case audit.DriverSQLite, audit.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown audit driver %q", c.Audit.Driver))
	}
	if c.Audit.Driver == audit.DriverPostgres && c.Audit.DSN == "" {
		errs = append(errs, errors.New("postgres audit log needs a dsn"))
	}
	if c.Proofs.HumanityWindow <= 0 || c.Proofs.AuthorityWindow <= 0 {
		errs = append(errs, errors.New("proof windows must be positive"))
	}
	if c.Proofs.MaxClockSkew < 0 {
		errs = append(errs, errors.New("max clock skew cannot be negative"))
	}
	if c.Bootstrap.Address != "" {
		if !common.IsHexAddress(c.Bootstrap.Address) {
			errs = append(errs, fmt.Errorf("invalid bootstrap address %q", c.Bootstrap.Address))
		}
		if c.Bootstrap.OfficialID == "" {
			errs = append(errs, errors.New("bootstrap admin needs an official id"))
		}
	}
	if c.Monitor.Enabled {
		if c.Monitor.Interval <= 0 {
			errs = append(errs, errors.New("monitor interval must be positive"))
		}
		if c.Monitor.Key == "" {
			errs = append(errs, errors.New("monitor needs an authority key"))
		}
		if c.Authority.RequireZKProof {
			errs = append(errs, errors.New("monitor cannot sign zk authority proofs, disable requireZkProof or the monitor"))
		}
	}
	for name := range c.Circuits {
		if _, err := circuits.ParseCircuitID(name); err != nil {
			errs = append(errs, fmt.Errorf("circuits: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", types.ErrInputDomain, errors.Join(errs...))
	}
	return nil
}

// Path resolves p against Datadir unless it is absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Datadir, p)
}

// ArtifactSet builds the circuit artifact set from the circuits section.
func (c *Config) ArtifactSet() (circuits.ArtifactSet, error) {
	set := circuits.ArtifactSet{}
	for name, cc := range c.Circuits {
		id, err := circuits.ParseCircuitID(name)
		if err != nil {
			return nil, err
		}
		wasm, err := artifact(cc.WasmURL, cc.WasmHash)
		if err != nil {
			return nil, fmt.Errorf("%s wasm: %w", name, err)
		}
		zkey, err := artifact(cc.ZkeyURL, cc.ZkeyHash)
		if err != nil {
			return nil, fmt.Errorf("%s zkey: %w", name, err)
		}
		vkey, err := artifact(cc.VkeyURL, cc.VkeyHash)
		if err != nil {
			return nil, fmt.Errorf("%s vkey: %w", name, err)
		}
		set[id] = circuits.NewCircuitArtifacts(id, wasm, zkey, vkey)
	}
	return set, nil
}

func artifact(url, hash string) (*circuits.Artifact, error) {
	if hash == "" {
		return nil, nil
	}
	h, err := hex.DecodeString(util.TrimHex(hash))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hash %q", types.ErrInputDomain, hash)
	}
	return &circuits.Artifact{RemoteURL: url, Hash: h}, nil
}
