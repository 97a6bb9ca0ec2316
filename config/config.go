package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/0xERR0R/rpzindex/log"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v2"
)

// Duration wraps time.Duration so it can be read from YAML either as a
// Go duration string ("90s") or, for backwards compatibility with
// blocky's convention, a bare number of minutes.
type Duration time.Duration

func (c Duration) String() string {
	return time.Duration(c).String()
}

func (c *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var input string
	if err := unmarshal(&input); err != nil {
		return err
	}

	if minutes, err := strconv.Atoi(input); err == nil {
		*c = Duration(time.Duration(minutes) * time.Minute)

		return nil
	}

	d, err := time.ParseDuration(input)
	if err != nil {
		return err
	}

	*c = Duration(d)

	return nil
}

// ListenConfig is a comma-separated list of address(es) to listen on.
type ListenConfig []string

func (l *ListenConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var addresses string
	if err := unmarshal(&addresses); err != nil {
		return err
	}

	*l = strings.Split(addresses, ",")

	return nil
}

// PrometheusConfig controls the /metrics endpoint.
type PrometheusConfig struct {
	Enable bool   `yaml:"enable" default:"false"`
	Path   string `yaml:"path" default:"/metrics"`
}

// APIConfig controls the admin HTTP API.
type APIConfig struct {
	Addrs ListenConfig `yaml:"addrs" default:"[\"127.0.0.1:4000\"]"`
	CORS  CORSConfig   `yaml:"cors"`
}

// CORSConfig mirrors go-chi/cors.Options for the subset the API exposes.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins" default:"[\"*\"]"`
}

// Config is the root configuration of an rpzindex process: the index
// itself has no configuration, but the ambient shell around it
// (logging, metrics, the admin API, the optional redis notifier) does.
type Config struct {
	MaxZones uint8 `yaml:"maxZones" default:"64"`

	Log        log.Config       `yaml:"log"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	API        APIConfig        `yaml:"api"`
	Redis      RedisConfig      `yaml:"redis"`

	// QnameWaitRecurse disables the qname skip-recurse short-circuit
	// (I3): when true, Index.SkipRecurseMask reports 0, so no zone may
	// skip recursion.
	QnameWaitRecurse bool `yaml:"qnameWaitRecurse" default:"false"`

	// BadOwnerLogLevel is parsed from configuration (default warn), but
	// no component reads it: a malformed canonical owner name
	// (ErrBadOwnerFormat) is returned as an error, and the reload
	// endpoint lists it in its response; it is not logged.
	BadOwnerLogLevel log.Level `yaml:"badOwnerLogLevel" default:"warn"`
}

// nolint:gochecknoglobals
var (
	config  = &Config{}
	cfgLock sync.RWMutex
)

// LoadConfig creates a new Config from a YAML file, or from every
// *.yml/*.yaml file in a directory (concatenated in lexical order). If
// path does not exist and mandatory is false, a config with only
// default values is returned.
func LoadConfig(path string, mandatory bool) (*Config, error) {
	cfgLock.Lock()
	defer cfgLock.Unlock()

	cfg := Config{}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("can't apply default values: %w", err)
	}

	fs, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mandatory {
			config = &cfg

			return config, nil
		}

		return nil, fmt.Errorf("can't read config file(s): %w", err)
	}

	var data []byte

	if fs.IsDir() {
		data, err = readFromDir(path, data)
		if err != nil {
			return nil, fmt.Errorf("can't read config files: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("can't read config file: %w", err)
		}
	}

	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("can't unmarshal config: %w", err)
	}

	config = &cfg

	return &cfg, nil
}

func readFromDir(path string, data []byte) ([]byte, error) {
	err := filepath.WalkDir(path, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == filePath {
			return nil
		}

		if !strings.HasSuffix(filePath, ".yml") && !strings.HasSuffix(filePath, ".yaml") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		fileData, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		data = append(data, []byte("\n")...)
		data = append(data, fileData...)

		return nil
	})

	return data, err
}

// GetConfig returns the most recently loaded configuration.
func GetConfig() *Config {
	cfgLock.RLock()
	defer cfgLock.RUnlock()

	return config
}
