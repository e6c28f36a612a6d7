package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

const (
	configDirName  = ".library"
	configFileName = "config.yml"
)

// Config represents the CLI configuration.
type Config struct {
	APIHost   string           `json:"api_host,omitempty" yaml:"api_host,omitempty"`
	Output    string           `json:"output"             yaml:"output"`
	NoColor   bool             `json:"no_color"           yaml:"no_color"`
	PageSize  int              `json:"page_size"          yaml:"page_size"`
	RateLimit float64          `json:"rate_limit"         yaml:"rate_limit"`
	Cache     CacheSettings    `json:"cache"              yaml:"cache"`
	ImageKit  ImageKitSettings `json:"imagekit"           yaml:"imagekit"`
}

// CacheSettings selects the persistent backend of the query cache.
type CacheSettings struct {
	Type  string        `json:"type"  yaml:"type"`
	NATS  NATSSettings  `json:"nats"  yaml:"nats"`
	Redis RedisSettings `json:"redis" yaml:"redis"`
}

// NATSSettings configures the NATS KV backend.
type NATSSettings struct {
	URL    string `json:"url,omitempty"    yaml:"url,omitempty"`
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
}

// RedisSettings configures the Redis backend.
type RedisSettings struct {
	Addr     string `json:"addr,omitempty"     yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db"                 yaml:"db"`
}

// ImageKitSettings configures cover uploads.
type ImageKitSettings struct {
	PublicKey    string `json:"public_key,omitempty"    yaml:"public_key,omitempty"`
	PrivateKey   string `json:"private_key,omitempty"   yaml:"private_key,omitempty"`
	AuthEndpoint string `json:"auth_endpoint,omitempty" yaml:"auth_endpoint,omitempty"`
	UploadURL    string `json:"upload_url,omitempty"    yaml:"upload_url,omitempty"`
}

// configKey describes one settable key.
type configKey struct {
	get    func(c *Config) string
	set    func(c *Config, value string) error
	unset  func(c *Config)
	secret bool
}

var configKeys = map[string]configKey{
	"api_host": {
		get:   func(c *Config) string { return c.APIHost },
		set:   func(c *Config, v string) error { c.APIHost = v; return nil },
		unset: func(c *Config) { c.APIHost = "" },
	},
	"output": {
		get: func(c *Config) string { return c.Output },
		set: func(c *Config, v string) error {
			switch v {
			case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
				c.Output = v

				return nil
			default:
				return fmt.Errorf("%w: %q", constants.ErrInvalidOutputFormat, v)
			}
		},
		unset: func(c *Config) { c.Output = constants.FormatTable },
	},
	"no_color": {
		get:   func(c *Config) string { return strconv.FormatBool(c.NoColor) },
		set:   func(c *Config, v string) error { c.NoColor = parseBoolValue(v); return nil },
		unset: func(c *Config) { c.NoColor = false },
	},
	"page_size": {
		get: func(c *Config) string { return strconv.Itoa(c.PageSize) },
		set: func(c *Config, v string) error {
			size, err := strconv.Atoi(v)
			if err != nil || size < 1 || size > constants.MaxPageSize {
				return fmt.Errorf("%w: %q", constants.ErrInvalidPageSize, v)
			}

			c.PageSize = size

			return nil
		},
		unset: func(c *Config) { c.PageSize = constants.DefaultPageSize },
	},
	"rate_limit": {
		get: func(c *Config) string { return strconv.FormatFloat(c.RateLimit, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			rps, err := strconv.ParseFloat(v, 64)
			if err != nil || rps < 0 {
				return fmt.Errorf("%w: %q", constants.ErrInvalidRateLimit, v)
			}

			c.RateLimit = rps

			return nil
		},
		unset: func(c *Config) { c.RateLimit = 0 },
	},
	"cache.type": {
		get: func(c *Config) string { return c.Cache.Type },
		set: func(c *Config, v string) error {
			cacheType, err := library.ParseCacheType(v)
			if err != nil {
				return err
			}

			c.Cache.Type = string(cacheType)

			return nil
		},
		unset: func(c *Config) { c.Cache.Type = string(library.CacheTypeMemory) },
	},
	"cache.nats.url": {
		get:   func(c *Config) string { return c.Cache.NATS.URL },
		set:   func(c *Config, v string) error { c.Cache.NATS.URL = v; return nil },
		unset: func(c *Config) { c.Cache.NATS.URL = "" },
	},
	"cache.nats.bucket": {
		get:   func(c *Config) string { return c.Cache.NATS.Bucket },
		set:   func(c *Config, v string) error { c.Cache.NATS.Bucket = v; return nil },
		unset: func(c *Config) { c.Cache.NATS.Bucket = "" },
	},
	"cache.redis.addr": {
		get:   func(c *Config) string { return c.Cache.Redis.Addr },
		set:   func(c *Config, v string) error { c.Cache.Redis.Addr = v; return nil },
		unset: func(c *Config) { c.Cache.Redis.Addr = "" },
	},
	"cache.redis.password": {
		get:    func(c *Config) string { return c.Cache.Redis.Password },
		set:    func(c *Config, v string) error { c.Cache.Redis.Password = v; return nil },
		unset:  func(c *Config) { c.Cache.Redis.Password = "" },
		secret: true,
	},
	"cache.redis.db": {
		get: func(c *Config) string { return strconv.Itoa(c.Cache.Redis.DB) },
		set: func(c *Config, v string) error {
			db, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid redis db %q: %w", v, err)
			}

			c.Cache.Redis.DB = db

			return nil
		},
		unset: func(c *Config) { c.Cache.Redis.DB = 0 },
	},
	"imagekit.public_key": {
		get:   func(c *Config) string { return c.ImageKit.PublicKey },
		set:   func(c *Config, v string) error { c.ImageKit.PublicKey = v; return nil },
		unset: func(c *Config) { c.ImageKit.PublicKey = "" },
	},
	"imagekit.private_key": {
		get:    func(c *Config) string { return c.ImageKit.PrivateKey },
		set:    func(c *Config, v string) error { c.ImageKit.PrivateKey = v; return nil },
		unset:  func(c *Config) { c.ImageKit.PrivateKey = "" },
		secret: true,
	},
	"imagekit.auth_endpoint": {
		get:   func(c *Config) string { return c.ImageKit.AuthEndpoint },
		set:   func(c *Config, v string) error { c.ImageKit.AuthEndpoint = v; return nil },
		unset: func(c *Config) { c.ImageKit.AuthEndpoint = "" },
	},
	"imagekit.upload_url": {
		get:   func(c *Config) string { return c.ImageKit.UploadURL },
		set:   func(c *Config, v string) error { c.ImageKit.UploadURL = v; return nil },
		unset: func(c *Config) { c.ImageKit.UploadURL = "" },
	},
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in $HOME/.library/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := maskSecrets(loadConfig())

			return writeOutput(cmd.OutOrStdout(), config, func(w io.Writer) error {
				return displayConfigTable(w, config)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Run 'library config show' to list the keys.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			handler, ok := configKeys[key]
			if !ok {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			config := loadConfig()

			err := handler.set(config, value)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			shown := value
			if handler.secret {
				shown = constants.MaskedSecret
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", key, shown)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Reset a configuration value to its default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			handler, ok := configKeys[key]
			if !ok {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			config := loadConfig()
			handler.unset(config)

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Unset", key, "")
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := configFilePath()
			if err != nil {
				return err
			}

			err = os.Remove(configFile)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Cleared", "all configuration", "")
		},
	}
}

// loadConfig reads the effective configuration from viper.
func loadConfig() *Config {
	config := &Config{
		APIHost:   viper.GetString("api_host"),
		Output:    viper.GetString("output"),
		NoColor:   viper.GetBool("no_color"),
		PageSize:  viper.GetInt("page_size"),
		RateLimit: viper.GetFloat64("rate_limit"),
		Cache: CacheSettings{
			Type: viper.GetString("cache.type"),
			NATS: NATSSettings{
				URL:    viper.GetString("cache.nats.url"),
				Bucket: viper.GetString("cache.nats.bucket"),
			},
			Redis: RedisSettings{
				Addr:     viper.GetString("cache.redis.addr"),
				Password: viper.GetString("cache.redis.password"),
				DB:       viper.GetInt("cache.redis.db"),
			},
		},
		ImageKit: ImageKitSettings{
			PublicKey:    viper.GetString("imagekit.public_key"),
			PrivateKey:   viper.GetString("imagekit.private_key"),
			AuthEndpoint: viper.GetString("imagekit.auth_endpoint"),
			UploadURL:    viper.GetString("imagekit.upload_url"),
		},
	}

	if config.Output == "" {
		config.Output = constants.FormatTable
	}

	if config.PageSize <= 0 {
		config.PageSize = constants.DefaultPageSize
	}

	if config.RateLimit < 0 {
		config.RateLimit = 0
	}

	if config.Cache.Type == "" {
		config.Cache.Type = string(library.CacheTypeMemory)
	}

	return config
}

// cacheConfig converts the settings to a backend configuration.
func (c *Config) cacheConfig() *library.CacheConfig {
	config := library.DefaultCacheConfig()
	config.Type = library.CacheType(c.Cache.Type)

	switch config.Type {
	case library.CacheTypeNATS:
		config.NATS = &library.NATSKVConfig{
			URL:    c.Cache.NATS.URL,
			Bucket: c.Cache.NATS.Bucket,
			TTL:    constants.PersistTTL,
		}
	case library.CacheTypeRedis:
		config.Redis = &library.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		}
	}

	return config
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName, configFileName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func maskSecrets(config *Config) *Config {
	masked := *config

	if masked.Cache.Redis.Password != "" {
		masked.Cache.Redis.Password = constants.MaskedSecret
	}

	if masked.ImageKit.PrivateKey != "" {
		masked.ImageKit.PrivateKey = constants.MaskedSecret
	}

	return &masked
}

func displayConfigTable(w io.Writer, config *Config) error {
	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Header("Key", "Value")

	for _, key := range keys {
		err := table.Append([]string{key, valueOr(configKeys[key].get(config), constants.NotAvailable)})
		if err != nil {
			return fmt.Errorf("failed to append %s to table: %w", key, err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// outputConfigUpdateResult outputs configuration update results in the requested format.
func outputConfigUpdateResult(w io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	return writeOutput(w, result, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		_ = table.Append([]string{"Action", action})
		_ = table.Append([]string{"Key", key})

		if value != "" {
			_ = table.Append([]string{"Value", value})
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render update results table: %w", err)
		}

		return nil
	})
}

// parseBoolValue parses a boolean value from string.
func parseBoolValue(value string) bool {
	return value == constants.BooleanTrue || value == "1"
}
