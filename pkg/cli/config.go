package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/oggmux/pkg/ogg"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".oggmux"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config is the configuration file of a CLI app: a set of named contexts,
// one of which is current.
type Config struct {
	// AppName is the application name (e.g., "oggmux")
	AppName string `yaml:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is one named set of codec limits and storage settings.
type Context struct {
	// Name is the context name
	Name string `yaml:"name"`

	// Sync limits the page scanner.
	Sync *SyncSettings `yaml:"sync,omitempty"`

	// Mux tunes page building.
	Mux *MuxSettings `yaml:"mux,omitempty"`

	// Storage selects where inputs and outputs without a scheme live.
	Storage *StorageSettings `yaml:"storage,omitempty"`

	// CatalogDir overrides the catalog database directory.
	CatalogDir string `yaml:"catalog_dir,omitempty"`

	// Extra stores free-form settings.
	Extra map[string]string `yaml:"extra,omitempty"`
}

// SyncSettings mirror ogg.SyncOptions.
type SyncSettings struct {
	MaxGarbage  int `yaml:"max_garbage,omitempty"`
	MaxBuffered int `yaml:"max_buffered,omitempty"`
}

// MuxSettings mirror ogg.MuxerOptions.
type MuxSettings struct {
	PageFill int `yaml:"page_fill,omitempty"`
}

// StorageSettings configures the object store behind s3:// paths.
type StorageSettings struct {
	// Root is the local directory relative paths resolve against.
	Root string `yaml:"root,omitempty"`

	S3 *S3Settings `yaml:"s3,omitempty"`
}

// S3Settings contains S3 connection settings and credentials.
type S3Settings struct {
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`

	// PathStyle forces path-style addressing, needed by most S3
	// compatible servers.
	PathStyle bool `yaml:"path_style,omitempty"`
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		if ctx == nil {
			return nil, fmt.Errorf("context %q is empty", name)
		}
		ctx.Name = name
	}

	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext adds or replaces a context
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// GetCurrentContext returns the current context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}
	return c.GetContext(c.CurrentContext)
}

// ResolveContext returns the named context, the current context if name is
// empty, or an empty context when neither exists. Every setting of an empty
// context falls back to the codec defaults.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name != "" {
		return c.GetContext(name)
	}
	if c.CurrentContext == "" {
		return &Context{}, nil
	}
	return c.GetCurrentContext()
}

// ListContexts returns all context names, sorted
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SyncOptions returns the page scanner options of the context. A nil
// context yields the defaults.
func (ctx *Context) SyncOptions() *ogg.SyncOptions {
	if ctx == nil || ctx.Sync == nil {
		return nil
	}
	return &ogg.SyncOptions{
		MaxGarbage:  ctx.Sync.MaxGarbage,
		MaxBuffered: ctx.Sync.MaxBuffered,
	}
}

// MuxerOptions returns the page building options of the context.
func (ctx *Context) MuxerOptions() *ogg.MuxerOptions {
	if ctx == nil || ctx.Mux == nil {
		return nil
	}
	return &ogg.MuxerOptions{PageFill: ctx.Mux.PageFill}
}

// GetExtra returns an extra value for the context
func (ctx *Context) GetExtra(key string) string {
	if ctx.Extra == nil {
		return ""
	}
	return ctx.Extra[key]
}

// SetExtra sets an extra value for the context
func (ctx *Context) SetExtra(key, value string) {
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}

// Redacted returns a copy of the context with credentials masked, for
// display.
func (ctx *Context) Redacted() *Context {
	out := *ctx
	if ctx.Storage != nil && ctx.Storage.S3 != nil {
		st := *ctx.Storage
		s3 := *ctx.Storage.S3
		s3.AccessKey = MaskSecret(s3.AccessKey)
		s3.SecretKey = MaskSecret(s3.SecretKey)
		st.S3 = &s3
		out.Storage = &st
	}
	return &out
}

// MaskSecret masks a credential for display
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
