package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/leeforge/logfactory/env_mode"
	"github.com/leeforge/logfactory/errors"
	"github.com/leeforge/logfactory/utils"
	"github.com/spf13/viper"
)

func DefaultConfigOptions() ConfigOptions {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}

	return ConfigOptions{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "",
		WatchAble: false,
		OnChange:  nil,
	}
}

func DevConfigOptions() ConfigOptions {
	opts := DefaultConfigOptions()
	opts.WatchAble = true
	return opts
}

func NewConfig(optsArr ...ConfigOptions) (*Config, error) {
	var opts ConfigOptions
	if len(optsArr) == 0 {
		opts = DefaultConfigOptions()
	} else {
		opts = optsArr[0]
	}

	instance, order, err := CreateConfig(opts)
	if err != nil {
		return nil, err
	}

	c := &Config{
		instance: instance,
		opts:     opts,
		order:    order,
	}
	if opts.WatchAble {
		c.watch()
	}
	return c, nil
}

// Get returns the value at section.key. Mappings come back as *OrderedMap in
// file order; anything else is returned as viper decoded it.
func (c *Config) Get(section, key string) (any, error) {
	path := strings.ToLower(section + "." + key)

	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	if !c.instance.IsSet(path) {
		return nil, errors.NewRequired(path).
			WithDetail("section", section).
			WithDetail("key", key)
	}

	value := c.lookup(path)
	if value == nil {
		return nil, errors.NewRequired(path).
			WithDetail("section", section).
			WithDetail("key", key)
	}
	if m, ok := value.(map[string]any); ok {
		return c.order.ordered(path, m), nil
	}
	return value, nil
}

// lookup reads path and, for mappings, folds in leaf values that live in
// higher viper layers (Set, environment) so the result is the merged view.
func (c *Config) lookup(path string) any {
	value := c.instance.Get(path)
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}

	out := copyMap(m)
	prefix := path + "."
	for _, key := range c.instance.AllKeys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		setPath(out, strings.Split(strings.TrimPrefix(key, prefix), "."), c.instance.Get(key))
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = copyMap(nested)
		}
		out[k] = v
	}
	return out
}

func setPath(m map[string]any, parts []string, value any) {
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Value returns the raw viper value at a dotted key, nil when unset.
func (c *Config) Value(key string) any {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	return c.instance.Get(key)
}

func (c *Config) Set(key string, value any) {
	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	c.instance.Set(key, value)
}

func (c *Config) Bind(instance any) error {
	if c == nil || c.instance == nil {
		return errors.NewInternal("config instance is nil")
	}

	if instance == nil {
		return errors.NewRequired("bind target")
	}

	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	if err := c.instance.Unmarshal(instance); err != nil {
		return errors.WrapWithType(err, errors.ErrorTypeInvalid,
			fmt.Sprintf("failed to unmarshal config (path: %s, file: %s.%s)",
				c.opts.BasePath, c.opts.FileName, c.opts.FileType))
	}

	if c.opts.WatchAble {
		c.bound = append(c.bound, instance)
	}

	return nil
}

// BindSection unmarshals only the subtree under key.
func (c *Config) BindSection(key string, instance any) error {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	if !c.instance.IsSet(key) {
		return errors.NewRequired(key)
	}
	if err := c.instance.UnmarshalKey(key, instance); err != nil {
		return errors.WrapWithType(err, errors.ErrorTypeInvalid, fmt.Sprintf("failed to unmarshal %s", key))
	}
	return nil
}

func (c *Config) BindWithDefaults(instance any) error {
	if err := defaults.Set(instance); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	if err := c.Bind(instance); err != nil {
		return err
	}

	if err := defaults.Set(instance); err != nil {
		return errors.Wrap(err, "failed to set defaults after unmarshal")
	}

	if v, ok := instance.(Validator); ok {
		if err := v.Validate(); err != nil {
			return errors.WrapWithType(err, errors.ErrorTypeInvalid, "config validation failed")
		}
	}

	return nil
}

func (c *Config) Snapshot() (map[string]any, error) {
	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	snapshot := make(map[string]any)
	for _, key := range c.instance.AllKeys() {
		snapshot[key] = c.instance.Get(key)
	}

	c.snapshot = snapshot
	return snapshot, nil
}

func (c *Config) Restore() error {
	if c.snapshot == nil {
		return errors.NewNotFound("snapshot", c.opts.FileName)
	}

	return c.RestoreFrom(c.snapshot)
}

func (c *Config) RestoreFrom(snapshot map[string]any) error {
	if snapshot == nil {
		return errors.NewRequired("snapshot")
	}

	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	for k, v := range snapshot {
		c.instance.Set(k, v)
	}

	c.snapshot = snapshot
	return nil
}

// watch starts the fsnotify watcher once. On every change the key order is
// recaptured and every struct passed to Bind is re-bound.
func (c *Config) watch() {
	c.watchOnce.Do(func() {
		c.instance.OnConfigChange(func(e fsnotify.Event) {
			c.watchMutex.Lock()
			defer c.watchMutex.Unlock()

			if order, err := captureFileOrder(c.opts, c.configPaths()); err == nil {
				c.order = order
			}

			for _, target := range c.bound {
				if err := c.instance.Unmarshal(target); err != nil {
					fmt.Fprintf(os.Stderr, "config watch error: %v\n", err)
					return
				}
			}

			if c.opts.OnChange != nil {
				c.opts.OnChange(e)
			}
		})
		c.instance.WatchConfig()
	})
}

func (c *Config) configPaths() []string {
	if c.opts.LoadAll {
		return getAllConfigFilePaths(c.opts)
	}
	return getConfigFilePaths(c.opts)
}

// CreateConfig reads every matching file in layer order and merges them into
// one viper instance. Later files win key by key; environment variables win
// over all files.
func CreateConfig(opts ConfigOptions) (*viper.Viper, keyOrder, error) {
	configPaths := getConfigFilePaths(opts)
	if opts.LoadAll {
		configPaths = getAllConfigFilePaths(opts)
	}
	if len(configPaths) == 0 {
		return nil, nil, errors.NewNotFound("configuration files", opts.BasePath)
	}

	v := viper.New()
	v.SetConfigType(opts.FileType)

	for i, configPath := range configPaths {
		v.SetConfigFile(configPath)
		var err error
		if i == 0 {
			err = v.ReadInConfig()
		} else {
			err = v.MergeInConfig()
		}
		if err != nil {
			return nil, nil, errors.WrapWithType(err, errors.ErrorTypeInvalid,
				fmt.Sprintf("error reading config file %s", configPath))
		}
	}

	order, err := captureFileOrder(opts, configPaths)
	if err != nil {
		return nil, nil, err
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()

	applyEnvOverrides(v, opts.EnvPrefix)

	return v, order, nil
}

func captureFileOrder(opts ConfigOptions, configPaths []string) (keyOrder, error) {
	order := make(keyOrder)
	switch strings.ToLower(opts.FileType) {
	case "yaml", "yml", "json":
	default:
		return order, nil
	}

	for _, configPath := range configPaths {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, errors.WrapWithType(err, errors.ErrorTypeInvalid,
				fmt.Sprintf("error reading config file %s", configPath))
		}
		if err := order.capture(data); err != nil {
			return nil, errors.WrapWithType(err, errors.ErrorTypeInvalid,
				fmt.Sprintf("error parsing config file %s", configPath))
		}
	}
	return order, nil
}

// applyEnvOverrides checks all config keys and overrides with environment variables if they exist.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")

	for _, key := range v.AllKeys() {
		// logger.formatter.date_format -> LOGGER_FORMATTER_DATE_FORMAT
		envKey := strings.ToUpper(replacer.Replace(key))
		if envPrefix != "" {
			envKey = envPrefix + "_" + envKey
		}

		if envValue := os.Getenv(envKey); envValue != "" {
			v.Set(key, envValue)
		}
	}
}

func getConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	env := env_mode.Mode()
	fileNames := []string{
		opts.FileName,
		fmt.Sprintf("%s.local", opts.FileName),
		fmt.Sprintf("%s.%s", opts.FileName, env),
		fmt.Sprintf("%s.%s.local", opts.FileName, env),
	}
	for _, suffix := range env.Suffixes() {
		if suffix == string(env) {
			continue
		}
		fileNames = append(fileNames,
			fmt.Sprintf("%s.%s", opts.FileName, suffix),
			fmt.Sprintf("%s.%s.local", opts.FileName, suffix))
	}

	for _, fileName := range fileNames {
		file := filepath.Join(opts.BasePath, fmt.Sprintf("%s.%s", fileName, opts.FileType))
		if isDir, exists, _ := utils.Exists(file); exists && !isDir {
			configFiles = append(configFiles, file)
		}
	}

	return configFiles
}

func getAllConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	baseNames := getConfigBaseNames(opts.BasePath, opts.FileType)
	if len(baseNames) == 0 {
		return nil
	}

	sort.Strings(baseNames)
	baseNames = moveConfigFirst(baseNames)
	seen := make(map[string]struct{}, len(baseNames))
	for _, baseName := range baseNames {
		tempOpts := opts
		tempOpts.FileName = baseName
		tempOpts.LoadAll = false
		for _, path := range getConfigFilePaths(tempOpts) {
			if _, exists := seen[path]; exists {
				continue
			}
			seen[path] = struct{}{}
			configFiles = append(configFiles, path)
		}
	}

	return configFiles
}

func getConfigBaseNames(basePath, fileType string) []string {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil
	}

	suffix := "." + fileType
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		base := strings.TrimSuffix(name, suffix)
		base = stripConfigSuffix(base)
		if base == "" {
			continue
		}
		seen[base] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

func stripConfigSuffix(name string) string {
	name = strings.TrimSuffix(name, ".local")
	for _, mode := range []env_mode.ENV_MODE{env_mode.DevMode, env_mode.ProMode, env_mode.TestMode} {
		for _, suffix := range mode.Suffixes() {
			if strings.HasSuffix(name, "."+suffix) {
				return strings.TrimSuffix(name, "."+suffix)
			}
		}
	}
	return name
}

func moveConfigFirst(names []string) []string {
	configIndex := -1
	for i, name := range names {
		if name == "config" {
			configIndex = i
			break
		}
	}

	if configIndex <= 0 {
		return names
	}

	out := make([]string, 0, len(names))
	out = append(out, "config")
	out = append(out, names[:configIndex]...)
	out = append(out, names[configIndex+1:]...)
	return out
}
