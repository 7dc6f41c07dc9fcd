package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Validator interface {
	Validate() error
}

// Source is the read side shared by Config and MapSource. Get fails with a
// required error when section.key is absent.
type Source interface {
	Get(section, key string) (any, error)
}

type ConfigInterface interface {
	Source
	Bind(instance any) error
	Snapshot() (map[string]any, error)
	Restore() error
}

type Config struct {
	instance   *viper.Viper
	opts       ConfigOptions
	watchOnce  sync.Once
	watchMutex sync.RWMutex
	snapshot   map[string]any
	order      keyOrder
	bound      []any
}

type ConfigOptions struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	WatchAble bool
	OnChange  func(e fsnotify.Event)
	LoadAll   bool
}

var (
	_ ConfigInterface = (*Config)(nil)
	_ Source          = (*MapSource)(nil)
)
