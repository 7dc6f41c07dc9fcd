package redis_client

import (
	"net"
	"time"
)

// Config describes a Redis endpoint. The mapstructure tags match the option
// names used by the redis log handler.
type Config struct {
	Host        string        `mapstructure:"host" json:"host" yaml:"host" validate:"required"`
	Port        string        `mapstructure:"port" json:"port" yaml:"port" validate:"required"`
	Password    string        `mapstructure:"password" json:"password" yaml:"password"`
	DB          int           `mapstructure:"db" json:"db" yaml:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dialTimeout" yaml:"dial_timeout" default:"2s"`
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
