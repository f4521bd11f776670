package demoserver

import (
	"net"
	"strconv"
)

// Config controls where the demo site listens and which branding version
// every page starts on.
type Config struct {
	Host           string
	Port           int
	InitialVersion int
}

func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           9999,
		InitialVersion: 1,
	}
}

// Addr is the listen address. An empty Host listens on all interfaces.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
