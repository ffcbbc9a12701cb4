package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	PolicyFile      string
	AdminToken      string
	SweepInterval   time.Duration
	ThrottlePerSec  int
	ThrottleBurst   int
	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FORMGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := Server{
		Addr:            addr,
		PolicyFile:      os.Getenv("FORMGATE_POLICY_FILE"),
		AdminToken:      os.Getenv("FORMGATE_ADMIN_TOKEN"),
		SweepInterval:   time.Hour,
		ThrottlePerSec:  1000,
		ThrottleBurst:   2000,
		ShutdownTimeout: 10 * time.Second,
	}

	if v := os.Getenv("FORMGATE_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			srv.SweepInterval = d
		}
	}
	if v := os.Getenv("FORMGATE_THROTTLE_PER_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			srv.ThrottlePerSec = n
		}
	}
	if v := os.Getenv("FORMGATE_THROTTLE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			srv.ThrottleBurst = n
		}
	}

	return srv
}
