// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies
// defaults, and allows overrides from environment variables prefixed with
// SWITCHBOARD_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// The archive database and the redis mirror are optional: leaving
// data.database.source or data.redis.addr empty disables the corresponding
// adapter without failing startup.
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable support with SWITCHBOARD_ prefix
	v.SetEnvPrefix("SWITCHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow plain names for the common deployment knobs
	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "SWITCHBOARD_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "REDIS_ADDR", "SWITCHBOARD_DATA_REDIS_ADDR")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
		},
		Data: &Data{
			Database: &Data_Database{
				Driver: v.GetString("data.database.driver"),
				Source: v.GetString("data.database.source"),
			},
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
				MirrorTTL:    durationpb.New(v.GetDuration("data.redis.mirror_ttl")),
			},
		},
		Breaker: &Breaker{
			TripThreshold: v.GetInt32("breaker.trip_threshold"),
			Cooldown:      durationpb.New(v.GetDuration("breaker.cooldown")),
			MaxLatencyMs:  v.GetFloat64("breaker.max_latency_ms"),
			MaxCircuits:   v.GetInt32("breaker.max_circuits"),
			ProbeTimeout:  durationpb.New(v.GetDuration("breaker.probe_timeout")),
			AuditCapacity: v.GetInt32("breaker.audit_capacity"),
			AlertCapacity: v.GetInt32("breaker.alert_capacity"),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", 30*time.Second)

	// Data defaults. database.source and redis.addr default to empty:
	// archive and mirror are opt-in.
	v.SetDefault("data.database.driver", "mysql")
	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.mirror_ttl", 60*time.Second)

	// Breaker defaults
	v.SetDefault("breaker.trip_threshold", 5)
	v.SetDefault("breaker.cooldown", 30*time.Second)
	v.SetDefault("breaker.max_latency_ms", 50.0)
	v.SetDefault("breaker.max_circuits", 50)
	v.SetDefault("breaker.probe_timeout", 1*time.Second)
	v.SetDefault("breaker.audit_capacity", 10000)
	v.SetDefault("breaker.alert_capacity", 1000)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that the loaded configuration is internally consistent.
func Validate(bc *Bootstrap) error {
	var bad []string

	if bc.Server == nil || bc.Server.Http == nil || bc.Server.Http.Addr == "" {
		bad = append(bad, "server.http.addr must not be empty")
	}
	if bc.Breaker != nil {
		if bc.Breaker.TripThreshold <= 0 {
			bad = append(bad, "breaker.trip_threshold must be positive")
		}
		if bc.Breaker.Cooldown.AsDuration() <= 0 {
			bad = append(bad, "breaker.cooldown must be positive")
		}
		if bc.Breaker.MaxCircuits <= 0 {
			bad = append(bad, "breaker.max_circuits must be positive")
		}
		if bc.Breaker.AuditCapacity <= 0 || bc.Breaker.AlertCapacity <= 0 {
			bad = append(bad, "breaker audit/alert capacities must be positive")
		}
	}

	if len(bad) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(bad, ", "))
	}

	return nil
}
