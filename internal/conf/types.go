package conf

import "google.golang.org/protobuf/types/known/durationpb"

// Bootstrap is the root configuration of the SwitchBoard service.
type Bootstrap struct {
	Server  *Server
	Data    *Data
	Breaker *Breaker
	Log     *Log
}

// Server holds transport configuration.
type Server struct {
	Http *Server_HTTP
}

// Server_HTTP configures the admin HTTP server.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Data holds optional infrastructure endpoints. Both the archive database
// and the redis mirror degrade gracefully when unconfigured.
type Data struct {
	Database *Data_Database
	Redis    *Data_Redis
}

// Data_Database configures the durable audit/alert archive.
type Data_Database struct {
	Driver string
	Source string
}

// Data_Redis configures the live state mirror.
type Data_Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
	MirrorTTL    *durationpb.Duration
}

// Breaker holds the tuning knobs of the breaker tree.
type Breaker struct {
	TripThreshold int32
	Cooldown      *durationpb.Duration
	MaxLatencyMs  float64
	MaxCircuits   int32
	ProbeTimeout  *durationpb.Duration
	AuditCapacity int32
	AlertCapacity int32
}

// Log configures the zap logger.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}
