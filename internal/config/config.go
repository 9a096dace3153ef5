package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Settings struct {
	ListenAddr   string `envconfig:"LISTEN_ADDR" default:":8000"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"/app/data/lightdock.db"`
	LogPath      string `envconfig:"LOG_PATH" default:"/app/data/lightdock.log"`

	// DockerHost overrides the endpoint derived from the active server record.
	// Empty means "use the active server configuration".
	DockerHost string `envconfig:"DOCKER_HOST" default:""`

	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"10s"`
	ExecTimeout    time.Duration `envconfig:"EXEC_TIMEOUT" default:"60s"`
	LogTailLines   int           `envconfig:"LOG_TAIL_LINES" default:"1000"`

	// Reachability probing
	ReachabilityTTL time.Duration `envconfig:"REACHABILITY_TTL" default:"30s"`
	ProbeWorkers    int           `envconfig:"PROBE_WORKERS" default:"10"`
	ProbeQueueSize  int           `envconfig:"PROBE_QUEUE_SIZE" default:"64"`
	ProbeTimeout    time.Duration `envconfig:"PROBE_TIMEOUT" default:"450ms"`
	ProbeSweepSpec  string        `envconfig:"PROBE_SWEEP_SPEC" default:"@every 1m"`

	// SSH command runner used for compose deploys
	SSHTimeout time.Duration `envconfig:"SSH_TIMEOUT" default:"15s"`
}

var Cfg Settings

func Load() {
	if err := envconfig.Process("LIGHTDOCK", &Cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
}
