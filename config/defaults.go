package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

var (
	AppHomeDir = ".wanwatch"
	// AppCfg is the application configuration.
	AppCfg AppConfig
	// BuildTime is set by the go build command - probably see the Makefile.
	BuildTime string
	// BuildVersion is set by the go build command - probably see the Makefile.
	BuildVersion string
)

func init() {
	// Load app config from the environment.
	err := envconfig.Process("", &AppCfg)
	if err != nil {
		fmt.Println("failed to process app config:", err)
		os.Exit(1)
	}
}

type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// Demo redacts addresses in outbound notifications so screenshots can
	// be shared.
	Demo         bool         `envconfig:"DEMO" default:"false"`
	PollConfig   PollConfig   `envconfig:"POLL"`
	OracleConfig OracleConfig `envconfig:"ORACLE"`
	NotifyConfig NotifyConfig `envconfig:"NOTIFY"`
	WebConfig    WebConfig    `envconfig:"WEB"`
}

type PollConfig struct {
	// Interval is the refresh cycle cadence. The engine is designed around
	// a coarse cadence; sub-second intervals are not supported.
	Interval time.Duration `envconfig:"INTERVAL" default:"10s"`
	// StepsToShow is the rolling window capacity in cycles.
	StepsToShow int `envconfig:"STEPS_TO_SHOW" default:"20"`
}

type OracleConfig struct {
	// Host/Port locate the external presence oracle. An empty host
	// disables it and the gateway's own online flags stand.
	Host string `envconfig:"HOST" default:""`
	Port int    `envconfig:"PORT" default:"8888"`
	// RefreshRate caps how often the oracle is re-queried regardless of
	// the poll interval.
	RefreshRate time.Duration `envconfig:"REFRESH_RATE" default:"60s"`
	// UseLocalNeighbors reads the local ARP/NDP tables instead of an
	// external oracle, for running directly on the gateway.
	UseLocalNeighbors bool `envconfig:"USE_LOCAL_NEIGHBORS" default:"false"`
}

type NotifyConfig struct {
	TelegramToken  string `envconfig:"TELEGRAM_TOKEN" default:""`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID" default:""`
	// LockCommand is run when a fired action requests a workstation lock.
	LockCommand string `envconfig:"LOCK_COMMAND" default:""`
	// PingTimeout bounds the clarify-by-ping check before offline actions.
	PingTimeout time.Duration `envconfig:"PING_TIMEOUT" default:"2s"`
}

type WebConfig struct {
	WebEnabled bool `envconfig:"ENABLED" default:"true"`
	WebPort    int  `envconfig:"PORT" default:"8080"`
}
