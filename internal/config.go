package internal

import (
	"chat-relay/errors"
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=3000" validate:"min=1,max=65535"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	InboundBufferSize    int           `env:"INBOUND_BUFFER_SIZE,default=1024" validate:"min=1"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"min=1"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=10s" validate:"gt=0"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=1m" validate:"gt=0"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=10" validate:"min=0,max=100"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,default=60s" validate:"gt=0"`
	MaxFrameBytes        int64         `env:"MAX_FRAME_BYTES,default=1000000" validate:"min=64"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	StaticDir            string        `env:"STATIC_DIR"`
	// HealthGRPCPort exposes grpc.health.v1 on a second port, 0 disables it.
	HealthGRPCPort int `env:"HEALTH_GRPC_PORT,default=0" validate:"min=0,max=65535"`
}

// Address is the listen address of the websocket/HTTP server.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads an optional .env file then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	return ParseConfig()
}

// ParseConfig reads the process environment only.
func ParseConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	return config, nil
}
