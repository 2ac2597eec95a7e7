package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://sentiment.db"`

	BaseModelDir string `env:"BASE_MODEL_DIR"`
	FineTunedDir string `env:"FINE_TUNED_DIR" envDefault:"./fine_tuned_model"`
	AspectsFile  string `env:"ASPECTS_FILE"`
	UploadDir    string `env:"UPLOAD_DIR" envDefault:"uploads"`

	InferenceParallelism int    `env:"INFERENCE_PARALLELISM" envDefault:"4"`
	TrainingSeed         int64  `env:"TRAINING_SEED" envDefault:"42"`
	RetrainSchedule      string `env:"RETRAIN_SCHEDULE"`
	WatchCheckpoints     bool   `env:"WATCH_CHECKPOINTS" envDefault:"true"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
