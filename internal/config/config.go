package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"` // optional Postgres store
	MQTTBroker        string `mapstructure:"MQTT_BROKER"`
	MQTTClientID      string `mapstructure:"MQTT_CLIENT_ID"`
	HTTPAddr          string `mapstructure:"HTTP_ADDR"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"` // bcrypt
	OverlayLocalName  string `mapstructure:"OVERLAY_LOCAL_NAME"`  // mDNS name, e.g. streamcast.local
	InterAlertDelayMs int    `mapstructure:"INTER_ALERT_DELAY_MS"`
	UseTaskQueue      bool   `mapstructure:"USE_TASK_QUEUE"` // dispatch rule runs through asynq
	LogLevel          string `mapstructure:"LOG_LEVEL"`
}

// LoadConfig reads configuration from .env, config.yaml and env vars
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("CONFIG: No .env file loaded:", err)
	}

	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("MQTT_CLIENT_ID", "streamcast-engine")
	viper.SetDefault("HTTP_ADDR", ":5069")
	viper.SetDefault("OVERLAY_LOCAL_NAME", "streamcast.local")
	viper.SetDefault("INTER_ALERT_DELAY_MS", 500)

	cfg := &Config{
		RedisAddr:         viper.GetString("REDIS_ADDR"),
		DatabaseURL:       viper.GetString("DATABASE_URL"),
		MQTTBroker:        viper.GetString("MQTT_BROKER"),
		MQTTClientID:      viper.GetString("MQTT_CLIENT_ID"),
		HTTPAddr:          viper.GetString("HTTP_ADDR"),
		JWTSecret:         viper.GetString("JWT_SECRET"),
		AdminPasswordHash: viper.GetString("ADMIN_PASSWORD_HASH"),
		OverlayLocalName:  viper.GetString("OVERLAY_LOCAL_NAME"),
		InterAlertDelayMs: viper.GetInt("INTER_ALERT_DELAY_MS"),
		UseTaskQueue:      viper.GetBool("USE_TASK_QUEUE"),
		LogLevel:          viper.GetString("LOG_LEVEL"),
	}
	return cfg, nil
}
