// internal/config/config.go
package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	CORS struct {
		AllowedOrigins   []string `mapstructure:"allowed_origins"`
		AllowedMethods   []string `mapstructure:"allowed_methods"`
		AllowedHeaders   []string `mapstructure:"allowed_headers"`
		ExposedHeaders   []string `mapstructure:"exposed_headers"`
		AllowCredentials bool     `mapstructure:"allow_credentials"`
		MaxAge           int      `mapstructure:"max_age"`
	} `mapstructure:"cors"`
	Pipeline struct {
		ChunkMaxChars       int `mapstructure:"chunk_max_chars"`
		MaxAttempts         int `mapstructure:"max_attempts"`
		BackoffBaseMillis   int `mapstructure:"backoff_base_ms"`
		StageTimeoutSeconds int `mapstructure:"stage_timeout_seconds"`
		SceneConcurrency    int `mapstructure:"scene_concurrency"`
		QuestionLimit       int `mapstructure:"question_limit"`
	} `mapstructure:"pipeline"`
	Generator struct {
		APIURL string `mapstructure:"api_url"`
		APIKey string `mapstructure:"api_key"`
		Model  string `mapstructure:"model"`
	} `mapstructure:"generator"`
	Translator struct {
		Region         string `mapstructure:"region"`
		AccessKey      string `mapstructure:"access_key"`
		SecretKey      string `mapstructure:"secret_key"`
		TargetLanguage string `mapstructure:"target_language"`
	} `mapstructure:"translator"`
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	// 環境変数での上書き (例: APP_GENERATOR_API_KEY)
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("generator.api_key", "GENERATOR_API_KEY")
	viper.BindEnv("translator.access_key", "AWS_ACCESS_KEY_ID")
	viper.BindEnv("translator.secret_key", "AWS_SECRET_ACCESS_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	// --- デフォルト値の設定 ---
	if Cfg.Server.Port == "" {
		log.Println("Server port not set, using default ':8080'")
		Cfg.Server.Port = ":8080"
	}
	if Cfg.Pipeline.ChunkMaxChars <= 0 {
		Cfg.Pipeline.ChunkMaxChars = 6000
	}
	if Cfg.Pipeline.MaxAttempts <= 0 {
		Cfg.Pipeline.MaxAttempts = 3
	}
	if Cfg.Pipeline.BackoffBaseMillis <= 0 {
		Cfg.Pipeline.BackoffBaseMillis = 500
	}
	if Cfg.Pipeline.StageTimeoutSeconds <= 0 {
		Cfg.Pipeline.StageTimeoutSeconds = 60
	}
	if Cfg.Pipeline.SceneConcurrency <= 0 {
		Cfg.Pipeline.SceneConcurrency = 4
	}
	if Cfg.Pipeline.QuestionLimit <= 0 {
		Cfg.Pipeline.QuestionLimit = 4
	}
	if Cfg.Translator.TargetLanguage == "" {
		Cfg.Translator.TargetLanguage = "en"
	}
	if Cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Chunk Max Chars: %d", Cfg.Pipeline.ChunkMaxChars)

	return nil
}
