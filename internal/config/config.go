package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"development"` // environment
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Mail       MailConfig       `yaml:"mail"`
	Migrations MigrationsConfig `yaml:"migrations"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	// время жизни access токена в минутах
	TokenTTL int `yaml:"token_ttl" env-default:"60"`
	// время жизни refresh токена в минутах
	RefreshTTL int `yaml:"refresh_ttl" env-default:"1440"`
	// "запомнить меня" продлевает refresh токен на указанное число дней
	RememberMeDays int `yaml:"remember_me_days" env-default:"30"`
}

// MailConfig настройка отправки писем
type MailConfig struct {
	Transport string `yaml:"transport" env-default:"log"` // log | smtp
	Host      string `yaml:"host"`
	Port      int    `yaml:"port" env-default:"587"`
	Username  string `yaml:"username"`
	Password  string `yaml:"-" env:"MAIL_PASSWORD"`
	From      string `yaml:"from" env-default:"noreply@perfume-shop.local"`
	SiteURL   string `yaml:"site_url" env-default:"http://localhost:8000"`
	QueueSize int    `yaml:"queue_size" env-default:"100"`
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// AccessTTL возвращает время жизни access токена
func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.TokenTTL) * time.Minute
}

// RefreshLifetime возвращает время жизни refresh токена
func (c JWTConfig) RefreshLifetime() time.Duration {
	return time.Duration(c.RefreshTTL) * time.Minute
}

// RememberMeLifetime возвращает продлённое время жизни refresh токена
func (c JWTConfig) RememberMeLifetime() time.Duration {
	return time.Duration(c.RememberMeDays) * 24 * time.Hour
}

// MustLoad - если не загружаем - паникуем.
// Секреты (DB_PASSWORD, JWT_SECRET, MAIL_PASSWORD) можно положить в .env рядом с бинарником.
func MustLoad() *Config {
	loadDotEnv(".env")

	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

// loadDotEnv подгружает переменные из файла, уже заданные в окружении не перезаписываются
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("can't load %s: %v", path, err)
	}
}

func fetchConfigPath() string {
	var path string

	if f := flag.Lookup("config"); f != nil {
		path = f.Value.String()
	} else {
		flag.StringVar(&path, "config", "", "path to config file")
		flag.Parse()
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}
