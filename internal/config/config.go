package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Planner struct {
		Enabled      bool          `mapstructure:"enabled"`
		TickInterval time.Duration `mapstructure:"tick_interval"`
		Horizon      time.Duration `mapstructure:"horizon"`
	} `mapstructure:"planner"`
	Radiko struct {
		Timezone     string        `mapstructure:"timezone"`
		URLTemplate  string        `mapstructure:"url_template"`
		ListenWindow time.Duration `mapstructure:"listen_window"`
	} `mapstructure:"radiko"`
	Seed struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"seed"`
}

var keys = []string{
	"server.addr",
	"database.path",
	"log.level",
	"planner.enabled",
	"planner.tick_interval",
	"planner.horizon",
	"radiko.timezone",
	"radiko.url_template",
	"radiko.listen_window",
	"seed.path",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("database.path", "radiko.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("planner.enabled", true)
	v.SetDefault("planner.tick_interval", time.Minute)
	v.SetDefault("planner.horizon", 7*24*time.Hour)
	v.SetDefault("radiko.timezone", "Asia/Tokyo")
	// timefree: https://radiko.jp/#!/ts/TBS/20240401010000
	v.SetDefault("radiko.url_template", "https://radiko.jp/#!/ts/{callSign}/{startDatetime}")
	v.SetDefault("radiko.listen_window", 7*24*time.Hour)
	v.SetDefault("seed.path", "")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("RADIKO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	setDefaults(v)
	return v
}

// Default renvoie la configuration par défaut, surchargée par l'environnement (RADIKO_*).
func Default() Config {
	cfg, err := decode(newViper())
	if err != nil {
		// Une variable d'environnement mal formée ne doit pas empêcher le démarrage.
		cfg, _ = decode(defaultsOnly())
	}
	return cfg
}

// Load lit path (yaml) s'il est renseigné, sinon config.yaml dans le répertoire
// courant s'il existe. L'environnement reste prioritaire.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}
	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func defaultsOnly() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path is required")
	}
	if c.Planner.Enabled && c.Planner.TickInterval <= 0 {
		return errors.New("planner.tick_interval must be positive")
	}
	if c.Radiko.ListenWindow < 0 {
		return errors.New("radiko.listen_window must not be negative")
	}
	if _, err := time.LoadLocation(c.Radiko.Timezone); err != nil {
		return fmt.Errorf("radiko.timezone: %w", err)
	}
	return nil
}

// Location renvoie le fuseau radiko (UTC+9 fixe si le nom est invalide).
func (c Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Radiko.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*3600)
}
