package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type effectiveConfig struct {
	Telegram struct {
		BaseURL     string        `yaml:"base_url"`
		PollTimeout time.Duration `yaml:"poll_timeout"`
	} `yaml:"telegram"`
	DB struct {
		Driver      string `yaml:"driver"`
		DSN         string `yaml:"dsn,omitempty"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"db"`
	Server struct {
		Bind string `yaml:"bind"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level,omitempty"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// newConfigCmd prints the effective configuration. Secrets (bot token, auth
// token) are deliberately left out.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg effectiveConfig
			cfg.Telegram.BaseURL = viper.GetString("telegram.base_url")
			cfg.Telegram.PollTimeout = viper.GetDuration("telegram.poll_timeout")
			cfg.DB.Driver = viper.GetString("db.driver")
			cfg.DB.DSN = viper.GetString("db.dsn")
			cfg.DB.AutoMigrate = viper.GetBool("db.auto_migrate")
			cfg.Server.Bind = viper.GetString("server.bind")
			cfg.Server.Port = viper.GetInt("server.port")
			cfg.Logging.Level = viper.GetString("logging.level")
			cfg.Logging.Format = viper.GetString("logging.format")

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	return cmd
}
