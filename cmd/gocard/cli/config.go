package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	configDirs = []string{".", "./config", "/etc/gocard", "$HOME/.gocard"}
	envFiles   = []string{".env", ".env.local"}
)

// initConfig prepares viper for LoadServerConfig. An explicit path wins over
// GOCARD_CONFIG, which wins over searching configDirs for config.yaml. Env
// files next to the config are loaded first so GOCARD_* variables in them
// take effect.
func initConfig(path string) error {
	loadEnvFiles(".")

	if path == "" {
		path = os.Getenv("GOCARD_CONFIG")
	}

	if path != "" {
		viper.SetConfigFile(path)
		loadEnvFiles(filepath.Dir(path))
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, dir := range configDirs {
			viper.AddConfigPath(dir)
			loadEnvFiles(os.ExpandEnv(dir))
		}
	}

	viper.SetEnvPrefix("GOCARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// loadEnvFiles loads the env files present in dir. Variables that are
// already set are left untouched.
func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		file := filepath.Join(dir, name)
		if _, err := os.Stat(file); err != nil {
			continue
		}
		_ = godotenv.Load(file)
	}
}
