// internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config 存储应用配置，全部来自环境变量
type Config struct {
	Port         string
	DataDir      string
	DatabasePath string
	DebugMode    bool
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")

	config := &Config{
		Port:         getEnv("PORT", "8010"),
		DataDir:      dataDir,
		DatabasePath: getEnv("DATABASE_PATH", filepath.Join(dataDir, "db.sqlite")),
		DebugMode:    getEnvBool("DEBUG_MODE", true),
	}

	// 确保数据目录存在
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, err
	}

	return config, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}
