package utils

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env then .env.<env> (if present). Later files win, matching
// the precedence used by the creation-time tooling.
func LoadEnv(env string) error {
	err := godotenv.Load()
	if env != "" {
		if scoped := godotenv.Overload(".env." + env); scoped == nil {
			err = nil
		}
	}
	return err
}

// GetEnv returns the trimmed value of an environment variable.
func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// GetIntEnv parses an integer environment variable, 0 when unset or invalid.
func GetIntEnv(key string) int64 {
	v, _ := strconv.ParseInt(GetEnv(key), 10, 64)
	return v
}

// GetBoolEnv treats "1", "t", "true", "yes", "on" as true.
func GetBoolEnv(key string) bool {
	switch strings.ToLower(GetEnv(key)) {
	case "1", "t", "true", "yes", "on":
		return true
	}
	return false
}
