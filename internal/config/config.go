// Package config holds the storage configuration for the vitrine backend.
// It is built once at process start and passed into the components that need
// it; nothing below cmd reads the environment directly.
package config

import "os"

// StorageConfig carries the object-store wiring: where the bucket lives, the
// credentials used to presign requests against it, and the public base URL
// under which finished objects are served.
type StorageConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	TableName string
}

// FromEnv builds a StorageConfig from the process environment.
func FromEnv() *StorageConfig {
	return &StorageConfig{
		Endpoint:  os.Getenv("VITRINE_STORAGE_ENDPOINT"),
		Region:    env("VITRINE_STORAGE_REGION", "auto"),
		AccessKey: os.Getenv("VITRINE_STORAGE_ACCESS_KEY"),
		SecretKey: os.Getenv("VITRINE_STORAGE_SECRET_KEY"),
		Bucket:    os.Getenv("VITRINE_STORAGE_BUCKET"),
		PublicURL: os.Getenv("VITRINE_PUBLIC_URL"),
		TableName: os.Getenv("VITRINE_DB_TABLE"),
	}
}

// Configured reports whether all settings required for presigning are
// present. A false value indicates deployment misconfiguration and is
// surfaced to callers as-is rather than being retried.
func (c *StorageConfig) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != "" && c.PublicURL != ""
}

// Get the value of environment variables.
func env(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
