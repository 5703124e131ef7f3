package database

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreFile   = "file"
	StoreLibSQL = "libsql"
)

// Config holds the graph store configuration
type Config struct {
	Store                string
	FilePath             string
	URL                  string
	AuthToken            string
	ProjectsDir          string
	MultiProjectMode     bool
	ShadowVocabularyFile string
}

// NewConfig creates a new Config from environment variables, seeding the
// environment from a .env file in the working directory when present.
func NewConfig() *Config {
	// A missing .env is not an error.
	_ = godotenv.Load()

	projectsDir := os.Getenv("PROJECTS_DIR")
	return &Config{
		Store:                strings.ToLower(getEnv("MEMORY_STORE", StoreFile)),
		FilePath:             getEnv("MEMORY_FILE_PATH", "./memory.json"),
		URL:                  getEnv("LIBSQL_URL", "file:./memory.db"),
		AuthToken:            os.Getenv("LIBSQL_AUTH_TOKEN"),
		ProjectsDir:          projectsDir,
		MultiProjectMode:     projectsDir != "",
		ShadowVocabularyFile: os.Getenv("SHADOW_VOCABULARY_FILE"),
	}
}

// Validate reports configuration that cannot produce a store.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreLibSQL:
	default:
		return fmt.Errorf("unknown store %q: want %s or %s", c.Store, StoreFile, StoreLibSQL)
	}
	if c.MultiProjectMode && c.ProjectsDir == "" {
		return fmt.Errorf("multi-project mode requires a projects directory")
	}
	if !c.MultiProjectMode {
		if c.Store == StoreFile && c.FilePath == "" {
			return fmt.Errorf("file store requires a memory file path")
		}
		if c.Store == StoreLibSQL && c.URL == "" {
			return fmt.Errorf("libsql store requires a database URL")
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
