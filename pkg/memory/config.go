package memory

import (
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/database"
)

// Store backends accepted by Config.Store.
const (
	StoreFile   = database.StoreFile
	StoreLibSQL = database.StoreLibSQL
)

// Config exposes a stable wrapper for store configuration in package mode.
// Fields map directly to internal/database.Config; an empty Store means StoreFile.
type Config struct {
	Store                string
	FilePath             string
	URL                  string
	AuthToken            string
	ProjectsDir          string
	ShadowVocabularyFile string
}

func (c *Config) toInternal() *database.Config {
	store := c.Store
	if store == "" {
		store = StoreFile
	}
	return &database.Config{
		Store:                store,
		FilePath:             c.FilePath,
		URL:                  c.URL,
		AuthToken:            c.AuthToken,
		ProjectsDir:          c.ProjectsDir,
		MultiProjectMode:     c.ProjectsDir != "",
		ShadowVocabularyFile: c.ShadowVocabularyFile,
	}
}
