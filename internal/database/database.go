package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/logging"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/metrics"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/resonance"
)

const defaultProject = "default"

// DBManager owns one graph store per project and runs every operation as a
// single load, an in-memory mutation and at most one save. Operations on the
// same project are serialized.
type DBManager struct {
	config *Config
	logger *zap.Logger
	vocab  resonance.Vocabulary
	clock  func() time.Time

	stores map[string]Store
	locks  map[string]*sync.Mutex
	mu     sync.RWMutex
}

// NewDBManager creates a new database manager
func NewDBManager(config *Config, logger *zap.Logger) (*DBManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	manager := &DBManager{
		config: config,
		logger: logging.OrNop(logger),
		vocab:  resonance.DefaultVocabulary(),
		clock:  time.Now,
		stores: make(map[string]Store),
		locks:  make(map[string]*sync.Mutex),
	}
	if config.ShadowVocabularyFile != "" {
		v, err := resonance.LoadVocabulary(config.ShadowVocabularyFile)
		if err != nil {
			return nil, err
		}
		manager.vocab = v
	}

	// If not in multi-project mode, initialize the default store immediately
	if !config.MultiProjectMode {
		if _, err := manager.getStore(context.Background(), defaultProject); err != nil {
			return nil, fmt.Errorf("failed to initialize default store: %w", err)
		}
	}
	return manager, nil
}

// Vocabulary returns the shadow vocabulary used for scoring and enrichment.
func (dm *DBManager) Vocabulary() resonance.Vocabulary { return dm.vocab }

// Config returns the configuration the manager was built with.
func (dm *DBManager) Config() *Config { return dm.config }

func (dm *DBManager) projectKey(projectName string) (string, error) {
	if !dm.config.MultiProjectMode {
		return defaultProject, nil
	}
	if projectName == "" {
		projectName = defaultProject
	}
	if projectName == "." || projectName == ".." || strings.ContainsAny(projectName, `/\`) {
		return "", fmt.Errorf("invalid project name %q", projectName)
	}
	return projectName, nil
}

// getStore retrieves the store for a given project, creating it if necessary
func (dm *DBManager) getStore(ctx context.Context, projectName string) (Store, error) {
	dm.mu.RLock()
	store, ok := dm.stores[projectName]
	dm.mu.RUnlock()
	if ok {
		return store, nil
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	// Double-check if another goroutine created the store while we were waiting for the lock
	if store, ok = dm.stores[projectName]; ok {
		return store, nil
	}
	store, err := dm.openStore(ctx, projectName)
	if err != nil {
		return nil, err
	}
	dm.stores[projectName] = store
	dm.logger.Debug("opened graph store", zap.String("project", projectName), zap.String("store", dm.config.Store))
	return store, nil
}

func (dm *DBManager) openStore(ctx context.Context, projectName string) (Store, error) {
	filePath, dbURL := dm.config.FilePath, dm.config.URL
	if dm.config.MultiProjectMode {
		dir := filepath.Join(dm.config.ProjectsDir, projectName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create project directory for %s: %w", projectName, err)
		}
		filePath = filepath.Join(dir, "memory.json")
		dbURL = "file:" + filepath.Join(dir, "memory.db")
	}
	switch dm.config.Store {
	case StoreLibSQL:
		s, err := NewLibSQLStore(ctx, dbURL, dm.config.AuthToken)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", projectName, err)
		}
		return s, nil
	default:
		return NewFileStore(filePath), nil
	}
}

func (dm *DBManager) projectLock(projectName string) *sync.Mutex {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	l, ok := dm.locks[projectName]
	if !ok {
		l = &sync.Mutex{}
		dm.locks[projectName] = l
	}
	return l
}

// view loads the project graph and hands it to fn without saving.
func (dm *DBManager) view(ctx context.Context, projectName string, fn func(g *apptype.Graph) error) error {
	return dm.update(ctx, projectName, func(g *apptype.Graph) (bool, error) {
		return false, fn(g)
	})
}

// update loads the project graph, lets fn mutate it and saves once if fn
// reports a change. Nothing is saved when fn fails.
func (dm *DBManager) update(ctx context.Context, projectName string, fn func(g *apptype.Graph) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := dm.projectKey(projectName)
	if err != nil {
		return err
	}
	store, err := dm.getStore(ctx, key)
	if err != nil {
		return err
	}
	lock := dm.projectLock(key)
	lock.Lock()
	defer lock.Unlock()

	g, err := dm.load(ctx, key, store)
	if err != nil {
		return err
	}
	changed, err := fn(g)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return dm.save(ctx, key, store, g)
}

func (dm *DBManager) load(ctx context.Context, project string, store Store) (*apptype.Graph, error) {
	done := metrics.TimeOp("load")
	success := false
	defer func() { done(success) }()
	g, err := store.Load(ctx)
	if err != nil {
		dm.logger.Error("failed to load graph", zap.String("project", project), zap.Error(err))
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	metrics.Default().ObserveGraphSize(project, len(g.Entities), len(g.Relations))
	success = true
	return g, nil
}

func (dm *DBManager) save(ctx context.Context, project string, store Store, g *apptype.Graph) error {
	done := metrics.TimeOp("save")
	success := false
	defer func() { done(success) }()
	if err := store.Save(ctx, g); err != nil {
		dm.logger.Error("failed to save graph", zap.String("project", project), zap.Error(err))
		return fmt.Errorf("failed to save graph: %w", err)
	}
	metrics.Default().ObserveGraphSize(project, len(g.Entities), len(g.Relations))
	success = true
	return nil
}

func (dm *DBManager) timestamp() string {
	return dm.clock().UTC().Format(time.RFC3339)
}

// Close closes all stores
func (dm *DBManager) Close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	var errs []error
	for name, s := range dm.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store for project %s: %w", name, err))
		}
	}
	dm.stores = make(map[string]Store)
	return errors.Join(errs...)
}
