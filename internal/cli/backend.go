package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/config"
	"github.com/n0roo/filiere-kit/internal/db"
	"github.com/n0roo/filiere-kit/internal/filiere"
	"github.com/n0roo/filiere-kit/internal/gist"
	"github.com/n0roo/filiere-kit/internal/repository"
	"github.com/n0roo/filiere-kit/internal/store"
)

// backend is an opened document store
type backend struct {
	kind   config.Backend
	blob   store.Blob
	client *store.Client
	repo   *repository.Repository
	close  func() error
}

func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openBlob opens the blob of the given backend kind
func openBlob(c *config.Config, kind config.Backend, l *zap.Logger) (store.Blob, func() error, error) {
	switch kind {
	case config.BackendGist:
		blob, err := gist.New(gist.Config{
			ID:       c.Gist.ID,
			Filename: c.Gist.Filename,
			Token:    c.Gist.Token,
			APIURL:   c.Gist.APIURL,
			Timeout:  c.Store.Timeout,
		}, l)
		if err != nil {
			return nil, nil, err
		}
		return blob, nil, nil

	case config.BackendFile:
		return store.NewFileBlob(c.File.Path), nil, nil

	case config.BackendSQLite:
		database, err := openDatabase(c.SQLite.Path, c.SQLite.Engine)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLBlob(database, c.SQLite.Document), database.Close, nil

	default:
		return nil, nil, fmt.Errorf("backend inconnu %q (gist, file, sqlite)", kind)
	}
}

// openDatabase opens the local database. An empty engine defers to
// FILIERE_DB_TYPE.
func openDatabase(path, engine string) (db.Database, error) {
	var (
		database db.Database
		dbType   db.DBType
		err      error
	)
	if engine == "" {
		database, dbType, err = db.OpenAuto(path)
	} else {
		database, dbType, err = db.OpenType(path, db.DBType(engine))
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("database opened", zap.String("path", database.Path()), zap.String("engine", string(dbType)))
	return database, nil
}

// openBackend opens the configured store behind a cached client and the
// repository
func openBackend(c *config.Config) (*backend, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	blob, closeFn, err := openBlob(c, c.Store.Backend, logger)
	if err != nil {
		return nil, err
	}

	client := store.NewClient(blob,
		store.WithCacheTTL(c.Store.CacheTTL),
		store.WithLogger(logger))

	return &backend{
		kind:   c.Store.Backend,
		blob:   blob,
		client: client,
		repo:   repository.New(client, logger),
		close:  closeFn,
	}, nil
}

// editRules returns the checks applied before saving an edit
func editRules(c *config.Config) filiere.Rules {
	return filiere.Rules{PoleData: c.PoleData}
}
