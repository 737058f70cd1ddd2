package configsqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	devenv "vigil-backend/dev/env"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct is the database section of a config file. When Url is set the database is a remote
// libsql instance, otherwise it is a local sqlite file at File (":memory:" is allowed).
type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// OpenDB opens the configured database and applies the given schema.
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	db, err := config.open()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

func (config Struct) open() (*sql.DB, error) {
	if config.Url != "" {
		dbUrl, err := url.Parse(config.Url)
		if err != nil {
			return nil, err
		}
		if config.AuthToken != "" {
			query := dbUrl.Query()
			query.Set("authToken", config.AuthToken)
			dbUrl.RawQuery = query.Encode()
		}
		return sql.Open("libsql", dbUrl.String())
	}

	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	dbpath, err := devenv.ResolvePath(config.File)
	if err != nil {
		return nil, err
	}
	if dbpath != ":memory:" {
		err = os.MkdirAll(filepath.Dir(dbpath), 0777)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
