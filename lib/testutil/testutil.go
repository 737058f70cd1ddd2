package testutil

import (
	"database/sql"
	"fmt"
	"testing"
	"vigil-backend/internal/components/telemetry"
	configsqlite "vigil-backend/lib/configutil/sqlite"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService initializes test telemetry and, if a schema is given, a fresh database with the
// schema applied. The returned function releases both.
func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanupTelemetry := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	if params.DbSchema == "" {
		return ServiceResult{}, cleanupTelemetry
	}

	dbpath := params.DbPath
	if dbpath == "" {
		dbpath = ":memory:"
	}
	database, err := configsqlite.Struct{File: dbpath}.OpenDB(params.DbSchema)
	if err != nil {
		t.Fatal(err)
	}

	return ServiceResult{DB: database}, func() {
		database.Close()
		cleanupTelemetry()
	}
}
