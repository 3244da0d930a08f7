package testutil

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"scrapeless-go/lib/telemetry"

	_ "modernc.org/sqlite"
)

type ServiceParams struct {
	Name string
	// scripted responses served by the fake api
	Routes []Route
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	Api *FakeApi
	DB  *sql.DB
}

// SetupService starts a fake platform api for a test and, when a schema is
// given, opens a sqlite database with that schema applied.
func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanupTelemetry := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))

	api := NewFakeApi()
	for _, route := range params.Routes {
		api.Handle(route.Method, route.Path, route.Responses...)
	}

	result := ServiceResult{Api: api}
	if params.DbSchema != "" {
		dbpath := ":memory:"
		if params.DbPath != "" {
			dbpath = params.DbPath
		}
		db, err := sql.Open("sqlite", dbpath)
		if err != nil {
			t.Fatal(err)
		}
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
		_, err = db.Exec(params.DbSchema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			t.Fatal(err)
		}
		result.DB = db
	}

	return result, func() {
		api.Close()
		if result.DB != nil {
			result.DB.Close()
		}
		cleanupTelemetry()
	}
}
