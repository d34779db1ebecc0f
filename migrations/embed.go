// Package migrations holds the recipient schema as goose SQL migrations and
// the helpers that apply it from recipientctl and the test suites.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

// Tables lists the tables owned by the recipient schema, parents first.
// Everything after "recipients" cascades from it on delete.
var Tables = []string{
	"recipients",
	"accepted_types",
	"storage_capabilities",
	"special_capabilities",
	"open_hours",
	"contacts",
}

// NewProvider returns a Postgres goose provider over FS.
func NewProvider(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, FS)
	if err != nil {
		return nil, fmt.Errorf("migrations.NewProvider: %w", err)
	}
	return p, nil
}
