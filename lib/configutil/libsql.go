package configutil

import (
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Libsql points a service at either a local sqlite file or a remote
// libsql/turso database.
type Libsql struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Libsql) OpenDB() (*sql.DB, error) {
	if config.Url == "" {
		return sql.Open("sqlite", config.File)
	}
	url := config.Url
	if config.AuthToken != "" {
		url = fmt.Sprintf("%s?authToken=%s", url, config.AuthToken)
	}
	return sql.Open("libsql", url)
}
