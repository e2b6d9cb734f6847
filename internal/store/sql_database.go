package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/migrations"
)

// ErrorClassificator decides whether a failed database operation is worth
// retrying. The postgres implementation inspects pgconn error codes; sqlite
// failures are always treated as non-retryable.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
	IsUniqueViolation(err error) bool
}

// DB wraps the raw sql connection together with everything the repositories
// need to stay backend-agnostic: the goose dialect, a placeholder-aware
// statement builder and an error classifier.
type DB struct {
	*sql.DB
	dialect            string
	builder            sq.StatementBuilderType
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// Migrate applies all pending schema migrations for the connection's dialect.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}
