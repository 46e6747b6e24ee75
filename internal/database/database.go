package database

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"gitlab.com/dirk.krummacker/address-book-service/internal/config"
)

//go:embed schema/*.sql
var schemas embed.FS

func init() {
	sqlx.BindDriver(config.SQLite, sqlx.QUESTION)
}

// Open connects to the database and verifies the connection. SQLite databases are restricted to
// a single connection because every connection to an in-memory database sees its own data.
func Open(ctx context.Context, log *zap.Logger, driver string, dsn string) (*sqlx.DB, error) {
	log.Debug("Connecting to database", zap.String("driver", driver), zap.String("dsn", redactDSN(driver, dsn)))
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open %s database: %w", driver, err)
	}
	if driver == config.SQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to %s database: %w", driver, err)
	}
	log.Info("Connected to database", zap.String("driver", driver))
	return db, nil
}

// redactDSN removes the password from a data source name so that it can be logged. A DSN that
// cannot be parsed is not logged at all.
func redactDSN(driver string, dsn string) string {
	switch driver {
	case config.MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return ""
		}
		cfg.Passwd = ""
		return cfg.FormatDSN()
	case config.Postgres:
		u, err := url.Parse(dsn)
		if err != nil || u.Scheme == "" {
			return ""
		}
		if q := u.Query(); q.Has("password") {
			q.Set("password", "xxxxx")
			u.RawQuery = q.Encode()
		}
		return u.Redacted()
	default:
		name, _, _ := strings.Cut(dsn, "?")
		return name
	}
}

// Schema returns the DDL that creates the addresses table for the driver.
func Schema(driver string) (string, error) {
	ddl, err := schemas.ReadFile("schema/" + driver + ".sql")
	if err != nil {
		return "", fmt.Errorf("%w: %q", config.ErrUnknownDriver, driver)
	}
	return string(ddl), nil
}

// ApplySchema creates the addresses table if it does not exist yet.
func ApplySchema(ctx context.Context, db *sqlx.DB) error {
	ddl, err := Schema(db.DriverName())
	if err != nil {
		return err
	}
	_, err = ExecScript(ctx, db, strings.NewReader(ddl))
	return err
}

// ExecScript executes the SQL statements read from r one after another. A statement ends on the
// first line that contains a ';'. It returns the number of statements executed.
func ExecScript(ctx context.Context, db *sqlx.DB, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	executed := 0
	for scanner.Scan() {
		line := scanner.Text()
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			if _, err := db.ExecContext(ctx, builder.String()); err != nil {
				return executed, fmt.Errorf("statement %d failed: %w", executed+1, err)
			}
			executed++
			builder = strings.Builder{}
		}
	}
	if err := scanner.Err(); err != nil {
		return executed, err
	}
	if rest := strings.TrimSpace(builder.String()); rest != "" {
		if _, err := db.ExecContext(ctx, rest); err != nil {
			return executed, fmt.Errorf("statement %d failed: %w", executed+1, err)
		}
		executed++
	}
	return executed, nil
}
