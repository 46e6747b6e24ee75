package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys. Each key is available as a command line flag and as an environment variable
// with the same name in upper case and with '-' replaced by '_' (e.g. GIN_LOGGING, DBHOST).
const (
	ConfigKey     = "config"
	VerboseKey    = "verbose"
	LaddrKey      = "laddr"
	DriverKey     = "driver"
	DSNKey        = "dsn"
	DBHostKey     = "dbhost"
	DBUserKey     = "dbuser"
	DBPwdKey      = "dbpwd"
	DBNameKey     = "dbname"
	GinLoggingKey = "gin-logging"
	LogFileKey    = "log-file"
	MetricsKey    = "metrics"
	InitSchemaKey = "init-schema"
)

// Supported database drivers.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
	SQLite   = "sqlite"
)

var (
	ErrUnknownDriver = errors.New("unknown database driver")
	ErrInvalidPort   = errors.New("could not parse PORT env variable")
)

// Config holds the settings of the address book service after flags, environment variables and
// the config file have been merged.
type Config struct {
	Verbose    bool
	Laddr      string
	Driver     string
	DSN        string
	GinLogging bool
	LogFile    string
	Metrics    bool
	InitSchema bool
}

// RegisterCommonFlags adds the flags that every command understands.
func RegisterCommonFlags(flags *pflag.FlagSet, use string) {
	flags.StringP(ConfigKey, "c", "", "Config file to use (by default "+use+".yaml in the XDG config directory is read if it exists)")
	flags.BoolP(VerboseKey, "v", false, "Enable debug logging")
}

// ReadConfigFile merges the explicitly named config file, or the default config file in the XDG
// config directory if there is one, into v.
func ReadConfigFile(v *viper.Viper, use string) error {
	if file := v.GetString(ConfigKey); file != "" {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}
	v.SetConfigName(use)
	v.AddConfigPath(xdg.ConfigHome)
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		return err
	}
	return nil
}

// RegisterDatabaseFlags adds the flags that describe the database connection. They are shared by
// all commands that talk to the database.
func RegisterDatabaseFlags(flags *pflag.FlagSet) {
	flags.String(DriverKey, MySQL, "Database driver (mysql, postgres or sqlite; sqlite ignores case in name searches for ASCII letters only)")
	flags.String(DSNKey, "", "Data source name; assembled from dbhost, dbuser, dbpwd and dbname if empty")
	flags.String(DBHostKey, "localhost:3306", "Database host and port")
	flags.String(DBUserKey, "", "Database user")
	flags.String(DBPwdKey, "", "Database password")
	flags.String(DBNameKey, "addressbook", "Database name (file name without suffix for sqlite)")
}

// RegisterServiceFlags adds the flags of the HTTP service.
func RegisterServiceFlags(flags *pflag.FlagSet) {
	flags.String(LaddrKey, ":8080", "Listen address; the PORT env variable overrides its port")
	flags.String(GinLoggingKey, "on", "Log every HTTP request (on or off)")
	flags.String(LogFileKey, "", "Additionally write JSON logs to this file, with rotation")
	flags.Bool(MetricsKey, false, "Expose Prometheus metrics on /metrics")
	flags.Bool(InitSchemaKey, false, "Create the addresses table on start-up if it does not exist")
}

// BindEnv makes viper look up every key in the environment.
func BindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load builds the configuration from viper. Flags must have been bound beforehand.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Verbose:    v.GetBool(VerboseKey),
		Laddr:      v.GetString(LaddrKey),
		GinLogging: !strings.EqualFold(v.GetString(GinLoggingKey), "off"),
		LogFile:    v.GetString(LogFileKey),
		Metrics:    v.GetBool(MetricsKey),
		InitSchema: v.GetBool(InitSchemaKey),
	}

	if port := os.Getenv("PORT"); port != "" {
		laddr, err := overridePort(cfg.Laddr, port)
		if err != nil {
			return cfg, err
		}
		cfg.Laddr = laddr
	}

	var err error
	cfg.Driver, cfg.DSN, err = LoadDatabase(v)
	return cfg, err
}

// LoadDatabase returns the driver name and the data source name.
func LoadDatabase(v *viper.Viper) (driver string, dsn string, err error) {
	driver = strings.ToLower(v.GetString(DriverKey))
	dsn = v.GetString(DSNKey)
	if dsn != "" {
		if !knownDriver(driver) {
			return "", "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
		}
		return driver, dsn, nil
	}
	dsn, err = BuildDSN(driver, v.GetString(DBHostKey), v.GetString(DBUserKey), v.GetString(DBPwdKey), v.GetString(DBNameKey))
	return driver, dsn, err
}

// BuildDSN assembles a data source name for the driver from its parts.
func BuildDSN(driver, host, user, password, dbname string) (string, error) {
	switch driver {
	case MySQL:
		cfg := mysql.NewConfig()
		cfg.User = user
		cfg.Passwd = password
		cfg.Net = "tcp"
		cfg.Addr = host
		cfg.DBName = dbname
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	case Postgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(user, password),
			Host:     host,
			Path:     "/" + dbname,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case SQLite:
		return "file:" + dbname + ".db", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func knownDriver(driver string) bool {
	return driver == MySQL || driver == Postgres || driver == SQLite
}

// overridePort replaces the port of a listen address.
func overridePort(laddr string, port string) (string, error) {
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPort, err)
	}
	host, _, err := net.SplitHostPort(laddr)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(host, port), nil
}
