package persistence

import (
	"database/sql"
	"errors"
	"os"
	"regexp"
)

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv reads DATABASE_DRIVER (default mysql) and
// DATABASE_URL, e.g.
// "user:pass@(mysql:3306)/cleanops?charset=utf8mb4&parseTime=True&loc=Local".
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	driverType := os.Getenv("DATABASE_DRIVER")
	if driverType == "" {
		driverType = "mysql"
	}
	driverArgs := os.ExpandEnv(os.Getenv("DATABASE_URL"))
	if driverArgs == "" {
		return nil, errors.New("environment variable DATABASE_URL is not set")
	}
	return &DatabaseConfig{DriverType: driverType, DriverArgs: driverArgs}, nil
}

var databaseNamePattern = regexp.MustCompile(`/([0-9a-zA-Z_-]+)\?`)

// PrepareMysqlDatabase creates the schema when it does not exist yet, so a
// fresh deployment can start against an empty MySQL server.
func PrepareMysqlDatabase(driverArgs string) error {
	match := databaseNamePattern.FindStringSubmatch(driverArgs)
	if len(match) != 2 {
		return errors.New("unable to extract database name from driver args")
	}
	databaseName := match[1]

	db, err := sql.Open("mysql", databaseNamePattern.ReplaceAllString(driverArgs, "/?"))
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` CHARACTER SET utf8mb4")
	return err
}
