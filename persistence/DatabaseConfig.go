package persistence

import (
	"database/sql"
	"errors"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv DATABASE_DRIVER (default mysql), DATABASE_URL
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	driverType := os.Getenv("DATABASE_DRIVER")
	if driverType == "" {
		driverType = "mysql"
	}
	driverArgs := os.Getenv("DATABASE_URL")
	if driverArgs == "" {
		return nil, errors.New("environment variable DATABASE_URL is not set")
	}
	return &DatabaseConfig{DriverType: driverType, DriverArgs: driverArgs}, nil
}

// PrepareMysqlDatabase create the database of the DSN when absent
func PrepareMysqlDatabase(driverArgs string) error {
	cfg, err := mysql.ParseDSN(driverArgs)
	if err != nil {
		return err
	}
	databaseName := cfg.DBName
	if databaseName == "" {
		return errors.New("database name is not found in DSN")
	}

	serverArgs := strings.Replace(driverArgs, "/"+databaseName, "/", 1)
	conn, err := sql.Open("mysql", serverArgs)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` CHARACTER SET utf8mb4")
	return err
}
