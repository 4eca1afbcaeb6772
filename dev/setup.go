package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	devenv "dividend-backend/dev/env"
	"dividend-backend/lib/sqliteutil"
	companydb "dividend-backend/services/company/db"
)

func cmd(name string, args ...string) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fullCmd := name
	for _, a := range args {
		fullCmd += " "
		fullCmd += a
	}

	fmt.Printf("$ %s\n", fullCmd)
	err := cmd.Run()
	if err != nil {
		os.Exit(1)
	}
}

func CreateLocalStack() error {
	err := os.Chdir("dev/local_stack")
	if err != nil {
		return err
	}
	cmd("docker", "compose", "up", "-d")
	return os.Chdir("../..")
}

func createDb(filename, schema string) error {
	dbPath, err := devenv.ResolvePath(filepath.Join("<dev_state>", filename))
	if err != nil {
		return err
	}

	_, err = os.Stat(dbPath)
	if err == nil {
		fmt.Println("database already created at", dbPath)
		return nil
	}

	fmt.Println("creating database at", dbPath)
	db, err := sqliteutil.OpenDB(schema, dbPath)
	if err != nil {
		return err
	}
	return db.Close()
}

func CreateEmptyServiceDBs() error {
	return createDb("company.db", companydb.Schema)
}

func PrintConfigLocations() {
	slog.Info("tests against the live listing site are skipped unless dev/.state/live_scrape.json5 exists, e.g. { base_url: \"https://finance.yahoo.com\", ticker: \"AAPL\" }")
}
