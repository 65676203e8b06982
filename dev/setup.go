package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	devenv "bocateam/dev/env"
	"bocateam/lib/secretstore"
)

const devStorePath = "<dev_state>/secrets.db"

func CreateSecretStore() error {
	path, err := devenv.ResolvePath(devStorePath)
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("secret store already created at", path)
		return nil
	}

	fmt.Println("creating secret store at", path)
	store, err := secretstore.OpenSQLite(path)
	if err != nil {
		return err
	}
	return store.Close()
}

func CreateLiveTestConfig() error {
	path, err := devenv.GetStateFilePath(devenv.BocaTestConfigFile)
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("live test config already exists at", path)
		return nil
	}

	contents, err := json.MarshalIndent(devenv.BocaTestConfig{}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println("writing empty live test config to", path)
	return os.WriteFile(path, contents, 0600)
}

func PrintConfigLocations() {
	slog.Info(
		"fill in dev/.state/boca_config.json to run the live tests against a real BOCA server, they are skipped while its ip is empty. boca-cli can use the dev secret store with a boca.json5 containing {store: \"<dev_state>/secrets.db\"}.",
	)
}
