package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fpawel/castings/internal/config"
	"github.com/fpawel/castings/internal/data"
	"github.com/powerman/structlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := rootCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "castings.toml")
	dbPath := filepath.Join(dir, "other.db")

	require.NoError(t, execute(t, "config", "init", "--config", filename, "--db", dbPath))
	c, err := config.Load(filename)
	require.NoError(t, err)
	assert.Equal(t, dbPath, c.DBPath)
	assert.Equal(t, config.Default().Web, c.Web)

	err = execute(t, "config", "init", "--config", filename)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, execute(t, "config", "init", "--config", filename, "--force", "--db", "third.db"))
	c, err = config.Load(filename)
	require.NoError(t, err)
	assert.Equal(t, "third.db", c.DBPath)
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "castings.csv")
	dbPath := filepath.Join(dir, "castings.db")
	require.NoError(t, os.WriteFile(csvFile, []byte(
		"Casting ID,Years,CID,Low Power,High Power,Main Caps,Comments\n"+
			"1050123,2012-2015,ABC,150kW,310kW,Al,\n"), 0644))

	args := []string{"import", csvFile, "--config", filepath.Join(dir, "missing.toml"), "--db", dbPath}
	require.NoError(t, execute(t, args...))
	require.NoError(t, execute(t, args...), "repeated import keeps existing rows")

	db, err := data.Open(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	got, err := data.NewStore(db).GetCasting(context.Background(), "1050123")
	require.NoError(t, err)
	assert.Equal(t, "310kW", got.HighPower)
}

func TestImportCommandMissingFile(t *testing.T) {
	dir := t.TempDir()
	err := execute(t, "import", filepath.Join(dir, "nope.csv"),
		"--config", filepath.Join(dir, "missing.toml"), "--db", filepath.Join(dir, "castings.db"))
	require.Error(t, err)
}

func TestServeStopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	shutdownCalled := false

	listen := func() error {
		<-stopped
		return http.ErrServerClosed
	}
	shutdown := func(context.Context) error {
		shutdownCalled = true
		close(stopped)
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, structlog.New(), listen, shutdown) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, shutdownCalled)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestServeListenFailure(t *testing.T) {
	err := serve(context.Background(), structlog.New(),
		func() error { return errors.New("address already in use") },
		func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
}

func TestLogPrependSuffixKeys(t *testing.T) {
	assert.NotNil(t, logPrependSuffixKeys(structlog.New(), "addr", ":8000"))
	assert.Panics(t, func() { logPrependSuffixKeys(structlog.New(), 1, 2) })
}

func TestLogLevelFromConfig(t *testing.T) {
	t.Cleanup(func() { structlog.DefaultLogger.SetLogLevel(structlog.INF) })
	dir := t.TempDir()

	for level, wantInfo := range map[string]bool{"wrn": false, "err": false, "inf": true, "dbg": true} {
		filename := filepath.Join(dir, level+".toml")
		require.NoError(t, os.WriteFile(filename, []byte(`log_level = "`+level+`"`), 0644))
		require.NoError(t, execute(t, "config", "show", "--config", filename), level)
		assert.Equal(t, wantInfo, structlog.DefaultLogger.IsInfo(), level)
		assert.Equal(t, level == "dbg", structlog.DefaultLogger.IsDebug(), level)
	}

	filename := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(filename, []byte(`log_level = "loud"`), 0644))
	err := execute(t, "config", "show", "--config", filename)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}
