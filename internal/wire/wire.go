// Package wire provides dependency injection for goapgit.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"os"
	"sync"

	cliadapter "github.com/example/goapgit/internal/adapters/cli"
	"github.com/example/goapgit/internal/adapters/gitexec"
	"github.com/example/goapgit/internal/adapters/sqlite"
	"github.com/example/goapgit/internal/app"
	"github.com/example/goapgit/internal/core/action"
	"github.com/example/goapgit/internal/db"
	"github.com/example/goapgit/internal/logging"
	"github.com/example/goapgit/internal/ports/primary"
	"github.com/example/goapgit/internal/ports/secondary"
)

var (
	maintenanceService primary.MaintenanceService
	logger             = logging.Nop()
	once               sync.Once
)

// SetLogger installs the logger handed to services.
// It only has an effect before the first service is requested.
func SetLogger(l logging.Logger) {
	if l != nil {
		logger = l
	}
}

// Logger returns the configured logger.
func Logger() logging.Logger {
	return logger
}

// MaintenanceService returns the singleton MaintenanceService instance.
func MaintenanceService() primary.MaintenanceService {
	once.Do(initServices)
	return maintenanceService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	// Run history is optional: without a database the service still plans and runs.
	var runRepo secondary.RunRepository
	database, err := db.GetDB()
	if err != nil {
		logger.Warn("run history disabled", "error", err)
	} else {
		runRepo = sqlite.NewRunRepository(database)
	}

	maintenanceService = app.NewMaintenanceService(action.Default(), newRunner, runRepo, logger)
}

func newRunner(dir string, dryRun bool) secondary.CommandRunner {
	if dryRun {
		return gitexec.NewDryRunner(dir)
	}
	return gitexec.NewRunner(dir)
}

// MaintenanceAdapter returns a new MaintenanceAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func MaintenanceAdapter() *cliadapter.MaintenanceAdapter {
	return MaintenanceAdapterWithOutput(os.Stdout)
}

// MaintenanceAdapterWithOutput returns a new MaintenanceAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func MaintenanceAdapterWithOutput(out io.Writer) *cliadapter.MaintenanceAdapter {
	once.Do(initServices)
	return cliadapter.NewMaintenanceAdapter(maintenanceService, out)
}
