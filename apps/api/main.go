package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	echoapi "github.com/Daniel-Nas/teaching-assistant/apps/api/echo"
	"github.com/Daniel-Nas/teaching-assistant/core"
	"github.com/Daniel-Nas/teaching-assistant/core/class"
	"github.com/Daniel-Nas/teaching-assistant/core/student"
	emailsvc "github.com/Daniel-Nas/teaching-assistant/services/email"
	logsvc "github.com/Daniel-Nas/teaching-assistant/services/logger"
	"github.com/Daniel-Nas/teaching-assistant/storage/database"
	inmemdb "github.com/Daniel-Nas/teaching-assistant/storage/database/inmem"
	sqlxrepos "github.com/Daniel-Nas/teaching-assistant/storage/database/sqlx"
)

const shutdownTimeout = 20 * time.Second

func main() {
	conf := core.Conf

	// =========================================================================
	// Set up Dependencies

	var logger core.Logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	stdRepo, clsRepo, closeDB, err := setUpDB(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	clsSvc := class.NewService(clsRepo, stdRepo, mailSvc)
	stdSvc := student.NewService(stdRepo, clsSvc)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(
		&echoapi.Options{
			Addr:       conf.Server.Addr(),
			Logger:     logger,
			StudentSvc: stdSvc,
			ClassSvc:   clsSvc,
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
		if err = closeDB(); err != nil {
			logger.Error(fmt.Sprintf("could not close database: %v", err), err)
		}
	}
}

// setUpDB opens the storage backend selected by the configuration and returns
// the repositories plus a close callback to run on shutdown.
func setUpDB(conf *core.Config, logger core.Logger) (student.Repository, class.Repository, func() error, error) {
	switch conf.Database.Engine {
	case "postgres":
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, nil, nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, nil, err
		}
		if err = database.Bootstrap(db); err != nil {
			return nil, nil, nil, err
		}
		return sqlxrepos.NewStudentRepository(db), sqlxrepos.NewClassRepository(db), db.Close, nil

	default: // in-memory tables persisted to a JSON snapshot
		db, err := inmemdb.Open(conf.Database.SnapshotPath, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return inmemdb.NewStudentRepository(db), inmemdb.NewClassRepository(db), db.Close, nil
	}
}
