package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Jacobbrewer1/lynx/pkg/dataaccess"
	"github.com/Jacobbrewer1/lynx/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/joho/godotenv"
)

// Bulk-closes every non-closed ticket. Run this after taking the bot down for
// maintenance, when the surfaces behind open tickets have been purged by hand
// and the records would otherwise block their creators forever.

const (
	closedBy    = "cleanup"
	closeReason = "bulk_cleanup"
)

func main() {
	l, err := logging.CommonLogger(logging.NewConfig(logging.Name("lynx-cleanup")))
	if err != nil {
		log.Fatalln(err)
	}

	if err := godotenv.Load(); err != nil {
		l.Debug("No .env file found, using process environment")
	}

	mongoConn := new(connection.MongoDB)
	mongoConn.ConnectionString = os.Getenv("MONGO_URI")

	db, err := mongoConn.Connect()
	if err != nil {
		l.Error("Error connecting to mongo", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}
	dataaccess.MongoDB = db

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dal := dataaccess.NewTicketDal(l)
	closed, err := dal.BulkClose(ctx, closedBy, closeReason)
	if err != nil {
		l.Error("Error bulk closing tickets", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}

	l.Info("Bulk close complete", slog.Int64("tickets_closed", closed))

	if err := db.Disconnect(ctx); err != nil {
		l.Error("Error disconnecting from mongo", slog.String(logging.KeyError, err.Error()))
	}
}
