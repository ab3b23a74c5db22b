package main

import (
	"fmt"
	"log"
	"os"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/user"
	emailsvc "github.com/infort/rh/services/email"
	logsvc "github.com/infort/rh/services/logger"
	"github.com/infort/rh/storage/database"
	sqlxrepos "github.com/infort/rh/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(os.Stderr, conf)
	logger.Enable(false)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf, logger), conf),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("admin: %v", err), err)
		}
		os.Exit(1)
	}
}
