package main

import (
	"fmt"
	"log"
	"os"

	"github.com/edudesk/portal/core"
	logsvc "github.com/edudesk/portal/services/logger"
	"github.com/edudesk/portal/services/schoolapi"
	"github.com/edudesk/portal/storage/session"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "PORTAL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	store, err := session.Open(conf.Session)
	if err != nil {
		logger.Fatal("opening session store", err)
	}

	cli := commandLine{
		conf:   conf,
		client: schoolapi.NewClient(conf, store, logger),
		log:    logger,
		out:    os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", core.UserMessage(err, err.Error()))
		}
		os.Exit(1)
	}
}
