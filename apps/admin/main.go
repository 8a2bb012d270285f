package main

import (
	"log"
	"os"

	"github.com/edlabs/academia/core"
	"github.com/edlabs/academia/core/replica"
	"github.com/edlabs/academia/core/school"
	"github.com/edlabs/academia/storage/database"
	"github.com/edlabs/academia/storage/database/sqlxrepos"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	sdb := database.Wrap(db)

	// set up the replication gateway when a mirror is configured
	var gateway *replica.Gateway
	if conf.Replica.URL != "" {
		rdb, err := database.OpenReplica(conf)
		errAndDie(err)
		defer rdb.Close()
		gateway = replica.NewGateway(
			database.NewRowStore(sdb),
			database.NewRowStore(database.Wrap(rdb)),
			school.ReplicaColumns,
		)
	}

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(sdb),
		schRepo: sqlxrepos.NewSchoolRepository(sdb),
		gateway: gateway,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
