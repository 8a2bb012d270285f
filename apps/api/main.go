package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/edlabs/academia/apps/api/echo"
	"github.com/edlabs/academia/core"
	"github.com/edlabs/academia/core/replica"
	"github.com/edlabs/academia/core/school"
	"github.com/edlabs/academia/core/user"
	appfs "github.com/edlabs/academia/fs"
	emailsvc "github.com/edlabs/academia/services/email"
	logsvc "github.com/edlabs/academia/services/logger"
	"github.com/edlabs/academia/storage/database"
	"github.com/edlabs/academia/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)

	if err := run(conf, logger); err != nil {
		logger.Fatal("startup failed", err)
	}
}

func run(conf *core.Config, logger core.Logger) error {
	expvar.NewString("build").Set(conf.Build)
	logger.Info("application starting; build " + conf.Build)

	// primary database
	if err := database.CreateIfNotExist(conf); err != nil {
		return errors.Wrap(err, "provisioning database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer db.Close()
	if err = database.Migrate(db); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	sdb := database.Wrap(db)

	usrRepo := sqlxrepos.NewUserRepository(sdb)
	schRepo := sqlxrepos.NewSchoolRepository(sdb)

	// mirror database; replication stays off until one is configured
	var gateway *replica.Gateway
	if conf.Replica.URL != "" {
		rdb, err := database.OpenReplica(conf)
		if err != nil {
			return errors.Wrap(err, "opening replica database")
		}
		defer rdb.Close()
		gateway = replica.NewGateway(
			database.NewRowStore(sdb),
			database.NewRowStore(database.Wrap(rdb)),
			school.ReplicaColumns,
		)
	} else {
		logger.Warn("replica database not configured; replication disabled")
	}

	// validation & translations
	validate := validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, conf, logger)

	// services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	schSvc := school.NewService(schRepo)

	// debug server; expvar & pprof off the default mux
	if host := conf.Server.DebugHost; host != "" {
		go func() {
			logger.Info("debug server listening on " + host)
			if err := http.ListenAndServe(host, http.DefaultServeMux); err != nil {
				logger.Error("debug server closed", err)
			}
		}()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	echoapi.ConfigureAuth(conf)
	app := echoapi.NewServer(
		conf.Server.Address(),
		func() { shutdown <- syscall.SIGTERM },
		&echoapi.Deps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			UserSvc:    usrSvc,
			SchoolSvc:  schSvc,
			Gateway:    gateway,
			Seeder:     school.NewSeeder(schRepo, usrRepo),
		},
	)
	go app.Start()
	logger.Info("api listening on " + conf.Server.Address())

	sig := <-shutdown
	logger.Info("shutdown started; signal " + sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	logger.Info("shutdown complete")
	return nil
}
