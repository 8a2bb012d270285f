package tests

import (
	"fmt"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/edlabs/academia/apps/api/echo"
	"github.com/edlabs/academia/core"
	"github.com/edlabs/academia/core/replica"
	"github.com/edlabs/academia/core/school"
	"github.com/edlabs/academia/core/user"
	appfs "github.com/edlabs/academia/fs"
	emailsvc "github.com/edlabs/academia/services/email"
	dummydb "github.com/edlabs/academia/storage/database/dummy"
	testutil "github.com/edlabs/academia/tests"
)

var (
	conf *core.Config
	app  Server

	usrRepo user.Repository
	schRepo school.Repository
	schSvc  school.Service

	primaryStore *memStore
	mirrorStore  *memStore

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf = testutil.NewConfig()
	logger := testutil.Logger{}

	db, err := dummydb.Open()
	if err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	usrRepo = dummydb.NewUserRepository(db)
	schRepo = dummydb.NewSchoolRepository(db)

	validate := validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, conf, logger)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)
	schSvc = school.NewService(schRepo)

	primaryStore = newMemStore()
	mirrorStore = newMemStore()
	gateway := replica.NewGateway(primaryStore, mirrorStore, school.ReplicaColumns)

	ConfigureAuth(conf)
	app = NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&Deps{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			UserSvc:        usrSvc,
			SchoolSvc:      schSvc,
			Gateway:        gateway,
			Seeder:         school.NewSeeder(schRepo, usrRepo),
			DisableReqLogs: true,
		},
	)

	os.Exit(m.Run())
}
