package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edlabs/academia/core"
	"github.com/edlabs/academia/core/replica"
	"github.com/edlabs/academia/core/school"
)

var errReplicaNotConfigured = echo.NewHTTPError(http.StatusServiceUnavailable, "replica database is not configured")

type replicaApi struct {
	gateway  *replica.Gateway
	seeder   *school.Seeder
	validate *validator.Validate
}

func registerReplicaAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := replicaApi{
		gateway:  deps.Gateway,
		seeder:   deps.Seeder,
		validate: deps.Validate,
	}

	g.POST("/replication", api.replicate, jwt, adminMiddleware())
	g.POST("/demo-seed", api.seedDemo, jwt, adminMiddleware())
}

// Handlers

func (api *replicaApi) replicate(ctx echo.Context) error {
	if api.gateway == nil {
		return errReplicaNotConfigured
	}

	var data ReplicationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReplicationRequest")
	}
	req, err := data.Validate(api.validate)
	if err != nil {
		return err
	}

	res, err := api.gateway.Apply(ctx.Request().Context(), req)
	if err != nil {
		if exhausted, ok := errors.Cause(err).(*replica.RetryExhaustedError); ok {
			return echo.NewHTTPError(http.StatusConflict, echo.Map{
				"error":   "replication retries exhausted",
				"details": exhausted.Error(),
			})
		}
		return errors.Wrap(err, "applying change request")
	}
	return ctx.JSON(http.StatusOK, ReplicationResponse{Success: true, Result: res})
}

func (api *replicaApi) seedDemo(ctx echo.Context) error {
	report, err := api.seeder.Seed(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "seeding demo data")
	}
	return ctx.JSON(http.StatusOK, report)
}

type (
	ReplicationRequest struct {
		Operation string      `json:"operation" validate:"required,oneof=INSERT UPDATE DELETE SYNC_ALL"`
		Table     string      `json:"table" validate:"required"`
		Row       replica.Row `json:"data"`
		RowID     string      `json:"id"`
	}

	ReplicationResponse struct {
		Success bool           `json:"success"`
		Result  replica.Result `json:"result"`
	}
)

var operations = map[string]replica.Operation{
	"INSERT":   replica.OpCreate,
	"UPDATE":   replica.OpUpdate,
	"DELETE":   replica.OpDelete,
	"SYNC_ALL": replica.OpResyncAll,
}

// Validate checks the request and maps it to a gateway ChangeRequest.
func (rr *ReplicationRequest) Validate(validate *validator.Validate) (replica.ChangeRequest, error) {
	rr.Table = core.CleanString(rr.Table, true /* lower */)
	if err := validate.Struct(rr); err != nil {
		return replica.ChangeRequest{}, err
	}

	op := operations[rr.Operation]
	switch op {
	case replica.OpCreate, replica.OpUpdate:
		if len(rr.Row) == 0 {
			return replica.ChangeRequest{}, core.NewValidationError(nil, core.FieldError{Field: "data", Error: "data is required for this operation"})
		}
	case replica.OpDelete:
		if rr.RowID == "" {
			return replica.ChangeRequest{}, core.NewValidationError(nil, core.FieldError{Field: "id", Error: "id is required for this operation"})
		}
	}

	return replica.ChangeRequest{
		Operation: op,
		Table:     rr.Table,
		Row:       rr.Row,
		RowID:     rr.RowID,
	}, nil
}
