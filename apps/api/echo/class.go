package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Daniel-Nas/teaching-assistant/core"
	"github.com/Daniel-Nas/teaching-assistant/core/class"
)

var errClsNotFoundInCtx = errors.New("class object not found in echo.Context")

type classApi struct {
	svc *class.Service
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *class.Service) {
	api := classApi{svc: svc}

	cg := g.Group("/classes", jwt)
	cg.POST("", api.create)
	cg.GET("", api.query)

	// detail endpoints
	dg := cg.Group("/:id", api.objectMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)

	// sub-resources; the service resolves the class itself
	cg.POST("/:id/enrollments", api.enroll)
	cg.DELETE("/:id/enrollments/:cpf", api.unenroll)
	cg.PUT("/:id/enrollments/:cpf/evaluations", api.recordEvaluation)
	cg.POST("/:id/enrollments/:cpf/evaluations/import", api.importEvaluations)
	cg.GET("/:id/discrepancies", api.discrepancies)
	cg.POST("/:id/self-evaluation-requests", api.requestSelfEvaluation)
}

// Handlers

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	cls, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}

	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	classes, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClsNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClsNotFoundInCtx, "retrieving object from context")
	}

	var data class.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(cls, api.svc); err != nil {
		return err
	}

	cls, err := api.svc.Update(cls, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}

	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClsNotFoundInCtx, "retrieving object from context")
	}

	if err := api.svc.Delete(cls.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) enroll(ctx echo.Context) error {
	var data EnrollmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollmentRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, err := api.svc.Enroll(ctx.Param("id"), data.CPF)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) unenroll(ctx echo.Context) error {
	if _, err := api.svc.Unenroll(ctx.Param("id"), ctx.Param("cpf")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) recordEvaluation(ctx echo.Context) error {
	var data class.Evaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Evaluation")
	}

	cls, err := api.svc.RecordEvaluation(ctx.Param("id"), ctx.Param("cpf"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) importEvaluations(ctx echo.Context) error {
	var data ImportEvaluationsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ImportEvaluationsRequest")
	}

	cls, err := api.svc.ImportEvaluations(ctx.Param("id"), ctx.Param("cpf"), data.Cells)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) discrepancies(ctx echo.Context) error {
	report, err := api.svc.Discrepancies(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *classApi) requestSelfEvaluation(ctx echo.Context) error {
	var data class.SelfEvaluationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelfEvaluationRequest")
	}

	scheduledFor, err := api.svc.RequestSelfEvaluation(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusAccepted, SelfEvaluationResponse{ScheduledFor: scheduledFor})
}

// objectMiddleware loads the class addressed by the `id` path param
// into the context for the detail handlers.
func (api *classApi) objectMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cls, err := api.svc.GetByID(ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == class.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding class by ID")
			}
			ctx.Set("object", cls)
			return next(ctx)
		}
	}
}

type (
	EnrollmentRequest struct {
		CPF string `json:"cpf" validate:"required,cpf"`
	}

	ImportEvaluationsRequest struct {
		Cells []class.Evaluation `json:"cells"`
	}

	SelfEvaluationResponse struct {
		ScheduledFor time.Time `json:"scheduled_for"`
	}
)

func (er *EnrollmentRequest) Validate() error {
	er.CPF = core.CleanDigits(er.CPF)
	return core.Validate.Struct(er)
}
