package prescription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/guardian"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
	"github.com/GitQunA1/MedTime-BE-sub000/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/prescriptions", h.Create)
	api.GET("/prescriptions", h.List)
	api.GET("/prescriptions/:id", h.Get)
	api.PUT("/prescriptions/:id", h.Update)
	api.DELETE("/prescriptions/:id", h.Delete)
	api.POST("/prescriptions/:id/schedules", h.AddSchedule)
	api.GET("/prescriptions/:id/schedules", h.ListSchedules)
	api.DELETE("/schedules/:id", h.DeleteSchedule)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, guardian.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Create(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if p.UserID == uuid.Nil {
		p.UserID = auth.UserIDFromContext(ctx)
	}
	created, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), &p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	target := auth.UserIDFromContext(ctx)
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
		target = id
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForUser(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), target, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Get(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	ctx := c.Request().Context()
	updated, err := h.svc.Update(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), &p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type addScheduleRequest struct {
	IntakeTime string `json:"intake_time"`
}

func (h *Handler) AddSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req addScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	sc, err := h.svc.AddSchedule(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx),
		&Schedule{PrescriptionID: id, IntakeTime: req.IntakeTime})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sc)
}

func (h *Handler) ListSchedules(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	schedules, err := h.svc.ListSchedules(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	if schedules == nil {
		schedules = []*Schedule{}
	}
	return c.JSON(http.StatusOK, schedules)
}

func (h *Handler) DeleteSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.DeleteSchedule(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
