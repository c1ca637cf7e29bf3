package report

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/guardian"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
)

// Authorizer resolves which subjects an actor may read.
type Authorizer interface {
	Authorize(ctx context.Context, actorID uuid.UUID, role string, target *uuid.UUID) (guardian.Scope, error)
}

type Handler struct {
	svc    *Service
	access Authorizer
}

func NewHandler(svc *Service, access Authorizer) *Handler {
	return &Handler{svc: svc, access: access}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reports/adherence", h.Adherence)
	api.GET("/reports/trends", h.Trends)
	api.GET("/dashboard", h.Dashboard)
}

const defaultAdherenceWindow = 30 * 24 * time.Hour
const defaultTrendWindow = 90 * 24 * time.Hour

func (h *Handler) Adherence(c echo.Context) error {
	w, err := h.windowFromRequest(c, defaultAdherenceWindow)
	if err != nil {
		return err
	}
	result, err := h.svc.ComputeAdherence(c.Request().Context(), *w)
	if err != nil {
		return computeError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Trends(c echo.Context) error {
	period, err := ParsePeriod(c.QueryParam("period"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w, err := h.windowFromRequest(c, defaultTrendWindow)
	if err != nil {
		return err
	}
	result, err := h.svc.ComputeTrend(c.Request().Context(), *w, period)
	if err != nil {
		return computeError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// Dashboard is always single-subject: the caller, or an explicitly requested
// user the caller may view.
func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	subject := auth.UserIDFromContext(ctx)
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
		subject = id
	}
	if _, err := h.access.Authorize(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), &subject); err != nil {
		if errors.Is(err, guardian.ErrForbidden) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	snap, err := h.svc.ComposeDashboard(ctx, subject)
	if err != nil {
		return computeError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

// computeError maps pre-fetch validation failures to 400; anything else is a
// propagated store failure.
func computeError(err error) error {
	if errors.Is(err, errValidation) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// windowFromRequest authorizes the requested target (or the implicit
// self-plus-wards scope) and parses the time bounds, defaulting to a trailing
// window ending now.
func (h *Handler) windowFromRequest(c echo.Context, span time.Duration) (*Window, error) {
	ctx := c.Request().Context()

	var target *uuid.UUID
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
		target = &id
	}
	scope, err := h.access.Authorize(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), target)
	if err != nil {
		if errors.Is(err, guardian.ErrForbidden) {
			return nil, echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	end := h.svc.now()
	start := end.Add(-span)
	if raw := c.QueryParam("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid start")
		}
		start = t
	}
	if raw := c.QueryParam("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid end")
		}
		end = t
	}

	w := &Window{Scope: scope, Start: start, End: end}
	if raw := c.QueryParam("medicine_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid medicine_id")
		}
		w.MedicineID = &id
	}
	return w, nil
}
