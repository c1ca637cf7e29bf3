package intake

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/guardian"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/intakes", h.LogDose)
	api.GET("/intakes", h.ListEvents)
	api.GET("/intakes/today", h.ListToday)
	api.PUT("/intakes/:id/action", h.ResolveEvent)
}

type logDoseRequest struct {
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	PrescriptionID uuid.UUID  `json:"prescription_id"`
	MedicineID     uuid.UUID  `json:"medicine_id"`
	ScheduleID     *uuid.UUID `json:"schedule_id,omitempty"`
	ReminderTime   time.Time  `json:"reminder_time"`
}

func (h *Handler) LogDose(c echo.Context) error {
	var req logDoseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	actor := auth.UserIDFromContext(ctx)
	userID := actor
	if req.UserID != nil {
		userID = *req.UserID
	}

	e := &Event{
		UserID:         userID,
		PrescriptionID: req.PrescriptionID,
		MedicineID:     req.MedicineID,
		ScheduleID:     req.ScheduleID,
		ReminderTime:   req.ReminderTime,
	}
	created, err := h.svc.LogDose(ctx, actor, auth.RoleFromContext(ctx), e)
	if err != nil {
		if errors.Is(err, guardian.ErrForbidden) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

type resolveRequest struct {
	Action string `json:"action"`
}

func (h *Handler) ResolveEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	action, err := ParseAction(req.Action)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	e, err := h.svc.Resolve(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), id, action)
	if err != nil {
		switch {
		case errors.Is(err, guardian.ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, pgx.ErrNoRows):
			return echo.NewHTTPError(http.StatusNotFound, "intake event not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListEvents(c echo.Context) error {
	var target *uuid.UUID
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
		target = &id
	}
	start, err := parseTimeParam(c.QueryParam("start"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid start")
	}
	end, err := parseTimeParam(c.QueryParam("end"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end")
	}
	var medicineID *uuid.UUID
	if raw := c.QueryParam("medicine_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid medicine_id")
		}
		medicineID = &id
	}

	ctx := c.Request().Context()
	events, err := h.svc.List(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), target, start, end, medicineID)
	if err != nil {
		if errors.Is(err, guardian.ErrForbidden) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if events == nil {
		events = []*Event{}
	}
	return c.JSON(http.StatusOK, events)
}

// ListToday returns the current day's doses for the caller or an explicitly
// requested subject the caller may view.
func (h *Handler) ListToday(c echo.Context) error {
	ctx := c.Request().Context()
	subject := auth.UserIDFromContext(ctx)
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
		subject = id
	}

	events, err := h.svc.ListDay(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), subject, time.Now())
	if err != nil {
		if errors.Is(err, guardian.ErrForbidden) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if events == nil {
		events = []*Event{}
	}
	return c.JSON(http.StatusOK, events)
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
