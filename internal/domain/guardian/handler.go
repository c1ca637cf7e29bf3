package guardian

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/guardian-links", h.CreateLink)
	api.GET("/guardian-links/wards", h.ListWards)
	api.GET("/guardian-links/guardians", h.ListGuardians)
	api.PUT("/guardian-links/:patientId", h.UpdateLink)
	api.DELETE("/guardian-links/:patientId", h.DeleteLink)
}

type createLinkRequest struct {
	GuardianID *uuid.UUID `json:"guardian_id,omitempty"`
	PatientID  uuid.UUID  `json:"patient_id"`
	Relation   *string    `json:"relation,omitempty"`
}

// CreateLink registers the caller (or, for admins, an arbitrary guardian) as
// guardian of a patient.
func (h *Handler) CreateLink(c echo.Context) error {
	var req createLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	actor := auth.UserIDFromContext(ctx)
	guardianID := actor
	if req.GuardianID != nil {
		if auth.RoleFromContext(ctx) != auth.RoleAdmin && *req.GuardianID != actor {
			return echo.NewHTTPError(http.StatusForbidden, "only admins may create links for other guardians")
		}
		guardianID = *req.GuardianID
	}

	link := &Link{GuardianID: guardianID, PatientID: req.PatientID, Relation: req.Relation}
	if err := h.svc.CreateLink(ctx, link); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, link)
}

// ListWards returns the links where the caller is the guardian.
func (h *Handler) ListWards(c echo.Context) error {
	ctx := c.Request().Context()
	links, err := h.svc.ListWards(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, links)
}

// ListGuardians returns the links where the caller is the patient.
func (h *Handler) ListGuardians(c echo.Context) error {
	ctx := c.Request().Context()
	links, err := h.svc.ListGuardians(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, links)
}

type updateLinkRequest struct {
	Relation *string `json:"relation,omitempty"`
}

func (h *Handler) UpdateLink(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req updateLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.svc.UpdateLink(ctx, auth.UserIDFromContext(ctx), patientID, req.Relation); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteLink(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	ctx := c.Request().Context()
	if err := h.svc.DeleteLink(ctx, auth.UserIDFromContext(ctx), patientID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
