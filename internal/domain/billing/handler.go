package billing

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/payments"
)

// SignatureHeader carries the gateway's HMAC over the webhook body.
const SignatureHeader = "X-Payment-Signature"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/subscriptions/checkout", h.Checkout)
	api.GET("/subscriptions/current", h.Current)
	api.DELETE("/subscriptions/:id", h.Cancel)
}

// RegisterWebhook mounts the gateway callback outside the auth middleware;
// the signature is its authentication.
func (h *Handler) RegisterWebhook(g *echo.Group) {
	g.POST("/webhooks/payment", h.Webhook)
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

type checkoutResponse struct {
	Subscription *Subscription             `json:"subscription"`
	Session      *payments.CheckoutSession `json:"session"`
}

func (h *Handler) Checkout(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	plan, err := ParsePlan(req.Plan)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	sub, session, err := h.svc.Checkout(ctx, auth.UserIDFromContext(ctx), plan)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, checkoutResponse{Subscription: sub, Session: session})
}

func (h *Handler) Current(c echo.Context) error {
	ctx := c.Request().Context()
	sub, err := h.svc.Current(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if sub == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no subscription")
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.Cancel(ctx, auth.UserIDFromContext(ctx), id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	sub, err := h.svc.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sub)
}
