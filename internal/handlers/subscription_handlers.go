package handlers

import (
	"net/http"
	"strconv"

	"factura/internal/common"
	"factura/internal/models"
	"factura/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers handles HTTP requests for recurring subscriptions
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
}

// NewSubscriptionHandlers creates a new subscription handlers instance
func NewSubscriptionHandlers(subscriptionService services.SubscriptionService) *SubscriptionHandlers {
	return &SubscriptionHandlers{subscriptionService: subscriptionService}
}

// CreateSubscription handles POST /subscriptions
func (h *SubscriptionHandlers) CreateSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	subscription := &models.Subscription{}
	if err := c.Bind(subscription); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.subscriptionService.CreateSubscription(ctx, subscription); err != nil {
		return common.SendValidationError(c, "subscription", err.Error())
	}

	return c.JSON(http.StatusCreated, subscription)
}

// GetSubscription handles GET /subscriptions/:id
func (h *SubscriptionHandlers) GetSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	subscription, err := h.subscriptionService.GetSubscription(ctx, id)
	if err != nil {
		return common.SendNotFoundError(c, "subscription")
	}

	return c.JSON(http.StatusOK, subscription)
}

// UpdateSubscription handles PUT /subscriptions/:id
func (h *SubscriptionHandlers) UpdateSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	subscription := &models.Subscription{}
	if err := c.Bind(subscription); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	subscription.ID = id

	if err := h.subscriptionService.UpdateSubscription(ctx, subscription); err != nil {
		return common.SendValidationError(c, "subscription", err.Error())
	}

	return c.JSON(http.StatusOK, subscription)
}

// FinishSubscription handles POST /subscriptions/:id/finish
func (h *SubscriptionHandlers) FinishSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.subscriptionService.FinishSubscription(ctx, id); err != nil {
		return common.SendServerError(c, common.SecureErrorMessage("finish subscription", err).Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "finished"})
}

// DeleteSubscription handles DELETE /subscriptions/:id
func (h *SubscriptionHandlers) DeleteSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.subscriptionService.DeleteSubscription(ctx, id); err != nil {
		return common.SendServerError(c, common.SecureErrorMessage("delete subscription", err).Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// ListSubscriptions handles GET /subscriptions
func (h *SubscriptionHandlers) ListSubscriptions(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	subscriptions, err := h.subscriptionService.ListSubscriptions(ctx, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list subscriptions")
	}

	return c.JSON(http.StatusOK, subscriptions)
}
