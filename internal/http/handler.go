package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	dto "task-market.com/task-market/internal/data_models"
	apperrors "task-market.com/task-market/internal/errors"
	middleware "task-market.com/task-market/internal/http/middlewares"
	"task-market.com/task-market/internal/http/validators"
	"task-market.com/task-market/internal/services"
)

type Handler struct {
	taskService       *services.TaskService
	paymentService    *services.PaymentService
	webhookService    *services.WebhookService
	submissionService *services.SubmissionService
	sweepService      *services.SweepService
	minimumBudget     float64
}

func NewHandler(
	taskService *services.TaskService,
	paymentService *services.PaymentService,
	webhookService *services.WebhookService,
	submissionService *services.SubmissionService,
	sweepService *services.SweepService,
	minimumBudget float64,
) *Handler {
	return &Handler{
		taskService:       taskService,
		paymentService:    paymentService,
		webhookService:    webhookService,
		submissionService: submissionService,
		sweepService:      sweepService,
		minimumBudget:     minimumBudget,
	}
}

// appError maps domain errors onto HTTP status codes via the Exception
// type; anything unrecognized becomes a 500.
func appError(err error) error {
	return echo.NewHTTPError(apperrors.StatusCode(err), err.Error())
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	deadline, err := validators.ValidateCreateTaskRequest(&req, h.minimumBudget)
	if err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(
		c.Request().Context(),
		middleware.UserID(c),
		req.Title, req.Description, req.Category,
		deadline, req.Budget,
	)
	if err != nil {
		return appError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return appError(apperrors.ErrTaskIDRequired)
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return appError(err)
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	err := h.taskService.DeleteTask(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return appError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if req.FreelancerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "freelancer_id is required")
	}

	result, err := h.paymentService.CreateOrder(
		c.Request().Context(),
		c.Param("id"),
		middleware.UserID(c),
		req.FreelancerID,
	)
	if err != nil {
		return appError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// GetPaymentDetail proxies the gateway's record of a task's payment so the
// uploader can reconcile fees against what the webhook reported.
func (h *Handler) GetPaymentDetail(c echo.Context) error {
	detail, err := h.paymentService.GetPaymentDetail(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return appError(err)
	}

	return c.JSON(http.StatusOK, detail)
}

// HandleWebhook receives gateway deliveries. The body is read raw so the
// signature covers the exact byte sequence; only a signature mismatch is a
// client error, every other handled branch acks.
func (h *Handler) HandleWebhook(c echo.Context) error {
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	signature := c.Request().Header.Get("X-Razorpay-Signature")
	eventID := c.Request().Header.Get("X-Razorpay-Event-Id")

	if err := h.webhookService.Handle(c.Request().Context(), rawBody, signature, eventID); err != nil {
		if errors.Is(err, apperrors.ErrInvalidSignature) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
		}
		return appError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (h *Handler) CreateSubmission(c echo.Context) error {
	var req dto.CreateSubmissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	sub, err := h.submissionService.CreateSubmission(
		c.Request().Context(),
		c.Param("id"),
		middleware.UserID(c),
		req.Message,
		req.Attachments,
	)
	if err != nil {
		return appError(err)
	}

	return c.JSON(http.StatusCreated, sub)
}

func (h *Handler) ListSubmissions(c echo.Context) error {
	subs, err := h.submissionService.ListSubmissions(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return appError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count":       len(subs),
		"submissions": subs,
	})
}

func (h *Handler) AcceptSubmission(c echo.Context) error {
	err := h.submissionService.AcceptSubmission(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return appError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "submission accepted, task completed"})
}

func (h *Handler) RequestRevision(c echo.Context) error {
	var req dto.RequestRevisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	err := h.submissionService.RequestRevision(c.Request().Context(), c.Param("id"), middleware.UserID(c), req.Note)
	if err != nil {
		return appError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "revision requested"})
}

// TriggerSweep runs one reconciliation tick on demand, for platforms
// without a durable in-process scheduler. Concurrent invocations are safe:
// the per-task lock decides who pays out.
func (h *Handler) TriggerSweep(c echo.Context) error {
	processed, err := h.sweepService.RunOnce(c.Request().Context())
	if err != nil {
		return appError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"processed": processed})
}
