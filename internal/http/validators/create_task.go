package validators

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	dto "task-market.com/task-market/internal/data_models"
)

// ValidateCreateTaskRequest checks field presence and parses the deadline,
// which must lie in the future.
func ValidateCreateTaskRequest(r *dto.CreateTaskRequest, minimumBudget float64) (time.Time, error) {
	if r.Title == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if r.Description == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}
	if r.Category == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "category is required")
	}
	if r.Budget < minimumBudget {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "budget is below the minimum")
	}

	deadline, err := time.Parse(time.RFC3339, r.Deadline)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "deadline must be an RFC3339 timestamp")
	}
	if !deadline.After(time.Now()) {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "deadline must be a future date")
	}

	return deadline, nil
}
