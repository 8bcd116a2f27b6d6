package viewer

import (
	"net/http"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Status int32  `json:"status"`
	Code   int32  `json:"code"`
	Err    string `json:"error"`
}

// sendError writes err as JSON, with the HTTP status derived from its error code.
func sendError(c echo.Context, err error) error {
	status := statusFor(err)

	code := int32(errors.ERR_UNKNOWN)

	var tErr *errors.Error
	if errors.As(err, &tErr) {
		code = int32(tErr.Code())
	}

	return c.JSON(status, &errorResponse{
		Status: int32(status),
		Code:   code,
		Err:    err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidArgument), errors.Is(err, errors.ErrInvalidPort):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound), errors.Is(err, errors.ErrTxNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrWorkspaceVersion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrContextCanceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
