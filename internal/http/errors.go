package httpx

import (
	"errors"
	"net/http"

	apperrors "github.com/target/mmk-jobqueue/internal/errors"
)

var appErrorStatus = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeNotFound:     http.StatusNotFound,
	apperrors.ErrCodeConflict:     http.StatusConflict,
	apperrors.ErrCodeValidation:   http.StatusBadRequest,
	apperrors.ErrCodeForeignKey:   http.StatusConflict,
	apperrors.ErrCodeUnauthorized: http.StatusUnauthorized,
	apperrors.ErrCodeForbidden:    http.StatusForbidden,
	apperrors.ErrCodeBusy:         http.StatusServiceUnavailable,
	apperrors.ErrCodeTimeout:      http.StatusGatewayTimeout,
	apperrors.ErrCodeCanceled:     499,
}

// WriteServiceError maps service errors onto status codes. Unclassified errors are 500s
// and their message is not echoed to the client.
func WriteServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code, ok := appErrorStatus[appErr.Code]
		if ok {
			if appErr.Temporary() {
				w.Header().Set("Retry-After", "1")
			}
			WriteJSON(w, code, errorBody{Error: string(appErr.Code), Message: appErr.Message, Field: appErr.Field})
			return
		}
	}
	WriteJSON(w, http.StatusInternalServerError, errorBody{
		Error:   string(apperrors.ErrCodeInternal),
		Message: http.StatusText(http.StatusInternalServerError),
	})
}
