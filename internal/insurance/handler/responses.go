package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "coverbook/pkg/domain-errors"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// writeError maps domain error codes to HTTP status codes. Authentication
// failures are handled by the middleware; Unauthorized here always means a
// role or ownership violation, hence 403.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeUnauthorized:
		status = http.StatusForbidden
	case dErrors.CodeInvalidArgument:
		status = http.StatusBadRequest
	case dErrors.CodeInvalidState, dErrors.CodeAlreadySettled:
		status = http.StatusConflict
	case dErrors.CodeExpired:
		status = http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		status = http.StatusGatewayTimeout
	}

	description := "internal server error"
	if status != http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			description = de.Message
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:       string(code),
		Description: description,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
