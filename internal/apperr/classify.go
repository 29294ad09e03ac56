package apperr

import (
	"database/sql/driver"
	"errors"
	"net/http"
	"syscall"
)

// Response is the client-facing description of a failure.
type Response struct {
	Status  int
	Kind    Kind
	Message string
	Fields  map[string]string
	// Trace carries the full error chain and is only set in debug mode.
	Trace string
}

// Classify maps any error to a Response. It never panics and never returns a
// zero Status. When debug is true the wrapped error chain is attached as Trace.
func Classify(err error, debug bool) Response {
	resp := classify(err)
	if debug && err != nil {
		resp.Trace = err.Error()
	}
	return resp
}

func classify(err error) Response {
	if err == nil {
		return internalResponse()
	}

	var typed Error
	if errors.As(err, &typed) {
		switch e := typed.(type) {
		case *ValidationError:
			return Response{Status: http.StatusBadRequest, Kind: KindValidation, Message: e.Message, Fields: e.Fields}
		case *CredentialError:
			status := http.StatusUnauthorized
			if e.Reason == ReasonInvalid {
				status = http.StatusForbidden
			}
			return Response{Status: status, Kind: KindCredential, Message: e.Error()}
		case *NotFoundError:
			return Response{Status: http.StatusNotFound, Kind: KindNotFound, Message: e.Error()}
		case *ConflictError:
			return Response{Status: http.StatusConflict, Kind: KindConflict, Message: e.Error()}
		case *UnavailableError:
			return unavailableResponse()
		case *InternalError:
			return internalResponse()
		}
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return Response{Status: http.StatusNotFound, Kind: KindNotFound, Message: "resource not found"}
	case errors.Is(err, ErrAlreadyExists):
		return Response{Status: http.StatusConflict, Kind: KindConflict, Message: "resource already exists"}
	case errors.Is(err, ErrReference):
		return Response{Status: http.StatusBadRequest, Kind: KindValidation, Message: ErrReference.Error()}
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, driver.ErrBadConn):
		return unavailableResponse()
	}

	return internalResponse()
}

func unavailableResponse() Response {
	return Response{Status: http.StatusServiceUnavailable, Kind: KindUnavailable, Message: "database connection error"}
}

func internalResponse() Response {
	return Response{Status: http.StatusInternalServerError, Kind: KindInternal, Message: "internal server error"}
}
