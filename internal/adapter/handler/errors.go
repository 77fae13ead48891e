package handler

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

const internalErrorMessage = "internal error while processing the grant"

type failure struct {
	httpStatus int
	code       codes.Code
	message    string
}

// classify maps a pipeline error to its transport form. Only validation
// errors carry their text to the caller.
func classify(err error) failure {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return failure{http.StatusBadRequest, codes.InvalidArgument, err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return failure{http.StatusNotFound, codes.NotFound, "character not found"}
	case errors.Is(err, domain.ErrDuplicateRequest):
		return failure{http.StatusConflict, codes.AlreadyExists, "duplicate request"}
	default:
		return failure{http.StatusInternalServerError, codes.Internal, internalErrorMessage}
	}
}

func grantedMessage(labelID int64) string {
	return fmt.Sprintf("LabelID=%d, item added, please re-enter the game", labelID)
}

func pendingMessage(labelID int64) string {
	return fmt.Sprintf("LabelID=%d, item added, activation is pending and will be retried", labelID)
}
