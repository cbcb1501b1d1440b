package handlers

import (
	"errors"
	"net/http"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"
)

// writeError renders err as an ErrorResponse. Upstream detail is only
// exposed outside production.
func writeError(writer http.ResponseWriter, err error, production bool) {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		resp := models.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
			Reason:  appErr.Reason,
		}
		if !production {
			resp.Detail = appErr.Detail
			if resp.Detail == "" && appErr.Err != nil {
				resp.Detail = appErr.Err.Error()
			}
		}
		utils.JSON(writer, models.HTTPStatus(appErr.Code), resp)
		return
	}

	var errResp *models.ErrorResponse
	if errors.As(err, &errResp) {
		utils.JSON(writer, models.HTTPStatus(errResp.Code), *errResp)
		return
	}

	utils.JSON(writer, http.StatusInternalServerError, models.ErrorResponse{
		Code:    models.ErrCodeInternal,
		Message: "Internal server error",
	})
}

func unauthenticated(writer http.ResponseWriter) {
	utils.JSON(writer, http.StatusUnauthorized, models.ErrorResponse{
		Code:    models.ErrCodeUnauthenticated,
		Message: "Unauthorized",
	})
}
