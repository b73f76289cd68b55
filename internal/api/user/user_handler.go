package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hassonapp/chatter/internal/api"
)

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// currentUserResponse mirrors the shape clients key off: isUser is false when
// the session is valid but no profile could be resolved.
type currentUserResponse struct {
	IsUser bool              `json:"isUser"`
	User   *api.UserDocument `json:"user"`
}

// CurrentUser returns the profile behind the verified session. A valid
// session with no resolvable profile is not an error: the client gets
// isUser=false and decides what to do.
func (h *HandlerImpl) CurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := api.ClaimsFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not available. Please login again.")
		return
	}

	doc, err := h.service.GetCurrentUser(r.Context(), claims)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, currentUserResponse{
		IsUser: doc != nil,
		User:   doc,
	})
}

func (h *HandlerImpl) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		api.ErrorResponse(w, r, apiErr.StatusCode, apiErr.Message)
		return
	}
	h.logger.ErrorContext(r.Context(), "Unhandled user handler error", slog.Any("error", err))
	api.ErrorResponse(w, r, api.StatusFromError(err), api.MsgServerError)
}
