package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hassonapp/chatter/internal/api"
)

type HandlerImpl struct {
	logger  *slog.Logger
	service AuthService
}

func NewHandlerImpl(service AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

func (h *HandlerImpl) SignUp(w http.ResponseWriter, r *http.Request) {
	var req api.SignUpRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.ValidateRequest(&req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.SignUp(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

func (h *HandlerImpl) SignIn(w http.ResponseWriter, r *http.Request) {
	var req api.SignInRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.ValidateRequest(&req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.SignIn(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// SignOut ends the session from the client's point of view. Tokens are
// stateless, so there is nothing to revoke server-side; the response tells
// the client to drop its copy.
func (h *HandlerImpl) SignOut(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"message": "Logout successful",
		"user":    map[string]interface{}{},
		"token":   "",
	})
}

func (h *HandlerImpl) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		api.ErrorResponse(w, r, apiErr.StatusCode, apiErr.Message)
		return
	}
	h.logger.ErrorContext(r.Context(), "Unhandled auth handler error", slog.Any("error", err))
	api.ErrorResponse(w, r, api.StatusFromError(err), api.MsgServerError)
}

func (h *HandlerImpl) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ForgotPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.ValidateRequest(&req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{
		"message": "Password reset email sent.",
	})
}

func (h *HandlerImpl) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ResetPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.ValidateRequest(&req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token := chi.URLParam(r, "token")
	if err := h.service.ResetPassword(r.Context(), token, req.Password, r.RemoteAddr); err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{
		"message": "Password successfully updated.",
	})
}
