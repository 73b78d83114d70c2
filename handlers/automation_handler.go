package handlers

import (
	"net/http"

	"github.com/Dosada05/court-flow/services"
)

type AutomationHandler struct {
	matcher *services.AutoMatcher
}

func NewAutomationHandler(matcher *services.AutoMatcher) *AutomationHandler {
	return &AutomationHandler{matcher: matcher}
}

func (h *AutomationHandler) GetFlags(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"automation": h.matcher.Flags()}); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AutomationHandler) SetFlags(w http.ResponseWriter, r *http.Request) {
	var flags services.AutomationFlags
	if err := readJSON(w, r, &flags); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matcher.SetFlags(flags); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"automation": h.matcher.Flags()}); err != nil {
		serverErrorResponse(w, r, err)
	}
}
