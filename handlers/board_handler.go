package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/court-flow/models"
	"github.com/Dosada05/court-flow/services"
	"github.com/go-chi/chi/v5"
)

type BoardHandler struct {
	board        *services.Board
	queueService services.QueueService
	courtService services.CourtService
	now          func() time.Time
}

func NewBoardHandler(board *services.Board, queueService services.QueueService, courtService services.CourtService) *BoardHandler {
	return &BoardHandler{
		board:        board,
		queueService: queueService,
		courtService: courtService,
		now:          time.Now,
	}
}

func (h *BoardHandler) view() models.BoardView {
	return models.NewBoardView(h.board.Snapshot(), h.now())
}

// respondApplied отдаёт флаг применения операции вместе с актуальной доской.
func (h *BoardHandler) respondApplied(w http.ResponseWriter, r *http.Request, applied bool, err error) {
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"applied": applied, "board": h.view()}); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"board": h.view()}); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BoardHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var input services.CheckInInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.queueService.CheckIn(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player, "board": h.view()}); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BoardHandler) MoveToReady(w http.ResponseWriter, r *http.Request) {
	applied, err := h.queueService.MoveToReady(r.Context(), chi.URLParam(r, "playerID"))
	h.respondApplied(w, r, applied, err)
}

func (h *BoardHandler) MoveBackToQueue(w http.ResponseWriter, r *http.Request) {
	applied, err := h.queueService.MoveBackToQueue(r.Context(), chi.URLParam(r, "playerID"))
	h.respondApplied(w, r, applied, err)
}

func (h *BoardHandler) CancelFromQueue(w http.ResponseWriter, r *http.Request) {
	applied, err := h.queueService.CancelPlayer(r.Context(), chi.URLParam(r, "playerID"), models.SourceQueue)
	h.respondApplied(w, r, applied, err)
}

func (h *BoardHandler) CancelFromReady(w http.ResponseWriter, r *http.Request) {
	applied, err := h.queueService.CancelPlayer(r.Context(), chi.URLParam(r, "playerID"), models.SourceReady)
	h.respondApplied(w, r, applied, err)
}

func (h *BoardHandler) AddCourt(w http.ResponseWriter, r *http.Request) {
	court, err := h.courtService.AddCourt(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"court": court, "board": h.view()}); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BoardHandler) RemoveLastCourt(w http.ResponseWriter, r *http.Request) {
	applied, err := h.courtService.RemoveLastCourt(r.Context())
	h.respondApplied(w, r, applied, err)
}

func (h *BoardHandler) RemoveCourt(w http.ResponseWriter, r *http.Request) {
	applied, err := h.courtService.RemoveCourt(r.Context(), chi.URLParam(r, "courtID"))
	h.respondApplied(w, r, applied, err)
}

func (h *BoardHandler) AssignReadyToCourt(w http.ResponseWriter, r *http.Request) {
	players, err := h.courtService.AssignReadyToCourt(r.Context(), chi.URLParam(r, "courtID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if players == nil {
		players = []models.Player{}
	}

	response := jsonResponse{
		"applied": len(players) > 0,
		"players": players,
		"board":   h.view(),
	}
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BoardHandler) EndMatch(w http.ResponseWriter, r *http.Request) {
	applied, err := h.courtService.EndMatch(r.Context(), chi.URLParam(r, "courtID"))
	h.respondApplied(w, r, applied, err)
}

func (h *BoardHandler) ClearTodaySchedule(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Confirm bool `json:"confirm"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !input.Confirm {
		mapServiceErrorToHTTP(w, r, services.ErrConfirmationRequired)
		return
	}

	if err := h.courtService.ClearTodaySchedule(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"board": h.view()}); err != nil {
		serverErrorResponse(w, r, err)
	}
}
