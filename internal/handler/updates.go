package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/OttoOtter-hub/TyreTerra/internal/bot"
	"github.com/OttoOtter-hub/TyreTerra/internal/transport"
	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
	"github.com/OttoOtter-hub/TyreTerra/pkg/response"
)

// maxUpdateBody caps the accepted request size; large CSV imports fit
// well under it.
const maxUpdateBody = 10 << 20

// UpdateHandler receives inbound chat updates from the gateway and
// feeds them to the bot router.
type UpdateHandler struct {
	router *bot.Router
}

// NewUpdateHandler creates a new update handler.
func NewUpdateHandler(router *bot.Router) *UpdateHandler {
	return &UpdateHandler{router: router}
}

type updateRequest struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
	FileName    string `json:"file_name,omitempty"`
	FileData    string `json:"file_data,omitempty"`
}

// Receive handles POST /api/v1/updates
func (h *UpdateHandler) Receive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpdateBody)

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apperr.Validation("invalid update payload"))
		return
	}
	if req.UserID == 0 {
		response.Error(w, apperr.Validation("user_id is required"))
		return
	}

	upd := transport.Update{
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Text:        req.Text,
	}
	if req.FileName != "" {
		data, err := base64.StdEncoding.DecodeString(req.FileData)
		if err != nil {
			response.Error(w, apperr.Validation("file_data must be base64"))
			return
		}
		upd.File = &transport.FilePayload{Name: req.FileName, Data: data}
	}

	h.router.HandleUpdate(r.Context(), upd)
	response.OK(w, map[string]string{"status": "processed"})
}
