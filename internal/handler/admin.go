package handler

import (
	"net/http"

	"github.com/OttoOtter-hub/TyreTerra/internal/service"
	"github.com/OttoOtter-hub/TyreTerra/pkg/response"
)

// AdminHandler exposes operator statistics over the ops API.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"accounts": stats.Accounts,
		"stock":    stats.Stock,
	})
}
