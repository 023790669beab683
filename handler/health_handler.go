package handler

import (
	"net/http"
	"vidtube-api/common"
)

// HealthCheck godoc
// @Summary      Show the status of server
// @Description  get the status of server
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "API is healthy and running"})
}
