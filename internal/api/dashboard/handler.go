package dashboard

import (
	"context"
	"encoding/json"
	"net/http"

	"goestoque/internal/pkg/logger"
	"goestoque/internal/service/dashboardservice"
)

// DashboardService define o contrato que o Handler espera da camada de Serviço.
type DashboardService interface {
	GetSummary(ctx context.Context) dashboardservice.Summary
}

// Handler agrupa os métodos de Handler do painel.
type Handler struct {
	Service DashboardService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc DashboardService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// SummaryHandler lida com a requisição GET /v1/dashboard.
// O resumo é melhor-esforço: seções que falharam chegam vazias.
//
// @Summary Retorna o resumo do painel (produtos, alocações e alertas)
// @Tags dashboard
// @Produce json
// @Success 200 {object} dashboardservice.Summary
// @Router /v1/dashboard [get]
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	summary := h.Service.GetSummary(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		h.Logger.Error("Falha ao codificar JSON de resposta", err)
		http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
	}
}
