package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	RegisterEntry(ctx context.Context, entry domain.StockEntry) (domain.StockRecord, error)
	GetStockByProduct(ctx context.Context, productID string) (domain.StockSummary, error)
	DeleteRecord(ctx context.Context, id string) error
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		// Sucesso
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	// TRATAMENTO DE ERROS
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
		Fields:   apperror.FieldsOf(err),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// RegisterEntryHandler lida com a requisição POST /v1/stock/entries.
//
// @Summary Registra uma entrada (ou saída) de estoque por produto e lote
// @Tags stock
// @Accept json
// @Produce json
// @Success 201 {object} domain.StockRecord
// @Router /v1/stock/entries [post]
func (h *Handler) RegisterEntryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var entry domain.StockEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusBadRequest)
		return
	}

	record, err := h.Service.RegisterEntry(r.Context(), entry)
	h.handleServiceResponse(w, r, record, err, http.StatusCreated)
}

// ProductStockHandler despacha GET em /v1/stock/{productId} e DELETE em
// /v1/stock/records/{id}.
func (h *Handler) ProductStockHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.Method == http.MethodGet && len(segments) == 3:
		// GET /v1/stock/{productId}
		summary, err := h.Service.GetStockByProduct(r.Context(), segments[2])
		h.handleServiceResponse(w, r, summary, err, http.StatusOK)
	case r.Method == http.MethodDelete && len(segments) == 4 && segments[2] == "records":
		// DELETE /v1/stock/records/{id}
		err := h.Service.DeleteRecord(r.Context(), segments[3])
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
