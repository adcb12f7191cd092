package allocation

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

// AllocationService define o contrato que o Handler espera da camada de Serviço.
type AllocationService interface {
	Create(ctx context.Context, input domain.AllocationInput) (domain.Allocation, error)
	Update(ctx context.Context, id string, input domain.AllocationInput) (domain.Allocation, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (domain.Allocation, error)
	ListAll(ctx context.Context) ([]domain.Allocation, error)
	ListByProduct(ctx context.Context, productID string) ([]domain.Allocation, error)
	ListBelowMinimum(ctx context.Context) ([]domain.Allocation, error)
	ComputeRemaining(ctx context.Context, productID string, excludeAllocationID string) (domain.AllocationBalance, error)
}

// Handler agrupa todos os métodos de Handler de alocação.
type Handler struct {
	Service AllocationService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc AllocationService, log logger.Logger) *Handler {
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

// CollectionHandler despacha GET (listagem) e POST (criação) em /v1/allocations.
// GET aceita ?product_id= para filtrar por produto.
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if productID := r.URL.Query().Get("product_id"); productID != "" {
			allocations, err := h.Service.ListByProduct(r.Context(), productID)
			h.handleServiceResponse(w, r, allocations, err, http.StatusOK)
			return
		}
		allocations, err := h.Service.ListAll(r.Context())
		h.handleServiceResponse(w, r, allocations, err, http.StatusOK)
	case http.MethodPost:
		h.createAllocation(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemHandler despacha GET, PUT e DELETE em /v1/allocations/{id}.
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 3 {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID da alocação é obrigatório."), http.StatusOK)
		return
	}
	id := segments[2]

	switch r.Method {
	case http.MethodGet:
		allocation, err := h.Service.GetByID(r.Context(), id)
		h.handleServiceResponse(w, r, allocation, err, http.StatusOK)
	case http.MethodPut:
		h.updateAllocation(w, r, id)
	case http.MethodDelete:
		err := h.Service.Delete(r.Context(), id)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// createAllocation lida com a requisição POST /v1/allocations.
// Duplicatas da mesma posição são fundidas, nunca duplicadas.
//
// @Summary Cria (ou funde) uma alocação de produto em posição física
// @Tags allocations
// @Accept json
// @Produce json
// @Success 201 {object} domain.Allocation
// @Router /v1/allocations [post]
func (h *Handler) createAllocation(w http.ResponseWriter, r *http.Request) {
	var input domain.AllocationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusBadRequest)
		return
	}

	allocation, err := h.Service.Create(r.Context(), input)
	h.handleServiceResponse(w, r, allocation, err, http.StatusCreated)
}

// updateAllocation lida com a requisição PUT /v1/allocations/{id}.
//
// @Summary Atualiza uma alocação existente
// @Tags allocations
// @Accept json
// @Produce json
// @Success 200 {object} domain.Allocation
// @Router /v1/allocations/{id} [put]
func (h *Handler) updateAllocation(w http.ResponseWriter, r *http.Request, id string) {
	var input domain.AllocationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusBadRequest)
		return
	}

	allocation, err := h.Service.Update(r.Context(), id, input)
	h.handleServiceResponse(w, r, allocation, err, http.StatusOK)
}

// LowStockHandler lida com a requisição GET /v1/allocations/low-stock.
//
// @Summary Lista alocações no limite mínimo ou abaixo (consultivo)
// @Tags allocations
// @Produce json
// @Success 200 {array} domain.Allocation
// @Router /v1/allocations/low-stock [get]
func (h *Handler) LowStockHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	allocations, err := h.Service.ListBelowMinimum(r.Context())
	h.handleServiceResponse(w, r, allocations, err, http.StatusOK)
}

// BalanceHandler lida com a requisição GET /v1/allocations/balance?product_id=.
// Retorna estoque total, total alocado e restante, opcionalmente excluindo
// uma alocação em edição (?exclude=).
//
// @Summary Calcula o saldo de alocação de um produto
// @Tags allocations
// @Produce json
// @Success 200 {object} domain.AllocationBalance
// @Router /v1/allocations/balance [get]
func (h *Handler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro product_id é obrigatório."), http.StatusOK)
		return
	}

	balance, err := h.Service.ComputeRemaining(r.Context(), productID, r.URL.Query().Get("exclude"))
	h.handleServiceResponse(w, r, balance, err, http.StatusOK)
}
