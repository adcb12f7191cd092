package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
	"goestoque/internal/pkg/middleware"
)

// TransferService define o contrato que o Handler espera da camada de Serviço.
type TransferService interface {
	Transfer(ctx context.Context, req domain.TransferRequest, employeeID string) (domain.TransferResult, error)
	ListByProduct(ctx context.Context, productID string) ([]domain.Transfer, error)
}

// Handler agrupa todos os métodos de Handler de transferência.
type Handler struct {
	Service TransferService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc TransferService, log logger.Logger) *Handler {
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

// CollectionHandler despacha POST (executar transferência) e GET
// (histórico por produto, ?product_id=) em /v1/transfers.
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.executeTransfer(w, r)
	case http.MethodGet:
		h.listTransfers(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// executeTransfer lida com a requisição POST /v1/transfers.
// A identidade do funcionário vem das claims do token, nunca do corpo.
//
// @Summary Transfere quantidade entre posições e registra a auditoria
// @Tags transfers
// @Accept json
// @Produce json
// @Success 201 {object} domain.TransferResult
// @Router /v1/transfers [post]
func (h *Handler) executeTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthenticatedError("Identidade do funcionário não resolvida."), http.StatusCreated)
		return
	}

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusBadRequest)
		return
	}

	result, err := h.Service.Transfer(ctx, req, claims.UserID)
	h.handleServiceResponse(w, r, result, err, http.StatusCreated)
}

// listTransfers lida com a requisição GET /v1/transfers?product_id=.
//
// @Summary Lista o histórico de transferências de um produto
// @Tags transfers
// @Produce json
// @Success 200 {array} domain.Transfer
// @Router /v1/transfers [get]
func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro product_id é obrigatório."), http.StatusOK)
		return
	}

	transfers, err := h.Service.ListByProduct(r.Context(), productID)
	h.handleServiceResponse(w, r, transfers, err, http.StatusOK)
}
