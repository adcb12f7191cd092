package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	GetByID(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, id string, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
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

// extractID extrai o ID do último segmento da URL (/v1/products/{id}).
func extractID(r *http.Request) string {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 3 {
		return ""
	}
	return segments[2]
}

// CollectionHandler despacha GET (listagem) e POST (criação) em /v1/products.
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listProducts(w, r)
	case http.MethodPost:
		h.createProduct(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemHandler despacha GET, PUT e DELETE em /v1/products/{id}.
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	id := extractID(r)
	if id == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID do produto é obrigatório."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := h.Service.GetByID(r.Context(), id)
		h.handleServiceResponse(w, r, product, err, http.StatusOK)
	case http.MethodPut:
		h.updateProduct(w, r, id)
	case http.MethodDelete:
		err := h.Service.Delete(r.Context(), id)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// createProduct lida com a requisição POST /v1/products.
//
// @Summary Cria um produto
// @Tags products
// @Accept json
// @Produce json
// @Success 201 {object} domain.Product
// @Router /v1/products [post]
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusBadRequest)
		return
	}

	created, err := h.Service.Create(r.Context(), product)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// listProducts lida com a requisição GET /v1/products.
//
// @Summary Lista produtos com filtros e paginação
// @Tags products
// @Produce json
// @Success 200 {array} domain.Product
// @Router /v1/products [get]
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.ProductFilter{
		Name:      query.Get("name"),
		Reference: query.Get("reference"),
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = limit
	}
	filter.ActiveOnly = query.Get("active") == "true"

	products, err := h.Service.List(r.Context(), filter)
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

// updateProduct lida com a requisição PUT /v1/products/{id}.
//
// @Summary Atualiza um produto
// @Tags products
// @Accept json
// @Produce json
// @Success 200 {object} domain.Product
// @Router /v1/products/{id} [put]
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request, id string) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusBadRequest)
		return
	}

	updated, err := h.Service.Update(r.Context(), id, product)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}
