package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
)

// LocationService define o contrato que o Handler espera da camada de Serviço.
type LocationService interface {
	ListLocations(ctx context.Context) ([]domain.Location, error)
	ListSections(ctx context.Context) ([]domain.Section, error)
	ListShelves(ctx context.Context) ([]domain.Shelf, error)
	ListCorridors(ctx context.Context) ([]domain.Corridor, error)
	GetDirectory(ctx context.Context) (domain.Directory, error)
}

// Handler agrupa os métodos de Handler do diretório de posições.
type Handler struct {
	Service LocationService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc LocationService, log logger.Logger) *Handler {
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

// requireGet valida o método HTTP das rotas somente-leitura do diretório.
func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// ListLocationsHandler lida com a requisição GET /v1/locations.
//
// @Summary Lista os locais físicos
// @Tags directory
// @Produce json
// @Success 200 {array} domain.Location
// @Router /v1/locations [get]
func (h *Handler) ListLocationsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	locations, err := h.Service.ListLocations(r.Context())
	h.handleServiceResponse(w, r, locations, err, http.StatusOK)
}

// ListSectionsHandler lida com a requisição GET /v1/sections.
//
// @Summary Lista as seções
// @Tags directory
// @Produce json
// @Success 200 {array} domain.Section
// @Router /v1/sections [get]
func (h *Handler) ListSectionsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	sections, err := h.Service.ListSections(r.Context())
	h.handleServiceResponse(w, r, sections, err, http.StatusOK)
}

// ListShelvesHandler lida com a requisição GET /v1/shelves.
//
// @Summary Lista as prateleiras
// @Tags directory
// @Produce json
// @Success 200 {array} domain.Shelf
// @Router /v1/shelves [get]
func (h *Handler) ListShelvesHandler(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	shelves, err := h.Service.ListShelves(r.Context())
	h.handleServiceResponse(w, r, shelves, err, http.StatusOK)
}

// ListCorridorsHandler lida com a requisição GET /v1/corridors.
//
// @Summary Lista os corredores
// @Tags directory
// @Produce json
// @Success 200 {array} domain.Corridor
// @Router /v1/corridors [get]
func (h *Handler) ListCorridorsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	corridors, err := h.Service.ListCorridors(r.Context())
	h.handleServiceResponse(w, r, corridors, err, http.StatusOK)
}

// DirectoryHandler lida com a requisição GET /v1/directory.
// Retorna as quatro dimensões em uma única resposta, para o formulário
// de alocação montar seus seletores com uma chamada só.
//
// @Summary Retorna o diretório completo de posições físicas
// @Tags directory
// @Produce json
// @Success 200 {object} domain.Directory
// @Router /v1/directory [get]
func (h *Handler) DirectoryHandler(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	directory, err := h.Service.GetDirectory(r.Context())
	h.handleServiceResponse(w, r, directory, err, http.StatusOK)
}
