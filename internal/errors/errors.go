package errors

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// AppError é a interface central para todos os erros customizados do GoEstoque.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION", "NOT_FOUND", "INTERNAL")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// FieldValidationError agrega falhas de validação por campo. Todos os campos
// inválidos são reportados juntos, para que o chamador exiba todos de uma vez.
type FieldValidationError struct {
	Fields map[string]string
}

func (e *FieldValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("Erro de Validação: %s", strings.Join(parts, "; "))
}
func (e *FieldValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *FieldValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *FieldValidationError) Unwrap() error    { return nil }

// NewFieldValidationError cria um erro de validação com o mapa campo -> mensagem.
func NewFieldValidationError(fields map[string]string) AppError {
	return &FieldValidationError{Fields: fields}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// NoStockError indica que o produto não possui nenhum estoque registrado.
// Distinto de OverAllocationError: aqui não há o que alocar.
type NoStockError struct {
	ProductID string
}

func (e *NoStockError) Error() string {
	return fmt.Sprintf("Produto %s não possui estoque registrado.", e.ProductID)
}
func (e *NoStockError) Category() string { return "NO_STOCK" }
func (e *NoStockError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *NoStockError) Unwrap() error    { return nil }

// NewNoStockError cria um erro de produto sem estoque.
func NewNoStockError(productID string) AppError {
	return &NoStockError{ProductID: productID}
}

// OverAllocationError indica que a soma das alocações excederia o estoque
// total do produto. Excess informa em quantas unidades.
type OverAllocationError struct {
	ProductID string
	Excess    int
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("Alocações do produto %s excederiam o estoque total em %d unidade(s).", e.ProductID, e.Excess)
}
func (e *OverAllocationError) Category() string { return "OVER_ALLOCATION" }
func (e *OverAllocationError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *OverAllocationError) Unwrap() error    { return nil }

// NewOverAllocationError cria um erro de sobre-alocação com o excesso calculado.
func NewOverAllocationError(productID string, excess int) AppError {
	return &OverAllocationError{ProductID: productID, Excess: excess}
}

// NonEmptyAllocationError indica tentativa de remover uma alocação com
// quantidade maior que zero. O estoque deve ser transferido antes.
type NonEmptyAllocationError struct {
	AllocationID string
	Quantity     int
}

func (e *NonEmptyAllocationError) Error() string {
	return fmt.Sprintf("Alocação %s possui %d unidade(s); transfira o estoque antes de remover.", e.AllocationID, e.Quantity)
}
func (e *NonEmptyAllocationError) Category() string { return "NON_EMPTY_ALLOCATION" }
func (e *NonEmptyAllocationError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *NonEmptyAllocationError) Unwrap() error    { return nil }

// NewNonEmptyAllocationError cria um erro de exclusão de alocação não vazia.
func NewNonEmptyAllocationError(allocationID string, quantity int) AppError {
	return &NonEmptyAllocationError{AllocationID: allocationID, Quantity: quantity}
}

// UnauthenticatedError indica ausência de identidade de funcionário resolvível.
type UnauthenticatedError struct {
	Msg string
}

func (e *UnauthenticatedError) Error() string    { return fmt.Sprintf("Não autenticado: %s", e.Msg) }
func (e *UnauthenticatedError) Category() string { return "UNAUTHENTICATED" }
func (e *UnauthenticatedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthenticatedError) Unwrap() error    { return nil }

// NewUnauthenticatedError cria um erro de autenticação ausente ou inválida.
func NewUnauthenticatedError(msg string) AppError {
	return &UnauthenticatedError{Msg: msg}
}

// ConflictError representa um conflito na regra de negócio (e.g., OCC, recurso duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito (usado em OCC).
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	if appErr, ok := err.(AppError); ok {
		// O erro é tipado (ValidationError, NotFoundError, etc.)
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado (e.g., erro simples de pacote Go que não implementa AppError)
	// Tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}

// FieldsOf extrai o mapa campo -> mensagem quando o erro é um FieldValidationError.
func FieldsOf(err error) map[string]string {
	if fv, ok := err.(*FieldValidationError); ok {
		return fv.Fields
	}
	return nil
}
