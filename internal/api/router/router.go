package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"goestoque/internal/api/allocation"
	"goestoque/internal/api/dashboard"
	"goestoque/internal/api/location"
	"goestoque/internal/api/product"
	"goestoque/internal/api/stock"
	"goestoque/internal/api/transfer"
	"goestoque/internal/api/user"
	"goestoque/internal/domain"
	"goestoque/internal/pkg/middleware"
)

// Handlers agrupa todos os Handlers do sistema para injeção no roteador.
type Handlers struct {
	Product    *product.Handler
	Stock      *stock.Handler
	Allocation *allocation.Handler
	Transfer   *transfer.Handler
	Location   *location.Handler
	User       *user.Handler
	Dashboard  *dashboard.Handler
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências, junto
// com o middleware de autenticação e o limitador global de requisições.
func NewRouter(h Handlers, auth func(http.HandlerFunc) http.HandlerFunc, rateLimiter func(http.Handler) http.Handler) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	// Exclusões destrutivas exigem papel de administrador ou gerente;
	// os demais métodos da mesma rota seguem apenas autenticados.
	adminDelete := func(next http.HandlerFunc) http.HandlerFunc {
		guard := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleManager)
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodDelete {
				guard(next)(w, r)
				return
			}
			next(w, r)
		}
	}

	// --- 1. Rotas públicas ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	mux.HandleFunc("/v1/users/register", h.User.RegisterHandler)
	mux.HandleFunc("/v1/users/login", h.User.LoginHandler)

	// --- 2. Catálogo de produtos ---
	mux.HandleFunc("/v1/products", auth(h.Product.CollectionHandler))
	mux.HandleFunc("/v1/products/", auth(adminDelete(h.Product.ItemHandler)))

	// --- 3. Livro de estoque ---
	mux.HandleFunc("/v1/stock/entries", auth(h.Stock.RegisterEntryHandler))
	mux.HandleFunc("/v1/stock/", auth(adminDelete(h.Stock.ProductStockHandler)))

	// --- 4. Alocações (rotas exatas antes da rota de prefixo) ---
	mux.HandleFunc("/v1/allocations", auth(h.Allocation.CollectionHandler))
	mux.HandleFunc("/v1/allocations/low-stock", auth(h.Allocation.LowStockHandler))
	mux.HandleFunc("/v1/allocations/balance", auth(h.Allocation.BalanceHandler))
	mux.HandleFunc("/v1/allocations/", auth(h.Allocation.ItemHandler))

	// --- 5. Transferências ---
	mux.HandleFunc("/v1/transfers", auth(h.Transfer.CollectionHandler))

	// --- 6. Diretório de posições físicas ---
	mux.HandleFunc("/v1/locations", auth(h.Location.ListLocationsHandler))
	mux.HandleFunc("/v1/sections", auth(h.Location.ListSectionsHandler))
	mux.HandleFunc("/v1/shelves", auth(h.Location.ListShelvesHandler))
	mux.HandleFunc("/v1/corridors", auth(h.Location.ListCorridorsHandler))
	mux.HandleFunc("/v1/directory", auth(h.Location.DirectoryHandler))

	// --- 7. Painel ---
	mux.HandleFunc("/v1/dashboard", auth(h.Dashboard.SummaryHandler))

	// --- 8. Middlewares globais ---
	return rateLimiter(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
