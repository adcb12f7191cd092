package stockrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goestoque/internal/domain"
	"goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
)

// StockRepository implementa o Livro de Estoque (Stock Ledger):
// a fonte autoritativa da quantidade em mãos por (produto, lote).
type StockRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// ApplyEntry aplica uma entrada de estoque em transação: entradas do mesmo
// (produto, lote) acumulam no registro existente; a primeira entrada cria o
// registro. Entradas negativas (ajustes de saída) nunca podem deixar o total
// do produto abaixo da soma já alocada — o total do ledger é autoritativo e
// as alocações são um subconjunto dele.
func (r *StockRepository) ApplyEntry(ctx context.Context, entry domain.StockEntry) (domain.StockRecord, error) {
	r.logger.Debug("Iniciando ApplyEntry no repositório de estoque.", map[string]interface{}{
		"product_id": entry.ProductID,
		"lot":        entry.Lot,
		"quantity":   entry.Quantity,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para entrada de estoque.", err)
		return domain.StockRecord{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Obter o registro do lote (FOR UPDATE para bloquear a linha na transação)
	var current domain.StockRecord
	querySelect := `
        SELECT id, product_id, lot, expiry_date, quantity_on_hand, version, created_at, updated_at
        FROM stock_records
        WHERE product_id = $1 AND lot = $2 FOR UPDATE`

	err = tx.QueryRowContext(ctxTimeout, querySelect, entry.ProductID, entry.Lot).Scan(
		&current.ID, &current.ProductID, &current.Lot, &current.ExpiryDate,
		&current.QuantityOnHand, &current.Version, &current.CreatedAt, &current.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		// Primeira entrada do lote: inserção inicial.
		if entry.Quantity <= 0 {
			r.logger.Warn("Tentativa de criar registro de estoque com quantidade não positiva.", map[string]interface{}{
				"product_id": entry.ProductID, "lot": entry.Lot, "quantity": entry.Quantity,
			})
			return domain.StockRecord{}, errors.NewValidationError("A primeira entrada de um lote deve ter quantidade positiva.")
		}

		now := time.Now().UTC()
		queryInsert := `
            INSERT INTO stock_records (id, product_id, lot, expiry_date, quantity_on_hand, version, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id, product_id, lot, expiry_date, quantity_on_hand, version, created_at, updated_at`

		var created domain.StockRecord
		err = tx.QueryRowContext(ctxTimeout, queryInsert,
			uuid.New().String(), entry.ProductID, entry.Lot, entry.ExpiryDate, entry.Quantity, 1, now, now,
		).Scan(
			&created.ID, &created.ProductID, &created.Lot, &created.ExpiryDate,
			&created.QuantityOnHand, &created.Version, &created.CreatedAt, &created.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao inserir novo registro de estoque.", err)
			return domain.StockRecord{}, errors.NewDBError("Falha ao inserir registro de estoque", err)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			r.logger.Error("Falha ao commitar transação de entrada de estoque.", commitErr)
			return domain.StockRecord{}, errors.NewDBError("Falha ao commitar transação", commitErr)
		}
		r.logger.Info("Novo registro de estoque criado com sucesso.", map[string]interface{}{
			"product_id": entry.ProductID, "lot": entry.Lot, "quantity": created.QuantityOnHand,
		})
		return created, nil

	} else if err != nil {
		r.logger.Error("Falha ao selecionar registro de estoque para entrada.", err)
		return domain.StockRecord{}, errors.NewDBError("Falha ao buscar estoque para entrada", err)
	}

	// 2. Aplicar a entrada e verificar os limites de quantidade
	newQuantity := current.QuantityOnHand + entry.Quantity
	if newQuantity < 0 {
		r.logger.Warn("Entrada deixaria o lote com quantidade negativa.", map[string]interface{}{
			"product_id": entry.ProductID, "lot": entry.Lot,
			"current_quantity": current.QuantityOnHand, "quantity": entry.Quantity,
		})
		return domain.StockRecord{}, errors.NewValidationError("Entrada resultaria em quantidade de estoque negativa.")
	}

	// Em ajustes de saída, o total do produto não pode cair abaixo da soma alocada.
	if entry.Quantity < 0 {
		var allocated, productTotal int
		queryTotals := `
            SELECT COALESCE((SELECT SUM(quantity) FROM allocations WHERE product_id = $1), 0),
                   COALESCE((SELECT SUM(quantity_on_hand) FROM stock_records WHERE product_id = $1), 0)`
		if err = tx.QueryRowContext(ctxTimeout, queryTotals, entry.ProductID).Scan(&allocated, &productTotal); err != nil {
			r.logger.Error("Falha ao calcular totais do produto para ajuste de saída.", err)
			return domain.StockRecord{}, errors.NewDBError("Falha ao calcular totais do produto", err)
		}
		if productTotal+entry.Quantity < allocated {
			r.logger.Warn("Ajuste de saída bloqueado: total ficaria abaixo da soma alocada.", map[string]interface{}{
				"product_id": entry.ProductID, "allocated": allocated,
				"product_total": productTotal, "quantity": entry.Quantity,
			})
			return domain.StockRecord{}, errors.NewConflictError(
				fmt.Sprintf("Ajuste deixaria o estoque total (%d) abaixo do alocado (%d). Transfira ou reduza alocações antes.",
					productTotal+entry.Quantity, allocated))
		}
	}

	expiry := current.ExpiryDate
	if !entry.ExpiryDate.IsZero() {
		expiry = entry.ExpiryDate
	}

	// 3. Atualizar o registro com OCC
	queryUpdate := `
        UPDATE stock_records
        SET quantity_on_hand = $1, expiry_date = $2, version = $3, updated_at = $4
        WHERE id = $5 AND version = $6`

	result, err := tx.ExecContext(ctxTimeout, queryUpdate,
		newQuantity, expiry, current.Version+1, time.Now().UTC(), current.ID, current.Version,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar registro de estoque.", err)
		return domain.StockRecord{}, errors.NewDBError("Falha ao atualizar estoque", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após atualização de estoque.", err)
		return domain.StockRecord{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if rowsAffected == 0 {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC) do estoque.", map[string]interface{}{
			"product_id": entry.ProductID, "lot": entry.Lot, "expected_version": current.Version,
		})
		return domain.StockRecord{}, errors.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}

	// 4. Commitar a transação
	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de entrada de estoque.", commitErr)
		return domain.StockRecord{}, errors.NewDBError("Falha ao commitar transação", commitErr)
	}

	current.QuantityOnHand = newQuantity
	current.ExpiryDate = expiry
	current.Version++
	current.UpdatedAt = time.Now().UTC()
	r.logger.Info("Entrada de estoque aplicada com sucesso.", map[string]interface{}{
		"product_id": entry.ProductID, "lot": entry.Lot,
		"new_quantity": newQuantity, "new_version": current.Version,
	})
	return current, nil
}

// GetStockByProduct retorna a visão consolidada do estoque de um produto
// (quantidade_atual + registros por lote). NotFound quando o produto não
// possui nenhum registro — o Reconciler traduz para NoStockError.
func (r *StockRepository) GetStockByProduct(ctx context.Context, productID string) (domain.StockSummary, error) {
	r.logger.Debug("Iniciando GetStockByProduct no repositório.", map[string]interface{}{"product_id": productID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, product_id, lot, expiry_date, quantity_on_hand, version, created_at, updated_at
        FROM stock_records
        WHERE product_id = $1
        ORDER BY expiry_date`

	rows, err := r.DB.QueryContext(ctxTimeout, query, productID)
	if err != nil {
		r.logger.Error("Falha ao executar GetStockByProduct query.", err)
		return domain.StockSummary{}, errors.NewDBError("Falha ao buscar estoque do produto", err)
	}
	defer rows.Close()

	summary := domain.StockSummary{ProductID: productID}
	for rows.Next() {
		var record domain.StockRecord
		err := rows.Scan(
			&record.ID, &record.ProductID, &record.Lot, &record.ExpiryDate,
			&record.QuantityOnHand, &record.Version, &record.CreatedAt, &record.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear registro de estoque na iteração.", err)
			return domain.StockSummary{}, errors.NewDBError("Falha ao mapear registros de estoque", err)
		}
		summary.QuantidadeAtual += record.QuantityOnHand
		summary.Records = append(summary.Records, record)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração dos registros de estoque.", err)
		return domain.StockSummary{}, errors.NewDBError("Erro após iteração de estoque", err)
	}

	if len(summary.Records) == 0 {
		r.logger.Info("Produto sem estoque registrado.", map[string]interface{}{"product_id": productID})
		return domain.StockSummary{}, errors.NewNotFoundError(fmt.Sprintf("Produto %s não possui estoque registrado.", productID))
	}

	return summary, nil
}

// GetStockTotalByProduct retorna somente o total em mãos do produto,
// somado entre lotes. NotFound quando não há registro algum.
func (r *StockRepository) GetStockTotalByProduct(ctx context.Context, productID string) (int, error) {
	r.logger.Debug("Iniciando GetStockTotalByProduct no repositório.", map[string]interface{}{"product_id": productID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT COALESCE(SUM(quantity_on_hand), 0), COUNT(*) FROM stock_records WHERE product_id = $1`

	var total, count int
	if err := r.DB.QueryRowContext(ctxTimeout, query, productID).Scan(&total, &count); err != nil {
		r.logger.Error("Falha ao somar estoque do produto no DB.", err)
		return 0, errors.NewDBError("Falha ao somar estoque do produto", err)
	}

	if count == 0 {
		return 0, errors.NewNotFoundError(fmt.Sprintf("Produto %s não possui estoque registrado.", productID))
	}

	return total, nil
}

// DeleteRecord remove um registro de lote. Registros com quantidade em mãos
// nunca são removidos; a cláusula de quantidade protege contra corridas.
func (r *StockRepository) DeleteRecord(ctx context.Context, id string) error {
	r.logger.Debug("Iniciando DeleteRecord no repositório de estoque.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM stock_records WHERE id = $1 AND quantity_on_hand = 0`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar registro de estoque do DB.", err)
		return errors.NewDBError("Falha ao deletar registro de estoque", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após DeleteRecord.", err)
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if rowsAffected == 0 {
		var quantity int
		err := r.DB.QueryRowContext(ctxTimeout, `SELECT quantity_on_hand FROM stock_records WHERE id = $1`, id).Scan(&quantity)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError(fmt.Sprintf("Registro de estoque com ID %s não encontrado.", id))
		}
		if err != nil {
			r.logger.Error("Falha ao verificar registro de estoque.", err)
			return errors.NewDBError("Falha ao verificar registro de estoque", err)
		}
		r.logger.Warn("Exclusão bloqueada: registro ainda possui quantidade em mãos.", map[string]interface{}{"id": id, "quantity": quantity})
		return errors.NewConflictError(fmt.Sprintf("Registro de estoque possui %d unidade(s) em mãos e não pode ser removido.", quantity))
	}

	r.logger.Info("Registro de estoque deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}
