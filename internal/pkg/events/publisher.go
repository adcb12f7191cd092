package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"goestoque/internal/domain"
	"goestoque/internal/pkg/logger"
)

// Publisher define o contrato de publicação de eventos de transferência.
// A publicação é melhor-esforço: falhas são logadas, nunca abortam a operação.
type Publisher interface {
	PublishTransfer(ctx context.Context, transfer domain.Transfer) error
	Close() error
}

// KafkaPublisher publica os registros de transferência em um tópico Kafka,
// para consumo por sistemas de auditoria/relatórios.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewKafkaPublisher cria o publisher. Retorna nil se nenhum broker foi
// configurado: o serviço trata publisher nil como "eventos desabilitados".
func NewKafkaPublisher(brokers []string, topic string, log logger.Logger) *KafkaPublisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 5 * time.Second,
	}

	return &KafkaPublisher{writer: writer, logger: log}
}

// PublishTransfer serializa o registro de transferência e o envia ao tópico.
func (p *KafkaPublisher) PublishTransfer(ctx context.Context, transfer domain.Transfer) error {
	payload, err := json.Marshal(transfer)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(transfer.ProductID),
		Value: payload,
		Time:  transfer.TransferredAt,
	})
	if err != nil {
		p.logger.Warn("Falha ao publicar evento de transferência no Kafka.", map[string]interface{}{
			"transfer_id": transfer.ID,
			"error":       err.Error(),
		})
		return err
	}

	p.logger.Debug("Evento de transferência publicado.", map[string]interface{}{"transfer_id": transfer.ID})
	return nil
}

// Close encerra o writer Kafka.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
