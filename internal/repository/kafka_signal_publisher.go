package repository

import (
	"context"
	"fmt"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	pkgkafka "SignalForge/pkg/kafka"
)

// KafkaSignalPublisher emits analysis results to a Kafka topic, keyed by
// token so one token's results land in order on one partition.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

type analysisEvent struct {
	Token          string  `json:"token"`
	Timestamp      int64   `json:"timestamp"`
	Signature      string  `json:"signature"`
	SampleSize     int     `json:"sample_size"`
	Score          float64 `json:"score"`
	SampleAdequacy float64 `json:"sample_adequacy"`
	BuyCount       int     `json:"buy_count"`
	SellCount      int     `json:"sell_count"`
	ProfitableBuys int     `json:"profitable_buys"`
}

func (p *KafkaSignalPublisher) PublishAnalysis(ctx context.Context, a *models.TokenAnalysis) error {
	ev := analysisEvent{
		Token:          a.Token,
		Timestamp:      a.Timestamp.Unix(),
		Signature:      a.Signature,
		SampleSize:     a.SampleSize,
		Score:          a.Confidence.Score,
		SampleAdequacy: a.Confidence.SampleSizeConfidence,
		BuyCount:       a.Stats.BuyCount,
		SellCount:      a.Stats.SellCount,
		ProfitableBuys: a.Stats.ProfitableBuyCount,
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(a.Token), ev); err != nil {
		return fmt.Errorf("publish analysis %s: %w", a.Token, err)
	}
	return nil
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)
