package dispatch

import (
	"time"

	"github.com/IBM/sarama"
)

type Config struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers"`
	GroupID string   `koanf:"group_id"`
	Topic   string   `koanf:"topic"`
}

func NewGroup(brokers []string, groupID string) (sarama.ConsumerGroup, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_6_0_0
	cfg.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Return.Errors = true
	cfg.Net.DialTimeout = 5 * time.Second
	return sarama.NewConsumerGroup(brokers, groupID, cfg)
}
