package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafka(t *testing.T) string {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")
	return brokers[0]
}

func TestKafka_ConfirmationReachesMailer(t *testing.T) {
	broker := setupKafka(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	topic := "order-confirmations-test"

	notifier := NewKafkaNotifier(topic, broker)
	defer notifier.Close()
	require.Eventually(t, func() bool {
		return notifier.OrderConfirmed(ctx, sampleConfirmation()) == nil
	}, 30*time.Second, time.Second)

	mailer := &syncMailer{sent: make(chan Confirmation, 1)}
	consumer := NewConsumer(mailer, topic, "notifier-test", broker)
	defer consumer.Close()
	go consumer.Run(ctx)

	select {
	case got := <-mailer.sent:
		require.Equal(t, "ord-1", got.OrderID)
	case <-time.After(30 * time.Second):
		t.Fatal("confirmation was not consumed")
	}
}

type syncMailer struct {
	sent chan Confirmation
}

func (s *syncMailer) SendConfirmation(_ context.Context, c Confirmation) error {
	s.sent <- c
	return nil
}
