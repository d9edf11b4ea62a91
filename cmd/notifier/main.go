package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/notify"
)

func main() {
	log.Println("notifier starting...")
	config.Load()
	cfg := config.LoadNotifier()

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatalf("KAFKA_BROKERS must list at least one broker")
	}

	sender, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})
	if err != nil {
		log.Fatalf("Failed to set up SMTP: %v", err)
	}

	mailer := notify.NewMailer(sender, cfg.MailFrom, cfg.StoreName)
	consumer := notify.NewConsumer(mailer, cfg.ConfirmationTopic, cfg.ConsumerGroup, cfg.KafkaBrokers...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("Consuming %s as %s", cfg.ConfirmationTopic, cfg.ConsumerGroup)
		consumer.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down notifier...")
	cancel()
	<-done
	consumer.Close()
	log.Println("Notifier stopped")
}
