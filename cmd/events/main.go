// Command events tails the job lifecycle exchange and prints every event.
// Handy during development and as the starting point for downstream consumers
// such as notification senders.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rabbitmq/amqp091-go"

	"github.com/example/checkflow/internal/config"
	"github.com/example/checkflow/internal/mq"
)

func main() {
	cfg := config.Load()

	consumer, err := mq.NewRabbitConsumer(cfg.MQURL, cfg.MQJobExchange, cfg.MQJobQueue)
	if err != nil {
		log.Fatalf("connect rabbitmq: %v", err)
	}
	defer consumer.Close()

	if err := consumer.Consume(func(msg amqp091.Delivery) {
		log.Printf("%s %s", msg.RoutingKey, msg.Body)
		if err := msg.Ack(false); err != nil {
			log.Printf("ack: %v", err)
		}
	}); err != nil {
		log.Fatalf("consume: %v", err)
	}

	log.Printf("listening on queue %s", cfg.MQJobQueue)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
}
