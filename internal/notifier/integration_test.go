//go:build integration

package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yllan/newshelper-safari/internal/domain"
)

type AMQPIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *AMQPIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *AMQPIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestAMQPIntegrationSuite(t *testing.T) {
	suite.Run(t, new(AMQPIntegrationSuite))
}

func (s *AMQPIntegrationSuite) TestChannel_Connection() {
	cfg := AMQPConfig{
		URL:        s.amqpURL,
		Exchange:   "test-exchange",
		RoutingKey: "test-routing-key",
		QueueName:  "test-queue",
	}

	ch, err := NewAMQPChannel(cfg, s.logger)
	s.NoError(err)
	s.NotNil(ch)

	err = ch.Close()
	s.NoError(err)
}

func (s *AMQPIntegrationSuite) TestChannel_DeliverAlert() {
	cfg := AMQPConfig{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-alert",
		RoutingKey: "test-routing-key-alert",
		QueueName:  "test-queue-alert",
	}

	ch, err := NewAMQPChannel(cfg, s.logger)
	s.Require().NoError(err)
	defer ch.Close()

	n := domain.Notification{
		Title: "新聞小幫手提醒您",
		Body:  "您於3 分鐘前看的新聞「測試新聞」被人回報有錯誤：標題不符",
		Tag:   "http://news.example/1",
		Link:  "http://report.example/1",
	}

	err = ch.Deliver(s.ctx, n)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)

	s.Equal("application/json", msg.ContentType)
	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)

	var received AlertMessage
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)
	s.Equal(n.Tag, received.Notification.Tag)
	s.Equal(n.Link, received.Notification.Link)
	s.Equal(n.Body, received.Notification.Body)
	s.False(received.Timestamp.IsZero())
}

func (s *AMQPIntegrationSuite) TestChannel_DedupWindowAcrossDeliveries() {
	cfg := AMQPConfig{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-dedup",
		RoutingKey: "test-routing-key-dedup",
		QueueName:  "test-queue-dedup",
	}

	ch, err := NewAMQPChannel(cfg, s.logger)
	s.Require().NoError(err)
	defer ch.Close()

	notif := New(ch, nil, time.Hour, s.logger)

	alert := domain.Notification{Title: "t", Body: "b", Tag: "http://news.example/1", Link: "l"}
	notif.Notify(s.ctx, alert)
	notif.Notify(s.ctx, alert)

	// Exactly one message reaches the queue.
	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)

	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()
	c, err := conn.Channel()
	s.Require().NoError(err)
	defer c.Close()

	q, err := c.QueueInspect(cfg.QueueName)
	s.Require().NoError(err)
	s.Equal(0, q.Messages)
}

func (s *AMQPIntegrationSuite) consumeMessage(cfg AMQPConfig) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
