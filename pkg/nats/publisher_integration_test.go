package nats

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/messaging/events"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
)

const skipIntegrationTests = "CATALOG_SKIP_INTEGRATION_TESTS"

const natsImg = "nats:2.11.6-alpine"

type PublisherSuite struct {
	suite.Suite
	ctx           context.Context
	natsContainer *tcnats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *PublisherSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.natsContainer, err = tcnats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)

	s.nc, err = NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to create JetStream context")

	require.NoError(s.T(), EnsureStream(s.ctx, s.js, "CATALOG", messaging.CatalogSubjects))
}

func (s *PublisherSuite) TearDownSuite() {
	s.nc.Close()
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.T().Logf("Failed to terminate NATS container: %v", err)
	}
}

func TestPublisherSuite(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) Test_EnsureStream_IsIdempotent() {
	err := EnsureStream(s.ctx, s.js, "CATALOG", messaging.CatalogSubjects)
	s.Require().NoError(err)
}

func (s *PublisherSuite) Test_Publish() {
	// given
	publisher := NewNatsPublisher(s.js)
	id := uuid.New()
	consumer, err := s.js.CreateOrUpdateConsumer(s.ctx, "CATALOG", jetstream.ConsumerConfig{
		FilterSubject: messaging.ProductsDeletedSubject,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	s.Require().NoError(err)

	// when
	err = publisher.Publish(s.ctx, events.ProductDeletedEvent{ProductID: id, DeletedAt: time.Now()})

	// then
	s.Require().NoError(err)
	batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(3*time.Second))
	s.Require().NoError(err)
	msg, ok := <-batch.Messages()
	s.Require().True(ok, "expected one message")
	s.Equal(messaging.ProductsDeletedSubject, msg.Subject())
	s.Contains(string(msg.Data()), id.String())
	s.NoError(msg.Ack())
}
