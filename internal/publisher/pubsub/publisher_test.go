package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestTopic(t *testing.T) (*pstest.Server, *pubsub.Client, *pubsub.Topic) {
	t.Helper()
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(ctx, "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	topic, err := client.CreateTopic(ctx, "spider-runs")
	require.NoError(t, err)
	return srv, client, topic
}

func TestPublishSendsJSONWithAttributes(t *testing.T) {
	t.Parallel()

	srv, _, topic := newTestTopic(t)
	p := NewWithTopic(topic)

	payload := map[string]any{"run_id": "run-1", "file_count": 2}
	id, err := p.Publish(context.Background(), "spider-runs", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, p.Close())

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "spider_run_completed", msgs[0].Attributes["event"])
	assert.Equal(t, "spider-runs", msgs[0].Attributes["topic"])

	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.EqualValues(t, 2, got["file_count"])
}

func TestPublishRejectsUnencodablePayload(t *testing.T) {
	t.Parallel()

	srv, _, topic := newTestTopic(t)
	p := NewWithTopic(topic)
	defer p.Close() //nolint:errcheck // topic only

	_, err := p.Publish(context.Background(), "", make(chan int))
	require.ErrorContains(t, err, "marshal payload")
	assert.Empty(t, srv.Messages())
}

func TestPublishWithoutTopic(t *testing.T) {
	t.Parallel()

	_, err := (&Publisher{}).Publish(context.Background(), "", "x")
	require.Error(t, err)
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{TopicName: "runs"})
	require.ErrorContains(t, err, "project id")
	_, err = New(context.Background(), Config{ProjectID: "p"})
	require.ErrorContains(t, err, "topic name")
}
