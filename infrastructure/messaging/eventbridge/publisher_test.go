package eventbridge

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindgraph/domain/core/valueobjects"
	"mindgraph/domain/events"
)

type recordingClient struct {
	calls  []*eventbridge.PutEventsInput
	failed int32
}

func (c *recordingClient) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	c.calls = append(c.calls, in)
	out := &eventbridge.PutEventsOutput{FailedEntryCount: c.failed}
	for i := range in.Entries {
		entry := types.PutEventsResultEntry{EventId: aws.String("evt")}
		if int32(i) < c.failed {
			entry.ErrorCode = aws.String("InternalFailure")
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func deletedEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewDocumentDeleted(valueobjects.NewDocumentID(), "alice", nil, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	return out
}

func TestPublisher_PublishBatchChunks(t *testing.T) {
	client := &recordingClient{}
	p := NewPublisher(client, "bus", nil)

	require.NoError(t, p.PublishBatch(context.Background(), deletedEvents(23)))

	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0].Entries, 10)
	assert.Len(t, client.calls[2].Entries, 3)

	entry := client.calls[0].Entries[0]
	assert.Equal(t, "bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.Source, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeDocumentDeleted, aws.ToString(entry.DetailType))
	assert.Contains(t, aws.ToString(entry.Detail), `"owner_id":"alice"`)
}

func TestPublisher_ReportsFailedEntries(t *testing.T) {
	client := &recordingClient{failed: 1}
	p := NewPublisher(client, "bus", nil)

	err := p.Publish(context.Background(), deletedEvents(1)[0])
	assert.Error(t, err)
}

func TestPublisher_EmptyBatch(t *testing.T) {
	client := &recordingClient{}
	p := NewPublisher(client, "bus", nil)

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Empty(t, client.calls)
}
