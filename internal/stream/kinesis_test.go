package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKinesisClient struct {
	KinesisAPI

	putErr      error
	putOut      *kinesis.PutRecordOutput
	listPages   []*kinesis.ListShardsOutput
	listCalls   int
	getRecOut   *kinesis.GetRecordsOutput
	getRecErr   error
	getIterOut  *kinesis.GetShardIteratorOutput
	getIterSeen *kinesis.GetShardIteratorInput
}

func (f *fakeKinesisClient) PutRecord(ctx context.Context, params *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	return f.putOut, nil
}

func (f *fakeKinesisClient) ListShards(ctx context.Context, params *kinesis.ListShardsInput, optFns ...func(*kinesis.Options)) (*kinesis.ListShardsOutput, error) {
	out := f.listPages[f.listCalls]
	f.listCalls++
	return out, nil
}

func (f *fakeKinesisClient) GetShardIterator(ctx context.Context, params *kinesis.GetShardIteratorInput, optFns ...func(*kinesis.Options)) (*kinesis.GetShardIteratorOutput, error) {
	f.getIterSeen = params
	return f.getIterOut, nil
}

func (f *fakeKinesisClient) GetRecords(ctx context.Context, params *kinesis.GetRecordsInput, optFns ...func(*kinesis.Options)) (*kinesis.GetRecordsOutput, error) {
	if f.getRecErr != nil {
		return nil, f.getRecErr
	}
	return f.getRecOut, nil
}

func TestKinesisTransport_PutRecord(t *testing.T) {
	client := &fakeKinesisClient{
		putOut: &kinesis.PutRecordOutput{
			ShardId:        aws.String("shardId-000000000000"),
			SequenceNumber: aws.String("4951"),
		},
	}
	transport := NewKinesisTransportWithClient(client)

	res, err := transport.PutRecord(context.Background(), "events", "pk", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "shardId-000000000000", res.ShardID)
	assert.Equal(t, "4951", res.SequenceNumber)
}

func TestKinesisTransport_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "throughput exceeded maps to throttled",
			err:  &types.ProvisionedThroughputExceededException{Message: aws.String("rate exceeded")},
			want: ErrThrottled,
		},
		{
			name: "expired iterator maps to expired",
			err:  &types.ExpiredIteratorException{Message: aws.String("iterator expired")},
			want: ErrExpiredIterator,
		},
		{
			name: "anything else maps to unavailable",
			err:  errors.New("connection reset"),
			want: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := NewKinesisTransportWithClient(&fakeKinesisClient{putErr: tt.err})

			_, err := transport.PutRecord(context.Background(), "events", "pk", []byte("x"))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestKinesisTransport_ListShardsPaginates(t *testing.T) {
	client := &fakeKinesisClient{
		listPages: []*kinesis.ListShardsOutput{
			{
				Shards:    []types.Shard{{ShardId: aws.String("shardId-000000000000")}},
				NextToken: aws.String("page-2"),
			},
			{
				Shards: []types.Shard{{ShardId: aws.String("shardId-000000000001")}},
			},
		},
	}
	transport := NewKinesisTransportWithClient(client)

	shards, err := transport.ListShards(context.Background(), "events")
	require.NoError(t, err)
	assert.Equal(t, []string{"shardId-000000000000", "shardId-000000000001"}, shards)
	assert.Equal(t, 2, client.listCalls)
}

func TestKinesisTransport_GetShardIteratorPositions(t *testing.T) {
	client := &fakeKinesisClient{
		getIterOut: &kinesis.GetShardIteratorOutput{ShardIterator: aws.String("iter-token")},
	}
	transport := NewKinesisTransportWithClient(client)
	ctx := context.Background()

	_, err := transport.GetShardIterator(ctx, "events", "shard-0", Latest())
	require.NoError(t, err)
	assert.Equal(t, types.ShardIteratorTypeLatest, client.getIterSeen.ShardIteratorType)
	assert.Nil(t, client.getIterSeen.StartingSequenceNumber)

	_, err = transport.GetShardIterator(ctx, "events", "shard-0", AfterSequence("42"))
	require.NoError(t, err)
	assert.Equal(t, types.ShardIteratorTypeAfterSequenceNumber, client.getIterSeen.ShardIteratorType)
	assert.Equal(t, "42", aws.ToString(client.getIterSeen.StartingSequenceNumber))
}

func TestKinesisTransport_GetRecords(t *testing.T) {
	client := &fakeKinesisClient{
		getRecOut: &kinesis.GetRecordsOutput{
			NextShardIterator: aws.String("next-iter"),
			Records: []types.Record{
				{
					PartitionKey:   aws.String("pk"),
					SequenceNumber: aws.String("7"),
					Data:           []byte("payload"),
				},
			},
		},
	}
	transport := NewKinesisTransportWithClient(client)

	out, err := transport.GetRecords(context.Background(), "iter", 100)
	require.NoError(t, err)
	assert.Equal(t, "next-iter", out.NextIterator)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "7", out.Records[0].SequenceNumber)
	assert.Equal(t, []byte("payload"), out.Records[0].Data)
}
