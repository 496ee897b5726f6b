package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
)

// KinesisAPI is the subset of the Kinesis client the transport uses.
type KinesisAPI interface {
	PutRecord(ctx context.Context, params *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error)
	PutRecords(ctx context.Context, params *kinesis.PutRecordsInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordsOutput, error)
	ListShards(ctx context.Context, params *kinesis.ListShardsInput, optFns ...func(*kinesis.Options)) (*kinesis.ListShardsOutput, error)
	GetShardIterator(ctx context.Context, params *kinesis.GetShardIteratorInput, optFns ...func(*kinesis.Options)) (*kinesis.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, params *kinesis.GetRecordsInput, optFns ...func(*kinesis.Options)) (*kinesis.GetRecordsOutput, error)
}

// KinesisTransport implements Transport on AWS Kinesis Data Streams.
type KinesisTransport struct {
	client KinesisAPI
}

// NewKinesisTransport loads the default AWS config for the given region and
// returns a Kinesis-backed transport.
func NewKinesisTransport(ctx context.Context, region string) (*KinesisTransport, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &KinesisTransport{client: kinesis.NewFromConfig(cfg)}, nil
}

// NewKinesisTransportWithClient wraps an existing Kinesis client.
func NewKinesisTransportWithClient(client KinesisAPI) *KinesisTransport {
	return &KinesisTransport{client: client}
}

func (t *KinesisTransport) PutRecord(ctx context.Context, streamName, partitionKey string, data []byte) (PutResult, error) {
	out, err := t.client.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(streamName),
		PartitionKey: aws.String(partitionKey),
		Data:         data,
	})
	if err != nil {
		return PutResult{}, mapKinesisError("put record", err)
	}
	return PutResult{
		ShardID:        aws.ToString(out.ShardId),
		SequenceNumber: aws.ToString(out.SequenceNumber),
	}, nil
}

func (t *KinesisTransport) PutRecords(ctx context.Context, streamName string, entries []PutEntry) (BatchResult, error) {
	records := make([]types.PutRecordsRequestEntry, len(entries))
	for i, e := range entries {
		records[i] = types.PutRecordsRequestEntry{
			PartitionKey: aws.String(e.PartitionKey),
			Data:         e.Data,
		}
	}

	out, err := t.client.PutRecords(ctx, &kinesis.PutRecordsInput{
		StreamName: aws.String(streamName),
		Records:    records,
	})
	if err != nil {
		return BatchResult{}, mapKinesisError("put records", err)
	}

	result := BatchResult{
		FailedCount: int(aws.ToInt32(out.FailedRecordCount)),
		Entries:     make([]BatchEntryResult, len(out.Records)),
	}
	for i, r := range out.Records {
		result.Entries[i] = BatchEntryResult{
			ShardID:        aws.ToString(r.ShardId),
			SequenceNumber: aws.ToString(r.SequenceNumber),
			ErrorCode:      aws.ToString(r.ErrorCode),
			ErrorMessage:   aws.ToString(r.ErrorMessage),
		}
	}
	return result, nil
}

func (t *KinesisTransport) ListShards(ctx context.Context, streamName string) ([]string, error) {
	var shards []string
	var nextToken *string

	for {
		input := &kinesis.ListShardsInput{}
		if nextToken != nil {
			input.NextToken = nextToken
		} else {
			input.StreamName = aws.String(streamName)
		}

		out, err := t.client.ListShards(ctx, input)
		if err != nil {
			return nil, mapKinesisError("list shards", err)
		}
		for _, s := range out.Shards {
			shards = append(shards, aws.ToString(s.ShardId))
		}

		if out.NextToken == nil {
			return shards, nil
		}
		nextToken = out.NextToken
	}
}

func (t *KinesisTransport) GetShardIterator(ctx context.Context, streamName, shardID string, pos Position) (string, error) {
	input := &kinesis.GetShardIteratorInput{
		StreamName: aws.String(streamName),
		ShardId:    aws.String(shardID),
	}

	if seq, ok := pos.AfterSequenceNumber(); ok {
		input.ShardIteratorType = types.ShardIteratorTypeAfterSequenceNumber
		input.StartingSequenceNumber = aws.String(seq)
	} else {
		input.ShardIteratorType = types.ShardIteratorTypeLatest
	}

	out, err := t.client.GetShardIterator(ctx, input)
	if err != nil {
		return "", mapKinesisError("get shard iterator", err)
	}
	return aws.ToString(out.ShardIterator), nil
}

func (t *KinesisTransport) GetRecords(ctx context.Context, iterator string, limit int) (GetOutput, error) {
	out, err := t.client.GetRecords(ctx, &kinesis.GetRecordsInput{
		ShardIterator: aws.String(iterator),
		Limit:         aws.Int32(int32(limit)),
	})
	if err != nil {
		return GetOutput{}, mapKinesisError("get records", err)
	}

	result := GetOutput{
		Records:      make([]Record, len(out.Records)),
		NextIterator: aws.ToString(out.NextShardIterator),
	}
	for i, r := range out.Records {
		result.Records[i] = Record{
			PartitionKey:   aws.ToString(r.PartitionKey),
			SequenceNumber: aws.ToString(r.SequenceNumber),
			Data:           r.Data,
		}
	}
	return result, nil
}

// mapKinesisError folds Kinesis failures into the package's taxonomy so
// callers never branch on AWS error types.
func mapKinesisError(op string, err error) error {
	var throttled *types.ProvisionedThroughputExceededException
	if errors.As(err, &throttled) {
		return fmt.Errorf("%w: %s: %v", ErrThrottled, op, err)
	}

	var expired *types.ExpiredIteratorException
	if errors.As(err, &expired) {
		return fmt.Errorf("%w: %s: %v", ErrExpiredIterator, op, err)
	}

	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
