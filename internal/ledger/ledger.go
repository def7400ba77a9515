// Package ledger persists job lifecycle records to DynamoDB.
//
// The table key is (job_id, start_time); two secondary indexes serve the
// by-actor listing and the by-table teardown delete.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/frostlake/frostlake/pkg/types"
)

// Index names.
const (
	actorIndex = "archived-by-index"
	tableIndex = "table-name-index"
)

// DDBAPI is the subset of the DynamoDB client used by the Ledger.
type DDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Config holds ledger storage settings.
type Config struct {
	TableName   string `yaml:"tableName"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"` // DynamoDB Local override
	CreateTable bool   `yaml:"createTable"`
}

// Ledger stores job records.
type Ledger struct {
	client      DDBAPI
	tableName   string
	createTable bool
	logger      *slog.Logger
}

// New creates a Ledger from config, building the AWS client.
func New(cfg *Config) (*Ledger, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	// For DynamoDB Local: static credentials and a custom endpoint.
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var clientOpts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &Ledger{
		client:      dynamodb.NewFromConfig(awsCfg, clientOpts...),
		tableName:   cfg.TableName,
		createTable: cfg.CreateTable,
		logger:      slog.Default(),
	}, nil
}

// NewWithClient creates a Ledger with an injected client (tests).
func NewWithClient(client DDBAPI, tableName string) *Ledger {
	return &Ledger{
		client:    client,
		tableName: tableName,
		logger:    slog.Default(),
	}
}

// SetLogger replaces the default logger.
func (l *Ledger) SetLogger(lg *slog.Logger) {
	if lg != nil {
		l.logger = lg
	}
}

// Start initializes the ledger: optionally creates the table, then pings.
func (l *Ledger) Start(ctx context.Context) error {
	if l.createTable {
		if err := l.ensureTable(ctx); err != nil {
			return err
		}
	}
	return l.Ping(ctx)
}

// Ping checks connectivity by describing the table.
func (l *Ledger) Ping(ctx context.Context) error {
	_, err := l.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: &l.tableName,
	})
	if err != nil {
		return fmt.Errorf("ledger ping failed: %w", err)
	}
	return nil
}

// Put writes one job record. Terminal records reuse the RUNNING record's
// (job_id, start_time) key, so the lifecycle item is overwritten exactly
// once.
func (l *Ledger) Put(ctx context.Context, rec types.JobRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshaling job record: %w", err)
	}
	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &l.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("putting job record: %w", err)
	}
	return nil
}

// List returns recent job records, newest first. With an actor it queries
// the by-actor index; otherwise it scans.
func (l *Ledger) List(ctx context.Context, actor string, limit int) ([]types.JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var items []map[string]ddbtypes.AttributeValue
	if actor != "" {
		out, err := l.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              &l.tableName,
			IndexName:              aws.String(actorIndex),
			KeyConditionExpression: aws.String("archived_by = :actor"),
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
				":actor": &ddbtypes.AttributeValueMemberS{Value: actor},
			},
			ScanIndexForward: aws.Bool(false),
			Limit:            aws.Int32(int32(limit)),
		})
		if err != nil {
			return nil, fmt.Errorf("querying ledger: %w", err)
		}
		items = out.Items
	} else {
		out, err := l.client.Scan(ctx, &dynamodb.ScanInput{
			TableName: &l.tableName,
			Limit:     aws.Int32(int32(limit)),
		})
		if err != nil {
			return nil, fmt.Errorf("scanning ledger: %w", err)
		}
		items = out.Items
	}

	var records []types.JobRecord
	for _, item := range items {
		var rec types.JobRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			l.logger.Warn("skipping corrupt job record", "error", err)
			continue
		}
		records = append(records, rec)
	}
	// Scan returns items in key order, not recency order. RFC3339 start
	// times sort lexicographically, so this keeps both paths newest first.
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartTime > records[j].StartTime
	})
	return records, nil
}

// DeleteByJob removes every record sharing the job id and returns the count.
func (l *Ledger) DeleteByJob(ctx context.Context, jobID string) (int, error) {
	out, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &l.tableName,
		KeyConditionExpression: aws.String("job_id = :job"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":job": &ddbtypes.AttributeValueMemberS{Value: jobID},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("querying job %s: %w", jobID, err)
	}
	return l.deleteItems(ctx, out.Items)
}

// DeleteByTable removes every record referencing (database, table) and
// returns the count.
func (l *Ledger) DeleteByTable(ctx context.Context, database, table string) (int, error) {
	out, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &l.tableName,
		IndexName:              aws.String(tableIndex),
		KeyConditionExpression: aws.String("table_name = :tbl"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":tbl": &ddbtypes.AttributeValueMemberS{Value: table},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("querying table %s: %w", table, err)
	}

	matched := make([]map[string]ddbtypes.AttributeValue, 0, len(out.Items))
	for _, item := range out.Items {
		if dbAttr, ok := item["database_name"].(*ddbtypes.AttributeValueMemberS); ok && dbAttr.Value == database {
			matched = append(matched, item)
		}
	}
	return l.deleteItems(ctx, matched)
}

func (l *Ledger) deleteItems(ctx context.Context, items []map[string]ddbtypes.AttributeValue) (int, error) {
	deleted := 0
	for _, item := range items {
		jobID, ok1 := item["job_id"].(*ddbtypes.AttributeValueMemberS)
		startTime, ok2 := item["start_time"].(*ddbtypes.AttributeValueMemberS)
		if !ok1 || !ok2 {
			l.logger.Warn("skipping record with malformed key")
			continue
		}
		_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: &l.tableName,
			Key: map[string]ddbtypes.AttributeValue{
				"job_id":     jobID,
				"start_time": startTime,
			},
		})
		if err != nil {
			return deleted, fmt.Errorf("deleting record %s: %w", jobID.Value, err)
		}
		deleted++
	}
	return deleted, nil
}

func (l *Ledger) ensureTable(ctx context.Context) error {
	gsi := func(name, hashKey string) ddbtypes.GlobalSecondaryIndex {
		return ddbtypes.GlobalSecondaryIndex{
			IndexName: aws.String(name),
			KeySchema: []ddbtypes.KeySchemaElement{
				{AttributeName: aws.String(hashKey), KeyType: ddbtypes.KeyTypeHash},
				{AttributeName: aws.String("start_time"), KeyType: ddbtypes.KeyTypeRange},
			},
			Projection: &ddbtypes.Projection{ProjectionType: ddbtypes.ProjectionTypeAll},
			ProvisionedThroughput: &ddbtypes.ProvisionedThroughput{
				ReadCapacityUnits:  aws.Int64(5),
				WriteCapacityUnits: aws.Int64(5),
			},
		}
	}

	_, err := l.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &l.tableName,
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: aws.String("job_id"), KeyType: ddbtypes.KeyTypeHash},
			{AttributeName: aws.String("start_time"), KeyType: ddbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: aws.String("job_id"), AttributeType: ddbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("start_time"), AttributeType: ddbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("archived_by"), AttributeType: ddbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("table_name"), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexes: []ddbtypes.GlobalSecondaryIndex{
			gsi(actorIndex, "archived_by"),
			gsi(tableIndex, "table_name"),
		},
		ProvisionedThroughput: &ddbtypes.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(5),
			WriteCapacityUnits: aws.Int64(5),
		},
	})
	if err != nil {
		var riue *ddbtypes.ResourceInUseException
		if errors.As(err, &riue) {
			return nil // table already exists
		}
		return fmt.Errorf("creating ledger table: %w", err)
	}
	return nil
}
