// Package fakes provides in-memory stand-ins for the AWS SDK clients the
// credstash store uses, so store behavior can be tested without AWS.
package fakes

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// FakeDynamoDBClient serves items for one credential table
type FakeDynamoDBClient struct {
	// TableName is the only table the fake knows about
	TableName string
	// Items are returned by Scan and filtered by Query
	Items []map[string]types.AttributeValue
	// PageSize splits Scan output into pages when > 0
	PageSize int
	// ScanErr, QueryErr, PutErr force failures when set
	ScanErr  error
	QueryErr error
	PutErr   error
	// Regions records the per-call region overrides observed
	Regions []string
}

// NewFakeDynamoDBClient creates a fake for one table
func NewFakeDynamoDBClient(tableName string) *FakeDynamoDBClient {
	return &FakeDynamoDBClient{TableName: tableName}
}

// AddItem appends an item to the table
func (f *FakeDynamoDBClient) AddItem(item map[string]types.AttributeValue) {
	f.Items = append(f.Items, item)
}

func (f *FakeDynamoDBClient) checkTable(name *string) error {
	if name == nil || *name != f.TableName {
		return fmt.Errorf("ResourceNotFoundException: table %v", name)
	}
	return nil
}

func (f *FakeDynamoDBClient) recordRegion(optFns []func(*dynamodb.Options)) {
	opts := dynamodb.Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.Regions = append(f.Regions, opts.Region)
}

// Scan returns the table's items, paginated when PageSize is set
func (f *FakeDynamoDBClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.recordRegion(optFns)
	if f.ScanErr != nil {
		return nil, f.ScanErr
	}
	if err := f.checkTable(params.TableName); err != nil {
		return nil, err
	}

	start := 0
	if params.ExclusiveStartKey != nil {
		if av, ok := params.ExclusiveStartKey["offset"].(*types.AttributeValueMemberN); ok {
			fmt.Sscanf(av.Value, "%d", &start)
		}
	}

	end := len(f.Items)
	var lastKey map[string]types.AttributeValue
	if f.PageSize > 0 && start+f.PageSize < len(f.Items) {
		end = start + f.PageSize
		lastKey = map[string]types.AttributeValue{
			"offset": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", end)},
		}
	}

	return &dynamodb.ScanOutput{
		Items:            f.Items[start:end],
		LastEvaluatedKey: lastKey,
	}, nil
}

// Query returns the items for one name, newest version first
func (f *FakeDynamoDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.recordRegion(optFns)
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	if err := f.checkTable(params.TableName); err != nil {
		return nil, err
	}

	name := ""
	if av, ok := params.ExpressionAttributeValues[":name"].(*types.AttributeValueMemberS); ok {
		name = av.Value
	}

	var matches []map[string]types.AttributeValue
	for _, item := range f.Items {
		if av, ok := item["name"].(*types.AttributeValueMemberS); ok && av.Value == name {
			matches = append(matches, item)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		vi := matches[i]["version"].(*types.AttributeValueMemberS).Value
		vj := matches[j]["version"].(*types.AttributeValueMemberS).Value
		return vi > vj // descending, newest first
	})

	if params.Limit != nil && int(*params.Limit) < len(matches) {
		matches = matches[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: matches}, nil
}

// PutItem appends the item, honoring the not-exists condition on name+version
func (f *FakeDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.recordRegion(optFns)
	if f.PutErr != nil {
		return nil, f.PutErr
	}
	if err := f.checkTable(params.TableName); err != nil {
		return nil, err
	}

	if params.ConditionExpression != nil {
		newName := params.Item["name"].(*types.AttributeValueMemberS).Value
		newVersion := params.Item["version"].(*types.AttributeValueMemberS).Value
		for _, item := range f.Items {
			name := item["name"].(*types.AttributeValueMemberS).Value
			version := item["version"].(*types.AttributeValueMemberS).Value
			if name == newName && version == newVersion {
				return nil, fmt.Errorf("ConditionalCheckFailedException: %s@%s exists", name, version)
			}
		}
	}

	f.Items = append(f.Items, params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// FakeKMSClient unwraps data keys from an in-memory table
type FakeKMSClient struct {
	// KeyMaterial maps string(wrapped blob) to the plaintext key material
	KeyMaterial map[string][]byte
	// GeneratedPlaintext and GeneratedBlob are returned by GenerateDataKey
	GeneratedPlaintext []byte
	GeneratedBlob      []byte
	// DecryptErr and GenerateErr force failures when set
	DecryptErr  error
	GenerateErr error
}

// NewFakeKMSClient creates an empty fake
func NewFakeKMSClient() *FakeKMSClient {
	return &FakeKMSClient{KeyMaterial: make(map[string][]byte)}
}

// AddKey registers plaintext key material for a wrapped blob
func (f *FakeKMSClient) AddKey(wrapped, plaintext []byte) {
	f.KeyMaterial[string(wrapped)] = plaintext
}

// Decrypt unwraps a registered blob
func (f *FakeKMSClient) Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	if f.DecryptErr != nil {
		return nil, f.DecryptErr
	}
	plaintext, ok := f.KeyMaterial[string(params.CiphertextBlob)]
	if !ok {
		return nil, fmt.Errorf("InvalidCiphertextException")
	}
	return &kms.DecryptOutput{Plaintext: plaintext}, nil
}

// GenerateDataKey hands out the configured material and registers it so a
// later Decrypt of the blob round-trips.
func (f *FakeKMSClient) GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error) {
	if f.GenerateErr != nil {
		return nil, f.GenerateErr
	}
	f.AddKey(f.GeneratedBlob, f.GeneratedPlaintext)
	return &kms.GenerateDataKeyOutput{
		Plaintext:      f.GeneratedPlaintext,
		CiphertextBlob: f.GeneratedBlob,
	}, nil
}
