// Package credstash reads and writes credstash-compatible credential
// tables: DynamoDB items holding AES-CTR ciphertext whose data keys are
// wrapped by KMS and whose integrity is covered by an HMAC.
package credstash

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	dderrors "github.com/classy-org/data-dives/internal/errors"
	"github.com/classy-org/data-dives/internal/logging"
)

// DefaultKeyID is the KMS key used to wrap data keys for new secrets,
// matching the credstash convention.
const DefaultKeyID = "alias/credstash"

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
// It exists so tests can inject a fake.
type DynamoDBAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// KMSAPI is the subset of the KMS client the store uses
type KMSAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
	GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error)
}

// Store is a credstash credential store client. The region each call
// targets comes from the caller, so one Store serves tables in any region.
type Store struct {
	ddb    DynamoDBAPI
	kms    KMSAPI
	keyID  string
	logger *logging.Logger
}

// Option is a functional option for configuring the store
type Option func(*Store)

// WithDynamoDBClient sets a custom DynamoDB client (for testing)
func WithDynamoDBClient(client DynamoDBAPI) Option {
	return func(s *Store) {
		s.ddb = client
	}
}

// WithKMSClient sets a custom KMS client (for testing)
func WithKMSClient(client KMSAPI) Option {
	return func(s *Store) {
		s.kms = client
	}
}

// WithKeyID sets the KMS key used when storing new secrets
func WithKeyID(keyID string) Option {
	return func(s *Store) {
		s.keyID = keyID
	}
}

// New creates a credstash store. Real AWS clients are built from the
// default credential chain unless clients are injected via options.
func New(ctx context.Context, logger *logging.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		keyID:  DefaultKeyID,
		logger: logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.ddb == nil || s.kms == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		if s.ddb == nil {
			s.ddb = dynamodb.NewFromConfig(cfg)
		}
		if s.kms == nil {
			s.kms = kms.NewFromConfig(cfg)
		}
	}

	return s, nil
}

// FetchAll scans the credential table and returns the newest version of
// every secret, decrypted. An empty region leaves the client's configured
// region in effect.
func (s *Store) FetchAll(ctx context.Context, table, region string) (map[string]string, error) {
	latest := make(map[string]item)

	var startKey map[string]types.AttributeValue
	for {
		out, err := s.ddb.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(table),
			ExclusiveStartKey: startKey,
		}, ddbRegion(region))
		if err != nil {
			return nil, dderrors.StoreError(table, "scan", err)
		}

		for _, attrs := range out.Items {
			it, err := itemFromAttributes(attrs)
			if err != nil {
				return nil, dderrors.StoreError(table, "scan", err)
			}
			if prev, ok := latest[it.Name]; !ok || versionLess(prev.Version, it.Version) {
				latest[it.Name] = it
			}
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	s.logger.Debug("Scanned %d secrets from %s", len(latest), table)

	secrets := make(map[string]string, len(latest))
	for name, it := range latest {
		plain, err := s.decrypt(ctx, it, region)
		if err != nil {
			return nil, dderrors.StoreError(table, "decrypt", err)
		}
		secrets[name] = plain
	}

	return secrets, nil
}

// Get fetches and decrypts the newest version of a single secret
func (s *Store) Get(ctx context.Context, table, region, name string) (string, error) {
	out, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(table),
		ConsistentRead:         aws.Bool(true),
		Limit:                  aws.Int32(1),
		ScanIndexForward:       aws.Bool(false),
		KeyConditionExpression: aws.String("#name = :name"),
		ExpressionAttributeNames: map[string]string{
			"#name": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":name": &types.AttributeValueMemberS{Value: name},
		},
	}, ddbRegion(region))
	if err != nil {
		return "", dderrors.StoreError(table, "query", err)
	}
	if len(out.Items) == 0 {
		return "", NotFoundError{Table: table, Name: name}
	}

	it, err := itemFromAttributes(out.Items[0])
	if err != nil {
		return "", dderrors.StoreError(table, "query", err)
	}

	plain, err := s.decrypt(ctx, it, region)
	if err != nil {
		return "", dderrors.StoreError(table, "decrypt", err)
	}
	return plain, nil
}

// Put encrypts value and writes it as the next version of name. The write
// is conditional on the version not existing, so concurrent writers fail
// instead of clobbering each other.
func (s *Store) Put(ctx context.Context, table, region, name, value string) error {
	version, err := s.nextVersion(ctx, table, region, name)
	if err != nil {
		return err
	}

	keyOut, err := s.kms.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:         aws.String(s.keyID),
		NumberOfBytes: aws.Int32(keyLength),
	}, kmsRegion(region))
	if err != nil {
		return dderrors.StoreError(table, "generate data key", err)
	}

	it, err := sealItem(name, version, value, keyOut.Plaintext, keyOut.CiphertextBlob)
	if err != nil {
		return dderrors.StoreError(table, "encrypt", err)
	}

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                it.attributes(),
		ConditionExpression: aws.String("attribute_not_exists(#name)"),
		ExpressionAttributeNames: map[string]string{
			"#name": "name",
		},
	}, ddbRegion(region))
	if err != nil {
		return dderrors.StoreError(table, "put", err)
	}

	s.logger.Info("Stored %s version %s in %s", name, version, table)
	return nil
}

// decrypt unwraps the item's data key through KMS and decrypts the contents
func (s *Store) decrypt(ctx context.Context, it item, region string) (string, error) {
	wrapped, err := base64.StdEncoding.DecodeString(it.Key)
	if err != nil {
		return "", fmt.Errorf("secret %s: malformed wrapped key: %w", it.Name, err)
	}

	keyOut, err := s.kms.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: wrapped,
	}, kmsRegion(region))
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", it.Name, err)
	}

	return openItem(it, keyOut.Plaintext)
}

// nextVersion returns the zero-padded successor of the newest stored version
func (s *Store) nextVersion(ctx context.Context, table, region, name string) (string, error) {
	out, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(table),
		ConsistentRead:         aws.Bool(true),
		Limit:                  aws.Int32(1),
		ScanIndexForward:       aws.Bool(false),
		KeyConditionExpression: aws.String("#name = :name"),
		ProjectionExpression:   aws.String("version"),
		ExpressionAttributeNames: map[string]string{
			"#name": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":name": &types.AttributeValueMemberS{Value: name},
		},
	}, ddbRegion(region))
	if err != nil {
		return "", dderrors.StoreError(table, "query", err)
	}

	current := 0
	if len(out.Items) > 0 {
		if av, ok := out.Items[0]["version"].(*types.AttributeValueMemberS); ok {
			n, err := strconv.Atoi(strings.TrimLeft(av.Value, "0"))
			if err == nil {
				current = n
			} else if strings.Trim(av.Value, "0") != "" {
				return "", fmt.Errorf("secret %s: unparseable version %q", name, av.Value)
			}
		}
	}

	return paddedVersion(current + 1), nil
}

// paddedVersion formats a version number the way credstash stores it
func paddedVersion(n int) string {
	return fmt.Sprintf("%019d", n)
}

// versionLess compares version strings after left-padding, so legacy
// unpadded versions sort correctly against padded ones
func versionLess(a, b string) bool {
	return pad19(a) < pad19(b)
}

func pad19(v string) string {
	if len(v) >= 19 {
		return v
	}
	return strings.Repeat("0", 19-len(v)) + v
}

// ddbRegion overrides the DynamoDB client region for one call
func ddbRegion(region string) func(*dynamodb.Options) {
	return func(o *dynamodb.Options) {
		if region != "" {
			o.Region = region
		}
	}
}

// kmsRegion overrides the KMS client region for one call
func kmsRegion(region string) func(*kms.Options) {
	return func(o *kms.Options) {
		if region != "" {
			o.Region = region
		}
	}
}

// NotFoundError indicates the named secret has no versions in the table
type NotFoundError struct {
	Table string
	Name  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("secret not found: %s in table %s", e.Name, e.Table)
}
