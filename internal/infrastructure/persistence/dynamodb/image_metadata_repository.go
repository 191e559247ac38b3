package dynamodb

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkondrashkov/gallery-api/internal/application/port"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	uploadIndexGSI1  = "GSI1"
	galleryPartition = "GALLERY"
	metaSortKey      = "META"

	attrPK          = "PK"
	attrSK          = "SK"
	attrGSI1PK      = "GSI1PK"
	attrGSI1SK      = "GSI1SK"
	attrObjectKey   = "object_key"
	attrURL         = "url"
	attrContentType = "content_type"
	attrSizeBytes   = "size_bytes"
	attrUploadedAt  = "uploaded_at"
)

type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
}

// ImageMetadataRepository keeps one item per uploaded image in a single
// DynamoDB table. GSI1 orders the whole gallery by upload time so ListRecent
// can page newest first.
type ImageMetadataRepository struct {
	client      *dynamodb.Client
	tableName   string
	strongReads bool
}

type cursorPayload struct {
	Key map[string]cursorValue `json:"key"`
}

type cursorValue struct {
	S string `json:"s,omitempty"`
	N string `json:"n,omitempty"`
}

func NewImageMetadataRepository(ctx context.Context, cfg Config) (*ImageMetadataRepository, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return &ImageMetadataRepository{
		client:      client,
		tableName:   strings.TrimSpace(cfg.TableName),
		strongReads: cfg.StrongReads,
	}, nil
}

func (r *ImageMetadataRepository) Put(ctx context.Context, record port.ImageMetadata) error {
	item, err := toItem(record)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put failed: %w", err)
	}

	return nil
}

func (r *ImageMetadataRepository) Delete(ctx context.Context, key string) error {
	objectKey := strings.TrimSpace(key)
	if objectKey == "" {
		return fmt.Errorf("object key is required")
	}

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &r.tableName,
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: buildPK(objectKey)},
			attrSK: &types.AttributeValueMemberS{Value: metaSortKey},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb delete failed: %w", err)
	}

	return nil
}

func (r *ImageMetadataRepository) ListRecent(ctx context.Context, query port.ImageListQuery) (port.ImageListPage, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	keyCondition := "#gsi1pk = :pk"
	input := &dynamodb.QueryInput{
		TableName:              &r.tableName,
		IndexName:              stringPointer(uploadIndexGSI1),
		Limit:                  int32Pointer(int32(limit)),
		ScanIndexForward:       boolPointer(false),
		KeyConditionExpression: &keyCondition,
		ExpressionAttributeNames: map[string]string{
			"#gsi1pk": attrGSI1PK,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: galleryPartition},
		},
	}

	if cursor := strings.TrimSpace(query.Cursor); cursor != "" {
		exclusiveStartKey, err := decodeCursor(cursor)
		if err != nil {
			return port.ImageListPage{}, err
		}
		input.ExclusiveStartKey = exclusiveStartKey
	}

	output, err := r.client.Query(ctx, input)
	if err != nil {
		return port.ImageListPage{}, fmt.Errorf("dynamodb query failed: %w", err)
	}

	items := make([]port.ImageMetadata, 0, len(output.Items))
	for _, raw := range output.Items {
		item, err := fromItem(raw)
		if err != nil {
			return port.ImageListPage{}, err
		}
		items = append(items, item)
	}

	nextCursor := ""
	if len(output.LastEvaluatedKey) > 0 {
		nextCursor, err = encodeCursor(output.LastEvaluatedKey)
		if err != nil {
			return port.ImageListPage{}, err
		}
	}

	return port.ImageListPage{
		Items:      items,
		NextCursor: nextCursor,
	}, nil
}

func toItem(record port.ImageMetadata) (map[string]types.AttributeValue, error) {
	objectKey := strings.TrimSpace(record.Key)
	if objectKey == "" {
		return nil, fmt.Errorf("object key is required")
	}

	uploadedAt := record.UploadedAt.UTC()
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}
	uploadedAtMS := uploadedAt.UnixMilli()

	item := map[string]types.AttributeValue{
		attrPK:         &types.AttributeValueMemberS{Value: buildPK(objectKey)},
		attrSK:         &types.AttributeValueMemberS{Value: metaSortKey},
		attrGSI1PK:     &types.AttributeValueMemberS{Value: galleryPartition},
		attrGSI1SK:     &types.AttributeValueMemberS{Value: buildGSI1SK(uploadedAtMS, objectKey)},
		attrObjectKey:  &types.AttributeValueMemberS{Value: objectKey},
		attrUploadedAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(uploadedAtMS, 10)},
	}

	if url := strings.TrimSpace(record.URL); url != "" {
		item[attrURL] = &types.AttributeValueMemberS{Value: url}
	}
	if contentType := strings.TrimSpace(record.ContentType); contentType != "" {
		item[attrContentType] = &types.AttributeValueMemberS{Value: contentType}
	}
	if record.SizeBytes > 0 {
		item[attrSizeBytes] = &types.AttributeValueMemberN{Value: strconv.FormatInt(record.SizeBytes, 10)}
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (port.ImageMetadata, error) {
	objectKey, err := attrString(item, attrObjectKey)
	if err != nil {
		return port.ImageMetadata{}, err
	}

	uploadedAtMS, err := attrInt64(item, attrUploadedAt)
	if err != nil {
		return port.ImageMetadata{}, err
	}

	return port.ImageMetadata{
		Key:         objectKey,
		URL:         optionalString(item, attrURL),
		ContentType: optionalString(item, attrContentType),
		SizeBytes:   optionalInt64(item, attrSizeBytes),
		UploadedAt:  time.UnixMilli(uploadedAtMS).UTC(),
	}, nil
}

func buildPK(objectKey string) string {
	return "IMAGE#" + objectKey
}

func buildGSI1SK(uploadedAtMS int64, objectKey string) string {
	return fmt.Sprintf("TS#%013d#KEY#%s", uploadedAtMS, objectHash(objectKey))
}

func objectHash(key string) string {
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	values := make(map[string]cursorValue, len(key))
	for attributeName, raw := range key {
		switch value := raw.(type) {
		case *types.AttributeValueMemberS:
			values[attributeName] = cursorValue{S: value.Value}
		case *types.AttributeValueMemberN:
			values[attributeName] = cursorValue{N: value.Value}
		default:
			return "", fmt.Errorf("unsupported cursor attribute type for %s", attributeName)
		}
	}

	serialized, err := json.Marshal(cursorPayload{Key: values})
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(serialized), nil
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}
	if len(payload.Key) == 0 {
		return nil, fmt.Errorf("invalid cursor")
	}

	key := make(map[string]types.AttributeValue, len(payload.Key))
	for attributeName, value := range payload.Key {
		if value.S != "" {
			key[attributeName] = &types.AttributeValueMemberS{Value: value.S}
			continue
		}
		if value.N != "" {
			key[attributeName] = &types.AttributeValueMemberN{Value: value.N}
			continue
		}
		return nil, fmt.Errorf("invalid cursor")
	}

	return key, nil
}

func attrString(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalString(item map[string]types.AttributeValue, name string) string {
	raw, ok := item[name]
	if !ok {
		return ""
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return value.Value
}

func attrInt64(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}

func optionalInt64(item map[string]types.AttributeValue, name string) int64 {
	raw, ok := item[name]
	if !ok {
		return 0
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func boolPointer(v bool) *bool {
	return &v
}

func int32Pointer(v int32) *int32 {
	return &v
}

func stringPointer(v string) *string {
	return &v
}
