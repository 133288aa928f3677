package dynamostore

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Config contains DynamoDB settings loaded from environment variables.
// Credentials come from the standard AWS credential chain.
type Config struct {
	Table    string `env:"DYNAMODB_TABLE" envDefault:"sessions"`
	Region   string `env:"AWS_REGION" envDefault:"us-east-1"`
	Endpoint string `env:"DYNAMODB_ENDPOINT"` // for local development against dynamodb-local
}

// ErrFailedToLoadAWSConfig is returned when the AWS credential chain cannot
// be resolved.
var ErrFailedToLoadAWSConfig = errors.New("failed to load aws config")

// Connect resolves the AWS credential chain and returns a DynamoDB client.
// A non-empty Endpoint overrides the service URL, which is how local
// DynamoDB instances are targeted.
func Connect(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadAWSConfig, err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
