// Package awssm supplies keys from AWS Secrets Manager.
package awssm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/confkit/securestore"
)

// pathTemplate is the Secrets Manager name for a key item.
const pathTemplate = "securestore/%s"

// client is the subset of the Secrets Manager API the store uses
// (allows mocking).
type client interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
}

// Store reads and writes key items in AWS Secrets Manager.
type Store struct {
	client client
}

// Config configures a Store.
type Config struct {
	// Region overrides the default AWS region.
	Region string
	// AWSConfig supplies a fully prepared AWS configuration, bypassing
	// the default credential chain.
	AWSConfig *aws.Config
}

// New creates a Secrets Manager key store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var awsConfig aws.Config
	var err error

	if cfg.AWSConfig != nil {
		awsConfig = *cfg.AWSConfig
	} else {
		opts := []func(*config.LoadOptions) error{}
		if cfg.Region != "" {
			opts = append(opts, config.WithRegion(cfg.Region))
		}
		awsConfig, err = config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
	}

	return &Store{client: secretsmanager.NewFromConfig(awsConfig)}, nil
}

// newWithClient is used by tests to inject a mock client.
func newWithClient(c client) *Store {
	return &Store{client: c}
}

func (s *Store) path(item string) string {
	return fmt.Sprintf(pathTemplate, item)
}

func (s *Store) Get(ctx context.Context, item string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.path(item)),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: secret %q", securestore.ErrKeyNotFound, s.path(item))
		}
		return "", fmt.Errorf("secrets manager read failed for %q: %w", item, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("%w: secret %q has no value", securestore.ErrKeyNotFound, s.path(item))
	}
	return *out.SecretString, nil
}

func (s *Store) Set(ctx context.Context, item string, value string) error {
	_, err := s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(s.path(item)),
		SecretString: aws.String(value),
	})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("secrets manager write failed for %q: %w", item, err)
	}
	_, err = s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(s.path(item)),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("secrets manager create failed for %q: %w", item, err)
	}
	return nil
}

var _ securestore.KeyStore = (*Store)(nil)
