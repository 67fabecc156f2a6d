package awssm

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confkit/securestore"
)

// mockClient implements the client interface with an in-memory map.
type mockClient struct {
	secrets map[string]string
	creates int
	puts    int
}

func newMockClient() *mockClient {
	return &mockClient{secrets: map[string]string{}}
}

func (m *mockClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	v, ok := m.secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, &types.ResourceNotFoundException{}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func (m *mockClient) CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	m.creates++
	m.secrets[aws.ToString(params.Name)] = aws.ToString(params.SecretString)
	return &secretsmanager.CreateSecretOutput{}, nil
}

func (m *mockClient) PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	m.puts++
	id := aws.ToString(params.SecretId)
	if _, ok := m.secrets[id]; !ok {
		return nil, &types.ResourceNotFoundException{}
	}
	m.secrets[id] = aws.ToString(params.SecretString)
	return &secretsmanager.PutSecretValueOutput{}, nil
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	mock := newMockClient()
	mock.secrets["securestore/master_key"] = "a2V5"
	s := newWithClient(mock)

	got, err := s.Get(ctx, "master_key")
	require.NoError(t, err)
	assert.Equal(t, "a2V5", got)

	_, err = s.Get(ctx, "absent")
	require.ErrorIs(t, err, securestore.ErrKeyNotFound)
}

func TestGetEmptyValue(t *testing.T) {
	mock := newMockClient()
	mock.secrets["securestore/master_key"] = ""
	s := newWithClient(mock)

	_, err := s.Get(context.Background(), "master_key")
	require.ErrorIs(t, err, securestore.ErrKeyNotFound)
}

func TestSetCreatesMissingSecret(t *testing.T) {
	ctx := context.Background()
	mock := newMockClient()
	s := newWithClient(mock)

	require.NoError(t, s.Set(ctx, "master_key", "a2V5"))
	assert.Equal(t, 1, mock.puts)
	assert.Equal(t, 1, mock.creates)
	assert.Equal(t, "a2V5", mock.secrets["securestore/master_key"])
}

func TestSetUpdatesExistingSecret(t *testing.T) {
	ctx := context.Background()
	mock := newMockClient()
	mock.secrets["securestore/master_key"] = "b2xk"
	s := newWithClient(mock)

	require.NoError(t, s.Set(ctx, "master_key", "bmV3"))
	assert.Equal(t, 0, mock.creates)
	assert.Equal(t, "bmV3", mock.secrets["securestore/master_key"])
}
