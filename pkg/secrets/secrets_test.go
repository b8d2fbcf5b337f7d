package secrets

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretsManager struct {
	secrets map[string]string
}

func (f *fakeSecretsManager) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	payload, ok := f.secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("Secrets Manager can't find the specified secret.")}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(payload)}, nil
}

func TestSecretsManagerResolver(t *testing.T) {
	resolver := NewSecretsManagerResolverWithClient(&fakeSecretsManager{secrets: map[string]string{
		"prod/app":    `{"host":"db.internal","port":3307,"username":"app","password":"s3cret","dbname":"shop"}`,
		"prod/str":    `{"host":"db.internal","port":"3308","username":"app","password":"x","dbname":"shop"}`,
		"prod/bad":    `not json`,
		"prod/nohost": `{"username":"app"}`,
	}})
	ctx := context.Background()

	tests := []struct {
		name     string
		secret   string
		wantPort Port
		wantErr  error
		errMsg   string
	}{
		{name: "numeric port", secret: "prod/app", wantPort: 3307},
		{name: "string port", secret: "prod/str", wantPort: 3308},
		{name: "missing secret", secret: "prod/none", wantErr: ErrNotFound},
		{name: "invalid payload", secret: "prod/bad", errMsg: "not valid credentials JSON"},
		{name: "missing host", secret: "prod/nohost", errMsg: "host is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := resolver.Resolve(ctx, tt.secret)
			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantPort, creds.Port)
				assert.Equal(t, "shop", creds.DBName)
			}
		})
	}
}

func TestCredentialsDSN(t *testing.T) {
	creds := &Credentials{Host: "db.internal", Username: "app", Password: "p@ss", DBName: "shop"}
	dsn := creds.DSN(5 * time.Second)
	assert.Contains(t, dsn, "app:p@ss@tcp(db.internal:3306)/shop")
	assert.Contains(t, dsn, "timeout=5s")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestStaticResolver(t *testing.T) {
	r := StaticResolver{"local": {Host: "127.0.0.1", Username: "root"}}
	creds, err := r.Resolve(context.Background(), "local")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", creds.Host)

	_, err = r.Resolve(context.Background(), "other")
	assert.True(t, errors.Is(err, ErrNotFound))
}
