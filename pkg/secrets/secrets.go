// Package secrets resolves named database credentials.
package secrets

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a secret does not exist.
var ErrNotFound = errors.New("secret not found")

// Credentials are the connection parameters stored in a secret.
type Credentials struct {
	Host     string `json:"host"`
	Port     Port   `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
}

// Port accepts both numeric and string JSON values.
type Port int

// UnmarshalJSON implements json.Unmarshaler for Port
func (p *Port) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.Wrapf(err, "invalid port %s", string(data))
	}
	*p = Port(n)
	return nil
}

// Validate checks that the credentials can be used to connect.
func (c *Credentials) Validate() error {
	if c.Host == "" {
		return errors.New("credentials: host is required")
	}
	if c.Username == "" {
		return errors.New("credentials: username is required")
	}
	return nil
}

// DSN returns the go-sql-driver/mysql data source name for the credentials.
func (c *Credentials) DSN(timeout time.Duration) string {
	port := int(c.Port)
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(port))
	cfg.DBName = c.DBName
	cfg.Timeout = timeout
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ParseCredentials decodes a secret payload.
func ParseCredentials(payload string) (*Credentials, error) {
	var c Credentials
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, errors.Wrap(err, "secret payload is not valid credentials JSON")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Resolver resolves a secret name to credentials.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*Credentials, error)
}

// SecretsManagerAPI is the subset of the Secrets Manager client the resolver uses.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerResolver reads credentials from AWS Secrets Manager.
type SecretsManagerResolver struct {
	client SecretsManagerAPI
}

// NewSecretsManagerResolver builds a resolver from the default AWS credential chain.
func NewSecretsManagerResolver(ctx context.Context, region string) (*SecretsManagerResolver, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}
	return &SecretsManagerResolver{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// NewSecretsManagerResolverWithClient builds a resolver around an existing client.
func NewSecretsManagerResolverWithClient(client SecretsManagerAPI) *SecretsManagerResolver {
	return &SecretsManagerResolver{client: client}
}

// Resolve implements Resolver.
func (r *SecretsManagerResolver) Resolve(ctx context.Context, name string) (*Credentials, error) {
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, errors.Wrapf(ErrNotFound, "%s", name)
		}
		return nil, errors.Wrapf(err, "failed to read secret %s", name)
	}

	payload := aws.ToString(out.SecretString)
	if payload == "" && len(out.SecretBinary) > 0 {
		payload = string(out.SecretBinary)
	}
	creds, err := ParseCredentials(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "secret %s", name)
	}
	return creds, nil
}

// StaticResolver serves credentials from memory.
type StaticResolver map[string]*Credentials

// Resolve implements Resolver.
func (r StaticResolver) Resolve(_ context.Context, name string) (*Credentials, error) {
	creds, ok := r[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	return creds, nil
}
