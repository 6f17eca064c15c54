// Package secrets resolves connection strings stored in AWS Secrets Manager.
package secrets

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/goccy/go-json"
)

// SecretsAPI is the subset of the Secrets Manager client used by Resolver.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, input *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver reads secrets by ARN or name.
type Resolver struct {
	client SecretsAPI
}

// NewResolver creates a resolver. A nil client loads the default AWS
// configuration.
func NewResolver(ctx context.Context, client SecretsAPI) (*Resolver, error) {
	if client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client = secretsmanager.NewFromConfig(cfg)
	}
	return &Resolver{client: client}, nil
}

// String returns the secret's string value.
func (r *Resolver) String(ctx context.Context, id string) (string, error) {
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", fmt.Errorf("getting secret %s: %w", id, err)
	}
	if out.SecretString != nil {
		return *out.SecretString, nil
	}
	if out.SecretBinary != nil {
		return string(out.SecretBinary), nil
	}
	return "", fmt.Errorf("secret %s has no value", id)
}

// rdsSecret is the JSON layout RDS writes for managed database credentials.
type rdsSecret struct {
	DSN      string          `json:"dsn"`
	Username string          `json:"username"`
	Password string          `json:"password"`
	Host     string          `json:"host"`
	Port     json.RawMessage `json:"port"`
	DBName   string          `json:"dbname"`
}

// PostgresDSN resolves a Postgres connection string. The secret may hold the
// DSN itself, a JSON object with a "dsn" field, or RDS-style credentials.
func (r *Resolver) PostgresDSN(ctx context.Context, id string) (string, error) {
	raw, err := r.String(ctx, id)
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return raw, nil
	}

	var s rdsSecret
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return "", fmt.Errorf("parsing secret %s: %w", id, err)
	}
	if s.DSN != "" {
		return s.DSN, nil
	}
	if s.Host == "" || s.Username == "" {
		return "", fmt.Errorf("secret %s has neither dsn nor host and username", id)
	}

	port := strings.Trim(string(s.Port), `"`)
	if port == "" {
		port = "5432"
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("secret %s has invalid port %q", id, port)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.Username, s.Password),
		Host:   s.Host + ":" + port,
		Path:   "/" + s.DBName,
	}
	return u.String(), nil
}
