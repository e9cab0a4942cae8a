package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: rca
  password: secret
  name: rca
minio:
  endpoint: minio.internal:9000
  accessKey: minio
  secretKey: minio123
  bucketName: reports
  region: us-east-1
artifacts:
  root: /var/lib/rca/artifacts
ai:
  baseUrl: http://llm.internal/v1
  apiKey: sk-local
  model: llama-3.1-8b-instruct
weaviate:
  host: weaviate.internal:8080
  scheme: http
healing:
  enabled: true
notifications:
  slack:
    webhookUrl: https://hooks.slack.com/services/T/B/X
  gitlab:
    projectId: "42"
    token: glpat-secret
schedules:
  - name: nightly-payment-gateway
    cron: "0 0 3 * * *"
    tenant: acme
    target: payment-gateway
    alertThreshold: critical_cve
    notification: [slack_webhook]
auth:
  apiKeys:
    acme: key-acme
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "/var/lib/rca/artifacts", cfg.Artifacts.Root)
	assert.Equal(t, "llama-3.1-8b-instruct", cfg.AI.Model)
	assert.True(t, cfg.Healing.Enabled)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/X", cfg.Notifications.Slack.WebhookURL)
	assert.Equal(t, "42", cfg.Notifications.GitLab.ProjectID)
	require.Len(t, cfg.Schedules, 1)
	assert.Equal(t, "nightly-payment-gateway", cfg.Schedules[0].Name)
	assert.Equal(t, []string{"slack_webhook"}, cfg.Schedules[0].Notification)
	assert.Equal(t, "key-acme", cfg.Auth.APIKeys["acme"])
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "InfraSpec", cfg.Weaviate.Class)
	assert.Empty(t, cfg.Auth.APIKeys)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSNHelpers(t *testing.T) {
	var cfg Config
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = 3306
	cfg.Database.User = "rca"
	cfg.Database.Password = "secret"
	cfg.Database.Name = "rca"

	assert.Equal(t,
		"rca:secret@tcp(db.internal:3306)/rca?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())

	cfg.Database.Port = 5432
	assert.Equal(t,
		"host=db.internal port=5432 user=rca password=secret dbname=rca sslmode=disable",
		cfg.PostgresDSN())
}
