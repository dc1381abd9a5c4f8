package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/presignd/config"
)

func TestWriteConfigFile_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := newFileConfig(initAnswers{
		AccountID:   " acct123 ",
		AccessKeyID: "AKIAINIT",
		SecretKey:   "init-secret",
		Bucket:      "videos",
	})
	require.NoError(t, writeConfigFile(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.Load([]string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "acct123", loaded.Storage.AccountID)
	assert.Equal(t, "AKIAINIT", loaded.Storage.AccessKeyID)
	assert.Equal(t, "init-secret", loaded.Storage.SecretKey)
	assert.Equal(t, "videos", loaded.Storage.Bucket)
	assert.Equal(t, "https://acct123.r2.cloudflarestorage.com", loaded.Storage.BucketRef().EndpointURL())
	assert.Equal(t, 600, loaded.Presign.TTL)
}

func TestWriteConfigFile_SecretFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeConfigFile(path, newFileConfig(initAnswers{
		Endpoint:    "http://localhost:9000/",
		AccessKeyID: "AKIAINIT",
		Bucket:      "videos",
	})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret_key")
	assert.NotContains(t, string(data), "account_id")

	_, err = config.Load([]string{path}, nil)
	require.Error(t, err, "secret is still required")

	t.Setenv("PRESIGND_STORAGE_SECRET_KEY", "from-env")
	loaded, err := config.Load([]string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", loaded.Storage.Endpoint)
}
