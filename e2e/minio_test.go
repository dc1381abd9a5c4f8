package e2e_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sagarc03/presignd"
	"github.com/sagarc03/presignd/signer"
)

const (
	minioImage    = "minio/minio:RELEASE.2025-04-22T22-12-26Z"
	minioUser     = "minioadmin"
	minioPassword = "minioadmin-secret"
	minioRegion   = "us-east-1"
)

// startMinIO runs a MinIO container with an empty bucket and returns its endpoint.
func startMinIO(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        minioImage,
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
				"MINIO_REGION":        minioRegion,
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start minio container")

	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "http")
	require.NoError(t, err)

	admin, err := miniogo.New(strings.TrimPrefix(endpoint, "http://"), &miniogo.Options{
		Creds:  credentials.NewStaticV4(minioUser, minioPassword, ""),
		Secure: false,
		Region: minioRegion,
	})
	require.NoError(t, err)
	require.NoError(t, admin.MakeBucket(ctx, testBucket, miniogo.MakeBucketOptions{Region: minioRegion}))

	return endpoint
}

// TestE2E_MinIO checks that a real S3 implementation accepts the URLs and
// enforces their bindings.
func TestE2E_MinIO(t *testing.T) {
	endpoint := startMinIO(t)
	ctx := context.Background()

	for _, backend := range []string{signer.TypeAWSV4, signer.TypeMinIO} {
		t.Run(backend, func(t *testing.T) {
			s, err := signer.New(ctx, signer.Config{
				Type:         backend,
				Bucket:       presignd.Bucket{Name: testBucket, Endpoint: endpoint},
				Credential:   presignd.Credential{AccessKeyID: minioUser, SecretKey: minioPassword},
				Region:       minioRegion,
				UsePathStyle: true,
			})
			require.NoError(t, err)

			issuer, err := presignd.NewIssuer(s)
			require.NoError(t, err)

			key := "interop/" + backend + "/clip one+two.mp4"
			rt, err := issuer.IssuePutAndGet(ctx, key, "")
			require.NoError(t, err)

			payload := bytes.Repeat([]byte("minio"), 2048)

			req, err := http.NewRequestWithContext(ctx, http.MethodPut, rt.PutURL, bytes.NewReader(payload))
			require.NoError(t, err)
			req.Header.Set("Content-Type", rt.ContentType)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp, err = http.Get(rt.GetURL)
			require.NoError(t, err)
			got, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, payload, got)
			assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))

			req, err = http.NewRequestWithContext(ctx, http.MethodPut, rt.PutURL, strings.NewReader("x"))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "video/webm")
			resp, err = http.DefaultClient.Do(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)

			req, err = http.NewRequestWithContext(ctx, http.MethodDelete, rt.GetURL, http.NoBody)
			require.NoError(t, err)
			resp, err = http.DefaultClient.Do(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}
