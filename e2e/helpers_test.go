package e2e_test

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testAccessKey = "AKIAE2ETEST"
	testSecretKey = "e2e-secret-key"
	testBucket    = "videos"
)

var (
	binaryPath     string
	binaryBuildErr error
	binaryOnce     sync.Once
	sharedTempDir  string
)

// TestMain sets up and tears down shared test resources.
func TestMain(m *testing.M) {
	var err error
	sharedTempDir, err = os.MkdirTemp("", "presignd-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = os.RemoveAll(sharedTempDir)

	os.Exit(code)
}

// StackConfig describes a devstore plus an API server signing for it.
type StackConfig struct {
	Signer       string // awsv4, minio
	APIPort      int
	DevstorePort int
	StoragePath  string
	DBDSN        string
	TTL          int
}

// buildBinary compiles the presignd binary once per test run.
func buildBinary(t *testing.T) string {
	t.Helper()

	binaryOnce.Do(func() {
		binaryPath = filepath.Join(sharedTempDir, "presignd")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/presignd")
		cmd.Dir = getProjectRoot(t)
		output, err := cmd.CombinedOutput()
		if err != nil {
			binaryBuildErr = fmt.Errorf("build binary: %w\nOutput: %s", err, output)
			return
		}
	})

	if binaryBuildErr != nil {
		t.Fatalf("failed to build binary: %v", binaryBuildErr)
	}

	return binaryPath
}

// getProjectRoot returns the directory holding go.mod.
func getProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// createConfigFile writes a config shared by the API server and the devstore.
func createConfigFile(t *testing.T, cfg StackConfig) string {
	t.Helper()

	if cfg.Signer == "" {
		cfg.Signer = "awsv4"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 600
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `server:
  port: %d
  shutdown_timeout: 5s

storage:
  access_key_id: %s
  secret_key: %s
  bucket: %s
  endpoint: "http://127.0.0.1:%d"
  signer: %s
  use_path_style: true

presign:
  ttl: %d

devstore:
  port: %d
  storage_path: "%s"
  db_dsn: "%s"

log:
  level: error
`,
		cfg.APIPort,
		testAccessKey,
		testSecretKey,
		testBucket,
		cfg.DevstorePort,
		cfg.Signer,
		cfg.TTL,
		cfg.DevstorePort,
		cfg.StoragePath,
		cfg.DBDSN,
	)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configPath, []byte(sb.String()), 0o600)
	require.NoError(t, err, "write config file")

	return configPath
}

// startCommand runs the binary in the background until the test ends.
func startCommand(t *testing.T, readyURL string, args ...string) {
	t.Helper()

	cmd := exec.Command(buildBinary(t), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	require.NoError(t, cmd.Start(), "start %v", args)

	t.Cleanup(func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
		}
	})

	waitForServer(t, readyURL, 10*time.Second)
}

// startStack starts the devstore and the API server. It returns the API base URL.
func startStack(t *testing.T, cfg StackConfig) (apiURL, configPath string) {
	t.Helper()

	if cfg.APIPort == 0 {
		cfg.APIPort = getOpenPort(t)
	}
	if cfg.DevstorePort == 0 {
		cfg.DevstorePort = getOpenPort(t)
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = t.TempDir()
	}
	if cfg.DBDSN == "" {
		cfg.DBDSN = filepath.Join(t.TempDir(), "devstore.db")
	}

	configPath = createConfigFile(t, cfg)

	startCommand(t, fmt.Sprintf("http://127.0.0.1:%d/", cfg.DevstorePort), "devstore", "--config", configPath)

	apiURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.APIPort)
	startCommand(t, apiURL+"/healthz", "serve", "--config", configPath)

	return apiURL, configPath
}

// waitForServer polls url until it answers or times out.
func waitForServer(t *testing.T, url string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server at %s failed to start within %v", url, timeout)
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "find open port")

	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close(), "close port")

	return port
}
