// SPDX-License-Identifier: MPL-2.0

package download

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/blocklaunch/blocklaunch/pkg/digest"
)

// checkTestcontainersAvailable reports whether a container provider can be
// reached. Provider detection panics on some hosts without an engine.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// TestRun_Integration downloads from a real HTTP server in a container,
// then verifies that a second run is satisfied from disk.
func TestRun_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping download integration test: container engine not available")
	}

	ctx := t.Context()
	dir := t.TempDir()
	payload := []byte("client jar contents\n")
	src := filepath.Join(dir, "client.jar")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatal(err)
	}
	sum := sha1.Sum(payload)

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nginx:1.27-alpine",
			ExposedPorts: []string{"80/tcp"},
			Files: []testcontainers.ContainerFile{{
				HostFilePath:      src,
				ContainerFilePath: "/usr/share/nginx/html/v1/client.jar",
				FileMode:          0o644,
			}},
			WaitingFor: wait.ForHTTP("/v1/client.jar").WithPort("80/tcp"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, c)
	if err != nil {
		t.Fatalf("starting nginx: %v", err)
	}

	endpoint, err := c.PortEndpoint(ctx, "80/tcp", "http")
	if err != nil {
		t.Fatal(err)
	}

	task := Task{
		Name:    "client.jar",
		Sources: []string{endpoint + "/missing.jar", endpoint + "/v1/client.jar"},
		Dest:    filepath.Join(dir, "versions", "1.0", "1.0.jar"),
		Digest:  digest.SHA1Hex(hex.EncodeToString(sum[:])),
		Size:    int64(len(payload)),
	}
	o := New(WithRetryPolicy(testPolicy()))

	outcomes := o.Run(ctx, []Task{task})
	if len(outcomes) != 1 || outcomes[0].Status != StatusDownloaded {
		t.Fatalf("first run: %+v", outcomes)
	}
	got, err := os.ReadFile(task.Dest)
	if err != nil || string(got) != string(payload) {
		t.Fatalf("downloaded file = %q, %v", got, err)
	}

	outcomes = o.Run(ctx, []Task{task})
	if outcomes[0].Status != StatusSatisfied {
		t.Errorf("second run status = %s, want satisfied", outcomes[0].Status)
	}
}
