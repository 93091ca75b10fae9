// Package objectstore_test tests the NATS artifact mirror.
package objectstore_test

import (
	"context"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-service/internal/objectstore"
)

// StartTestServer starts an in-memory NATS server for testing purposes.
func StartTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func TestArtifactMirror_UploadDownload(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	mirror, err := objectstore.New(jetstreamContext, "VOICE_ARTIFACTS")
	require.NoError(t, err)

	ctx := context.Background()
	key := "3f2c1d0e-artifact.wav"
	uploadData := []byte("RIFF fake wav payload")

	err = mirror.Upload(ctx, key, uploadData)
	require.NoError(t, err)

	downloadData, err := mirror.Download(ctx, key)
	require.NoError(t, err)

	require.Equal(t, uploadData, downloadData)
}

func TestArtifactMirror_BindExistingBucket(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	first, err := objectstore.New(jetstreamContext, "VOICE_ARTIFACTS_SHARED")
	require.NoError(t, err)

	err = first.Upload(context.Background(), "seed.wav", []byte("seed"))
	require.NoError(t, err)

	// A second construction binds to the existing bucket instead of failing.
	second, err := objectstore.New(jetstreamContext, "VOICE_ARTIFACTS_SHARED")
	require.NoError(t, err)

	data, err := second.Download(context.Background(), "seed.wav")
	require.NoError(t, err)
	require.Equal(t, []byte("seed"), data)
}

func TestArtifactMirror_DownloadMissingKey(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	mirror, err := objectstore.New(jetstreamContext, "VOICE_ARTIFACTS_EMPTY")
	require.NoError(t, err)

	_, err = mirror.Download(context.Background(), "no-such-object.wav")
	require.Error(t, err)
}
