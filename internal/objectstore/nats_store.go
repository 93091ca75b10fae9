// Package objectstore provides a NATS JetStream implementation of the
// core.ObjectMirror interface, used to mirror published voice artifacts into
// a durable bucket when a deployment opts into remote storage.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ArtifactMirror mirrors published artifacts into a NATS object store bucket.
type ArtifactMirror struct {
	bucket string
	store  nats.ObjectStore
}

// New creates the artifact bucket if needed and returns an ArtifactMirror.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*ArtifactMirror, error) {
	// Create-first: the common case on a fresh deployment.
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Published voice artifacts (%s).", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf("failed to create artifact bucket '%s': %w", bucketName, err)
		}

		store, err = jetstreamContext.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to artifact bucket '%s': %w", bucketName, err)
		}
	}

	return &ArtifactMirror{
		bucket: bucketName,
		store:  store,
	}, nil
}

// Upload stores a published artifact under its UUID name.
func (m *ArtifactMirror) Upload(_ context.Context, key string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := m.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, reader)
	if err != nil {
		return fmt.Errorf("failed to put artifact '%s' to bucket '%s': %w", key, m.bucket, err)
	}

	return nil
}

// Download retrieves a mirrored artifact by its UUID name.
func (m *ArtifactMirror) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := m.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact '%s' from bucket '%s': %w", key, m.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read artifact '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close artifact '%s': %w", key, closeErr)
	}

	return data, nil
}
