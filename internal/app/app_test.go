package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogApp_StartStop(t *testing.T) {
	t.Parallel()

	app, err := NewCatalogApp(context.Background(),
		WithConfig(createValidTestConfig(t)),
		WithAddress("127.0.0.1:0"),
	)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	// give the listener a moment before shutting it down
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, app.Stop(5*time.Second))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestCatalogApp_StartFailsOnBadListener(t *testing.T) {
	t.Parallel()

	app, err := NewCatalogApp(context.Background(), WithConfig(createValidTestConfig(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	app.GetHTTPServer().Addr = "256.0.0.1:0"
	err = app.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server failed")
}
