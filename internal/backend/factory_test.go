package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/config"
	"spendwise/internal/core"
	"spendwise/internal/log"
)

func testFactory() Factory {
	return NewFactory(log.New(log.Config{Output: io.Discard}))
}

func TestCreateStore_MemorySeeded(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[
		{"description":"Coffee","amount":3.5,"category":"Food","date":"2024-03-01","is_necessary":false}
	]`), 0o644))

	res, err := testFactory().CreateStore(context.Background(), Config{Type: MemoryBackend, SeedFile: seed})
	require.NoError(t, err)

	expenses, err := res.Store.ListExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Coffee", expenses[0].Description)
	assert.NoError(t, res.Cleanup())
}

func TestCreateStore_Remote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"expenses":[]}`)
	}))
	defer ts.Close()

	res, err := testFactory().CreateStore(context.Background(), Config{Type: RemoteBackend, StoreURL: ts.URL, StoreTimeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, res.Store)
	assert.Nil(t, res.Cleanup)
}

func TestCreateStore_Invalid(t *testing.T) {
	_, err := testFactory().CreateStore(context.Background(), Config{Type: "sheets"})
	assert.Error(t, err)

	_, err = testFactory().CreateStore(context.Background(), Config{Type: RemoteBackend})
	assert.Error(t, err)
}

func TestCreateRepository_Memory(t *testing.T) {
	ctx := context.Background()
	res, err := testFactory().CreateRepository(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	defer res.Cleanup()

	_, err = res.Service.CreateExpense(ctx, core.ExpenseDraft{
		Description: "Bus",
		Amount:      core.MoneyFromCents(220),
		Category:    core.CategoryTransport,
		Date:        core.NewDate(2024, 3, 2),
		Necessary:   true,
	})
	require.NoError(t, err)

	expenses, err := res.Service.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
}

func TestCreateRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	res, err := testFactory().CreateRepository(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "spendwise.db"),
	})
	require.NoError(t, err)
	defer res.Cleanup()

	require.NoError(t, res.Service.Ping(ctx))
}

func TestConfigFromApp(t *testing.T) {
	app := &config.Config{
		StoreBackend:      "remote",
		StoreURL:          "http://store:5000",
		StoreTimeout:      5 * time.Second,
		RepositoryBackend: "sqlite",
		SQLiteDBPath:      "/tmp/x.db",
		AMQPURL:           "amqp://localhost:5672/",
		AMQPExchange:      "spendwise",
		AMQPQueue:         "mirror_expenses",
	}

	sc, err := StoreConfig(app)
	require.NoError(t, err)
	assert.Equal(t, RemoteBackend, sc.Type)
	assert.Equal(t, "http://store:5000", sc.StoreURL)
	assert.Empty(t, sc.AMQPURL)

	rc, err := RepositoryConfig(app)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, rc.Type)
	assert.Equal(t, "mirror_expenses", rc.AMQPQueue)

	app.StoreBackend = "sqlite"
	_, err = StoreConfig(app)
	assert.Error(t, err)

	app.RepositoryBackend = "remote"
	_, err = RepositoryConfig(app)
	assert.Error(t, err)

	_, err = StoreConfig(nil)
	assert.Error(t, err)
}
