package builder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shouni/go-slide-kit/internal/config"
	kitconfig "github.com/shouni/go-slide-kit/pkg/config"
	"github.com/shouni/go-slide-kit/pkg/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	return &config.Config{
		Kit:         kitconfig.DefaultConfig(),
		HTTPTimeout: config.DefaultHTTPTimeout,
		StoreDriver: driver,
		StoreDir:    t.TempDir(),
	}
}

func TestBuildAppContext_WithoutAPIKey(t *testing.T) {
	ctx := context.Background()
	for _, driver := range []string{config.DriverMemory, config.DriverFile, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			app, err := BuildAppContext(ctx, testConfig(t, driver), workflow.SlogNotifier{})
			require.NoError(t, err)
			defer app.Close()

			assert.Empty(t, app.Manager.Saved())

			_, err = app.Manager.Generate(ctx, "Quarterly Sales Report", "business")
			assert.ErrorIs(t, err, ErrMissingAPIKey)
		})
	}
}

func TestBuildStore_PostgresNeedsDSN(t *testing.T) {
	_, _, err := BuildStore(context.Background(), testConfig(t, config.DriverPostgres))
	assert.Error(t, err)
}

func TestInitializeImageGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("APIキーが無ければ生成時に ErrMissingAPIKey", func(t *testing.T) {
		gen, err := InitializeImageGenerator(ctx, testConfig(t, config.DriverMemory), nil)
		require.NoError(t, err)
		_, err = gen.GenerateImage(ctx, "p")
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("APIキーがあれば AssetReader は必須", func(t *testing.T) {
		cfg := testConfig(t, config.DriverMemory)
		cfg.Kit.GeminiAPIKey = "test-key"
		_, err := InitializeImageGenerator(ctx, cfg, nil)
		assert.ErrorContains(t, err, "AssetReader")
	})
}

func TestBuildAppContext_MissingPDFFont(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.PDFFontFile = filepath.Join(t.TempDir(), "missing.ttf")
	_, err := BuildAppContext(context.Background(), cfg, workflow.SlogNotifier{})
	assert.ErrorContains(t, err, "PDF フォント")
}
