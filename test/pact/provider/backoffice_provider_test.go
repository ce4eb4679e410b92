//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	pacttest "github.com/storefront/backoffice/test/pact"

	carthttp "github.com/storefront/backoffice/internal/domains/cart/adapters/http"
	cartmemory "github.com/storefront/backoffice/internal/domains/cart/adapters/memory"
	cartdomain "github.com/storefront/backoffice/internal/domains/cart/domain"
	cataloghttp "github.com/storefront/backoffice/internal/domains/catalog/adapters/http"
	catalogmemory "github.com/storefront/backoffice/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/storefront/backoffice/internal/domains/catalog/domain"
	ordershttp "github.com/storefront/backoffice/internal/domains/orders/adapters/http"
	ordersmemory "github.com/storefront/backoffice/internal/domains/orders/adapters/memory"
	ordersobs "github.com/storefront/backoffice/internal/domains/orders/adapters/observability"
	ordersworkflows "github.com/storefront/backoffice/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/storefront/backoffice/internal/domains/orders/application"
	ordersports "github.com/storefront/backoffice/internal/domains/orders/ports"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBackofficeProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateCartReady: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedCart(t)
			}
			return nil, nil
		},
		pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedOrder(t)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp serves the API over swappable in-memory state so each
// provider state starts from a clean slate.
type contractProviderApp struct {
	mu      sync.Mutex
	router  http.Handler
	catalog *catalogmemory.Repository
	carts   *cartmemory.Repository
	service ordersports.Service
	server  *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset(t)
	app.server = httptest.NewServer(app)
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	router := a.router
	a.mu.Unlock()
	router.ServeHTTP(w, r)
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	catalogRepo := catalogmemory.NewRepository()
	cartRepo := cartmemory.NewRepository()
	orderRepo := ordersmemory.NewRepository(catalogRepo, catalogRepo, cartRepo)
	service := ordersobs.New(ordersapp.NewService(orderRepo, catalogRepo, cartRepo))
	workflows := ordersworkflows.NewInlineCheckoutWorkflows(service)

	router := gin.New()
	router.Use(gin.Recovery())
	ordershttp.NewHandler(service, workflows).RegisterRoutes(router)
	cataloghttp.NewHandler(catalogRepo).RegisterRoutes(router)
	carthttp.NewHandler(cartRepo).RegisterRoutes(router)

	a.mu.Lock()
	a.router = router
	a.catalog = catalogRepo
	a.carts = cartRepo
	a.service = service
	a.mu.Unlock()
}

func (a *contractProviderApp) seedCart(t testing.TB) {
	t.Helper()
	product, err := catalogdomain.NewProduct(1, "Pact Widget", decimal.RequireFromString("25.00"), decimal.RequireFromString("10"))
	require.NoError(t, err)
	_, err = a.catalog.Save(context.Background(), product)
	require.NoError(t, err)

	line, err := cartdomain.NewLine(pacttest.CheckoutUserID, 1, decimal.NewFromInt(2), "")
	require.NoError(t, err)
	_, err = a.carts.Add(context.Background(), line)
	require.NoError(t, err)
}

func (a *contractProviderApp) seedOrder(t testing.TB) {
	t.Helper()
	a.seedCart(t)
	order, err := a.service.Checkout(context.Background(), ordersports.CheckoutInput{UserID: pacttest.CheckoutUserID})
	require.NoError(t, err)
	require.Equal(t, pacttest.ExistingOrderID, order.ID, "first order after reset must take the contract id")
}
