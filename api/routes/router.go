package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nino-0813/honma-ec-sub000/api/controllers"
	webhookcontrollers "github.com/nino-0813/honma-ec-sub000/api/controllers/webhooks"
	"github.com/nino-0813/honma-ec-sub000/api/middleware"
	"github.com/nino-0813/honma-ec-sub000/internal/address"
	"github.com/nino-0813/honma-ec-sub000/internal/cart"
	checkoutsvc "github.com/nino-0813/honma-ec-sub000/internal/checkout"
	"github.com/nino-0813/honma-ec-sub000/internal/orders"
	"github.com/nino-0813/honma-ec-sub000/internal/products"
	"github.com/nino-0813/honma-ec-sub000/internal/shipping"
	stripewh "github.com/nino-0813/honma-ec-sub000/internal/webhooks/stripe"
	"github.com/nino-0813/honma-ec-sub000/pkg/config"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
	"github.com/nino-0813/honma-ec-sub000/pkg/stripe"
)

// RouterParams collects everything the HTTP surface needs. Every field is
// required unless noted.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Cache    controllers.Pinger
	Registry *prometheus.Registry

	Products      products.Repository
	Shipping      shipping.Repository
	Orders        orders.Repository
	CartStore     *cart.Store
	Checkout      checkoutsvc.Service
	Address       address.Service
	StripeClient  *stripe.Client
	StripeWebhook *stripewh.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, p.DB, p.Cache, logg))
	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhook, p.StripeClient, logg))
	})

	// Storefront surface. Anonymous sessions are first-class; a bearer token
	// only pins the cart to the account.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.Auth, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.Products, logg))
			r.Get("/{productID}", controllers.GetProduct(p.Products, logg))
			r.Post("/{productID}/availability", controllers.CheckAvailability(p.Products, logg))
		})

		r.Get("/address", controllers.LookupAddress(p.Address, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(p.CartStore, logg))
			r.Post("/items", controllers.AddCartLine(p.CartStore, p.Products, logg))
			r.Put("/items", controllers.SetCartLineQty(p.CartStore, logg))
			r.Delete("/", controllers.ClearCart(p.CartStore, logg))
			r.Post("/restore", controllers.RestoreCart(p.CartStore, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/quote", controllers.QuoteCart(p.CartStore, p.Checkout, logg))
			r.Post("/payment-intent", controllers.CreatePaymentIntent(p.CartStore, p.Checkout, cfg.Stripe.Currency, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(p.Products, logg))
			r.Put("/{productID}", controllers.AdminUpdateProduct(p.Products, logg))
			r.Delete("/{productID}", controllers.AdminDeleteProduct(p.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(p.Orders, logg))
			r.Get("/{orderID}", controllers.AdminGetOrder(p.Orders, logg))
			r.Patch("/{orderID}/status", controllers.AdminUpdateOrderStatus(p.Orders, logg))
		})

		r.Route("/shipping-methods", func(r chi.Router) {
			r.Get("/", controllers.AdminListShippingMethods(p.Shipping, logg))
			r.Post("/", controllers.AdminCreateShippingMethod(p.Shipping, logg))
			r.Put("/{methodID}", controllers.AdminUpdateShippingMethod(p.Shipping, logg))
			r.Delete("/{methodID}", controllers.AdminDeleteShippingMethod(p.Shipping, logg))
			r.Put("/{methodID}/products", controllers.AdminLinkShippingProducts(p.Shipping, logg))
		})
	})

	return r
}
