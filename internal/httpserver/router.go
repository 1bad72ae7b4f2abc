package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"biomarket/internal/domain"
	clientsvc "biomarket/internal/service/client"
	offersvc "biomarket/internal/service/offer"
	productsvc "biomarket/internal/service/product"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ProductService is the product surface the handlers need.
type ProductService interface {
	ListMine(ctx context.Context, caller domain.Principal) ([]domain.Product, error)
	ByID(ctx context.Context, id int64) (*domain.Product, error)
	ByName(ctx context.Context, name string) ([]domain.Product, error)
	Update(ctx context.Context, caller domain.Principal, id int64, in productsvc.Input) (*domain.Product, error)
	Delete(ctx context.Context, caller domain.Principal, id int64) (*domain.Product, error)
	Create(ctx context.Context, caller domain.Principal, in productsvc.Input) (int64, error)
}

type OfferService interface {
	ListAvailable(ctx context.Context) ([]domain.Offer, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.Offer, error)
	Get(ctx context.Context, id int64) (*domain.Offer, error)
	Create(ctx context.Context, caller domain.Principal, in offersvc.Input) (*domain.Offer, error)
	Buy(ctx context.Context, caller domain.Principal, id int64) (*domain.Offer, error)
	Delete(ctx context.Context, caller domain.Principal, id int64) (*domain.Offer, error)
	ListPurchases(ctx context.Context, caller domain.Principal) ([]domain.Offer, error)
}

type FarmService interface {
	Register(ctx context.Context, caller domain.Principal, name string) (*domain.Farm, error)
	Mine(ctx context.Context, caller domain.Principal) (*domain.Farm, error)
}

type ClientService interface {
	Register(ctx context.Context, caller domain.Principal, in clientsvc.RegisterInput) (*domain.Client, error)
	Me(ctx context.Context, caller domain.Principal) (*domain.Client, error)
}

// TokenParser turns a bearer token into the caller's principal.
type TokenParser interface {
	Parse(token string) (domain.Principal, error)
}

// Deps groups the collaborators the router needs.
type Deps struct {
	Store          Pinger
	Tokens         TokenParser
	ProductSvc     ProductService
	OfferSvc       OfferService
	FarmSvc        FarmService
	ClientSvc      ClientService
	AllowedOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if deps.Tokens == nil {
		return nil, errors.New("token parser is required")
	}
	if deps.ProductSvc == nil || deps.OfferSvc == nil || deps.FarmSvc == nil || deps.ClientSvc == nil {
		return nil, errors.New("all services are required")
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		requestIDMiddleware(),
		gin.LoggerWithWriter(logger.Writer()),
		gin.Recovery(),
		cors.New(corsConfig(deps.AllowedOrigins)),
	)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Store))

	h := &handlers{
		logger:   logger,
		products: deps.ProductSvc,
		offers:   deps.OfferSvc,
		farms:    deps.FarmSvc,
		clients:  deps.ClientSvc,
	}

	api := router.Group("/api", principalMiddleware(deps.Tokens, logger))

	products := api.Group("/products")
	products.GET("/mine", h.listMyProducts)
	products.GET("/by-name/:name", h.productsByName)
	products.GET("/:id", h.productByID)
	products.GET("/:id/offers", h.offersByProduct)
	products.POST("", h.createProduct)
	products.PUT("/:id", h.updateProduct)
	products.PUT("/:id/delete", h.deleteProduct)

	offers := api.Group("/offers")
	offers.GET("", h.availableOffers)
	offers.GET("/purchased", h.purchasedOffers)
	offers.GET("/:id", h.offerByID)
	offers.POST("", h.createOffer)
	offers.PUT("/:id/buy", h.buyOffer)
	offers.PUT("/:id/delete", h.deleteOffer)

	farms := api.Group("/farms")
	farms.POST("", h.registerFarm)
	farms.GET("/mine", h.myFarm)

	clients := api.Group("/clients")
	clients.POST("", h.registerClient)
	clients.GET("/me", h.me)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

type handlers struct {
	logger   *log.Logger
	products ProductService
	offers   OfferService
	farms    FarmService
	clients  ClientService
}
