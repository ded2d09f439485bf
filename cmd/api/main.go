package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-bff/graph"
	"storefront-bff/internal/app/storefront"
	"storefront-bff/internal/commerce"
	"storefront-bff/internal/config"
	"storefront-bff/internal/identity"
	"storefront-bff/internal/logging"
	"storefront-bff/internal/ocapi"
	"storefront-bff/internal/payment"
	"storefront-bff/internal/session"
	"storefront-bff/internal/shopperauth"
	httptransport "storefront-bff/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ordersID, ordersSecret := cfg.Commerce.OrdersClientID, cfg.Commerce.OrdersClientSecret
	if ordersID == "" {
		ordersID, ordersSecret = cfg.Commerce.AdminClientID, cfg.Commerce.AdminClientSecret
	}
	commerceClient := commerce.NewClient(commerce.Config{
		BaseURL:            cfg.Commerce.BaseURL,
		OrganizationID:     cfg.Commerce.OrganizationID,
		TenantID:           cfg.Commerce.TenantID,
		AccountManagerURL:  cfg.Commerce.AccountManagerURL,
		AdminClientID:      cfg.Commerce.AdminClientID,
		AdminClientSecret:  cfg.Commerce.AdminClientSecret,
		OrdersClientID:     ordersID,
		OrdersClientSecret: ordersSecret,
	})
	ocapiClient := ocapi.NewClient(ocapi.Config{
		BaseURL:           cfg.OCAPI.BaseURL,
		ClientID:          cfg.OCAPI.ClientID,
		ClientSecret:      cfg.OCAPI.ClientSecret,
		BMUser:            cfg.OCAPI.BMUser,
		BMPassword:        cfg.OCAPI.BMPassword,
		AccountManagerURL: cfg.Commerce.AccountManagerURL,
	})
	authClient := shopperauth.NewClient(
		cfg.Commerce.BaseURL,
		cfg.Commerce.OrganizationID,
		cfg.Commerce.ClientID,
		cfg.Commerce.ClientSecret,
	)

	sessions := identity.NewResolver(authClient)
	storefrontService := storefront.NewService(commerceClient, ocapiClient, authClient, sessions, storefront.Config{
		RedirectURL:                 cfg.Commerce.RedirectURL,
		PreferenceGroupID:           cfg.OCAPI.PreferenceGroupID,
		PreferenceGroupInstanceType: cfg.OCAPI.PreferenceGroupInstanceType,
		ContentAssetIDs:             cfg.OCAPI.ContentAssetIDs,
		PaymentMethodID:             cfg.Stripe.PaymentMethodID,
	})
	paymentService := payment.NewService(
		payment.NewStripeIntents(cfg.Stripe.SecretKey),
		commerceClient,
		cfg.Stripe.PaymentMethodID,
		cfg.Stripe.WebhookSecret,
	)

	schema := graph.NewSchema(&graph.Resolver{
		Storefront: storefrontService,
		Payments:   paymentService,
		Site:       graph.Site{ID: cfg.Commerce.SiteID, Locale: cfg.Commerce.Locale},
	})

	gqlSrv, err := graph.NewHandler(schema, cfg.IsDevelopment())
	if err != nil {
		logging.Fatal().Err(err).Msg("load graphql schema")
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Playground:     cfg.IsDevelopment(),
		GraphQL:        gqlSrv,
		Session: httptransport.SessionMiddleware{
			Store:    session.NewStore([]byte(cfg.Cookies.HashKey), session.OptionsFor(cfg.IsDevelopment())),
			Resolver: sessions,
		},
		Webhook: paymentService,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info().Str("addr", srv.Addr).Str("env", cfg.HTTP.Env).Msg("storefront api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown")
	}
}
