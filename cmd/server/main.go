package main

import (
	"context"
	"flag"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tenant-auth/auth/auth"
	"github.com/tenant-auth/auth/auth/authz"
	"github.com/tenant-auth/auth/config"
)

func main() {
	var (
		configFile string
		addr       string
		debug      bool

		cert    string
		certKey string
	)

	flag.StringVar(&configFile, "config", "config.yaml", "Configuration file")
	flag.StringVar(&addr, "addr", "localhost:8080", "Address to listen on")
	flag.BoolVar(&debug, "debug", false, "Debug mode")

	flag.StringVar(&cert, "tlscert", "", "Certificate file for TLS")
	flag.StringVar(&certKey, "tlskey", "", "Certificate key for TLS")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}

	if debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
	}

	defer logger.Sync()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Sugar().Fatalf("Error loading configuration: %v", err)
	}

	err = cfg.Validate()
	if err != nil {
		logger.Sugar().Fatalf("Invalid configuration: %v", err)
	}

	codec, err := cfg.Issuer.Config.CreateTokenCodec(logger.Named("token"))
	if err != nil {
		logger.Sugar().Fatalf("Error creating token codec: %v", err)
	}

	store, err := cfg.CredentialStore.Config.CreateCredentialStore(context.Background(), logger.Named("store"))
	if err != nil {
		logger.Sugar().Fatalf("Error creating credential store: %v", err)
	}

	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	registry, err := cfg.CreatePolicyRegistry(logger.Named("authz"))
	if err != nil {
		logger.Sugar().Fatalf("Error registering policies: %v", err)
	}

	requireUser, err := authz.RequirePolicy(registry, auth.UserPolicy, codec, logger.Named("authz"))
	if err != nil {
		logger.Sugar().Fatalf("Error creating policy middleware: %v", err)
	}

	service := auth.TokenServiceImpl{
		CredentialStore: store,
		TokenCodec:      codec,
		RoleMatchMode:   cfg.RoleMatchMode(),
		DefaultTenantID: cfg.DefaultTenantID,
		Logger:          logger,
	}

	server := auth.TokenServer{
		Service: service,
		Logger:  logger,
	}

	if health, ok := store.(auth.HealthChecker); ok {
		server.Health = health
	}

	router := mux.NewRouter()
	router.Path("/healthz").Methods("GET").HandlerFunc(server.HealthHandler)
	router.Path("/auth/login").Methods("POST").HandlerFunc(server.LoginHandler)
	router.Path("/auth/validate-role").Methods("POST").HandlerFunc(server.ValidateRoleHandler)
	router.Path("/auth/me").Methods("GET").Handler(requireUser(http.HandlerFunc(server.MeHandler)))

	logger.Info("listening", zap.String("addr", addr), zap.Bool("tls", cert != ""))

	if cert == "" {
		err = http.ListenAndServe(addr, router)
	} else if certKey == "" {
		logger.Sugar().Fatalf("Must provide certficate (-tlscert) and key (-tlskey)")
	} else {
		err = http.ListenAndServeTLS(addr, cert, certKey, router)
	}

	if err != nil {
		logger.Sugar().Infof("Error serving: %v", err)
	}
}
