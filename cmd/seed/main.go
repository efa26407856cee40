package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"polykitchen/internal/backend"
	"polykitchen/internal/catalog"
	"polykitchen/internal/config"
	"polykitchen/internal/endpoint"
	"polykitchen/internal/logger"
	adminsvc "polykitchen/internal/service/admin"
	"polykitchen/internal/seed"
)

func main() {
	var username, password string
	flag.StringVar(&username, "user", os.Getenv("ADMIN_USERNAME"), "Admin username")
	flag.StringVar(&password, "password", os.Getenv("ADMIN_PASSWORD"), "Admin password")
	flag.Parse()

	if username == "" || password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New("seed", logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()
	client, cred := adminClient(ctx, cfg, log, username, password)

	mock, err := catalog.NewMock()
	if err != nil {
		log.Fatalf("load mock catalog: %v", err)
	}
	svc := adminsvc.New(client, "", log)
	res, err := seed.Apply(ctx, mock, svc.Categories, svc.Dishes, cred, log)
	if err != nil {
		log.Fatalf("seed apply: %v", err)
	}
	log.WithFields(logrus.Fields{"categories": res.Categories, "dishes": res.Dishes}).Info("seed applied")
}

func adminClient(ctx context.Context, cfg config.Config, log *logrus.Logger, username, password string) (*backend.Client, backend.Credentials) {
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout()}
	baseURL := endpoint.New(endpoint.Options{
		ConfiguredURL: cfg.APIURL,
		Port:          cfg.APIPort,
		DiscoveryURL:  cfg.IPEchoURL,
		HTTPClient:    httpClient,
		Logger:        log,
	}).Resolve(ctx, endpoint.PageContext{Protocol: cfg.PublicProtocol, Hostname: cfg.PublicHostname})

	client := backend.New(baseURL, httpClient, log)
	login, err := client.Login(ctx, username, password)
	if err != nil {
		log.Fatalf("admin login: %v", err)
	}
	return client, backend.Credentials{Token: login.Token}
}
