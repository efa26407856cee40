package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"polykitchen/internal/backend"
	"polykitchen/internal/config"
	"polykitchen/internal/endpoint"
	"polykitchen/internal/importer"
	"polykitchen/internal/logger"
	adminsvc "polykitchen/internal/service/admin"
)

func main() {
	var filePath, username, password string
	flag.StringVar(&filePath, "file", "", "Path to the dish CSV file")
	flag.StringVar(&username, "user", os.Getenv("ADMIN_USERNAME"), "Admin username")
	flag.StringVar(&password, "password", os.Getenv("ADMIN_PASSWORD"), "Admin password")
	flag.Parse()

	if filePath == "" || username == "" || password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New("importer", logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

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

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	dishes := adminsvc.New(client, baseURL, log).Dishes
	imp := importer.NewCSVImporter(f, dishes, backend.Credentials{Token: login.Token})

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatalf("import failed after %d dishes: %v", count, err)
	}

	fmt.Printf("Imported %d dishes into %s in %s\n", count, baseURL, time.Since(start).Truncate(time.Millisecond))
}
