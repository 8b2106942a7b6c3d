package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	approvalapp "haulstream/internal/approvals/application"
	approvalrepo "haulstream/internal/approvals/infrastructure/postgres"
	approvalinterfaces "haulstream/internal/approvals/interfaces"
	"haulstream/internal/audit"
	"haulstream/internal/auth"
	catalogrepo "haulstream/internal/catalog/infrastructure/postgres"
	"haulstream/internal/notify"
	"haulstream/internal/observability/metrics"
	orderapp "haulstream/internal/order/application"
	orderrepo "haulstream/internal/order/infrastructure/postgres"
	orderinterfaces "haulstream/internal/order/interfaces"
	"haulstream/internal/renewal"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	clock := orderapp.SystemClock{}

	orderRepo := orderrepo.NewOrderRepository(db)
	lineItemRepo := orderrepo.NewLineItemRepository(db)
	paymentRepo := orderrepo.NewPaymentRepository(db)
	offeringRepo := catalogrepo.NewOfferingRepository(db)
	approvalRepo := approvalrepo.NewApprovalRepository(db)
	policyRepo := approvalrepo.NewPolicyRepository(db)

	var notifier orderapp.Notifier = notify.NewLogNotifier(logger)
	if cfg.WebhookURL != "" {
		notifier = notify.NewMultiNotifier(
			notify.NewLogNotifier(logger),
			notify.NewWebhookNotifier(cfg.WebhookURL, logger),
		)
	}

	pricingService, err := orderapp.NewPricingService(orderRepo, lineItemRepo, offeringRepo, clock, logger)
	if err != nil {
		logger.Fatalf("pricing service error: %v", err)
	}
	gate, err := approvalapp.NewGate(policyRepo, approvalRepo, orderRepo, orderRepo, clock, logger)
	if err != nil {
		logger.Fatalf("policy gate error: %v", err)
	}
	lifecycleService, err := orderapp.NewLifecycleService(orderRepo, pricingService, gate, approvalRepo, paymentRepo, notifier, clock, logger)
	if err != nil {
		logger.Fatalf("lifecycle service error: %v", err)
	}
	policyService, err := approvalapp.NewPolicyService(policyRepo, logger)
	if err != nil {
		logger.Fatalf("policy service error: %v", err)
	}

	renewalCfg, err := renewal.LoadConfig()
	if err != nil {
		logger.Fatalf("renewal config error: %v", err)
	}
	if renewalCfg.Enabled {
		renewalRunner, err := renewal.NewRunner(orderRepo, lifecycleService, renewalCfg, logger)
		if err != nil {
			logger.Fatalf("renewal runner error: %v", err)
		}
		renewalScheduler := renewal.NewScheduler(renewalRunner, renewalCfg.DailyAt, logger)
		go renewalScheduler.Start(context.Background())
	}

	auditRepo := audit.NewRepository(db)

	orderHandler := orderinterfaces.NewOrderHandler(lifecycleService, pricingService, orderRepo, lineItemRepo, auditRepo, logger)
	approvalHandler := approvalinterfaces.NewApprovalHandler(lifecycleService, approvalRepo, auditRepo, logger)
	policyHandler := approvalinterfaces.NewPolicyHandler(policyService, auditRepo, logger)

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/orders", orderHandler)
	mux.Handle("/api/v1/orders/", orderHandler)
	mux.Handle("/api/v1/approvals", approvalHandler)
	mux.Handle("/api/v1/approvals/", approvalHandler)
	mux.Handle("/api/v1/policies", policyHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
	WebhookURL  string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		WebhookURL:  getenvDefault("ORDER_WEBHOOK_URL", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
