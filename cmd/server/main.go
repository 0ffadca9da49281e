package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"

	"vetclinic/internal/api"
	"vetclinic/internal/auth"
	"vetclinic/internal/backend"
	"vetclinic/internal/repository"
	"vetclinic/internal/service"
	"vetclinic/internal/utils"
)

func main() {
	godotenv.Load()
	utils.InitializeLogger()
	defer utils.GetLogger().Sync()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	clinicAPIURL := os.Getenv("CLINIC_API_URL")
	if clinicAPIURL == "" {
		log.Fatal("CLINIC_API_URL not set")
	}
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	clinicClient := backend.NewClient(clinicAPIURL)

	mirrorRepo := repository.NewMirrorRepository(db)
	staffAuthRepo := repository.NewStaffAuthRepository(db)
	stripeRepo := repository.NewStripeRepository(db)
	jobRepo := repository.NewJobRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	senderSvc := service.NewSenderService()
	cartSvc := service.NewCartService(clinicClient, mirrorRepo)
	scheduleSvc := service.NewScheduleService(clinicClient, senderSvc)
	staffAuthSvc := service.NewStaffAuthService(staffAuthRepo)
	stripeSvc := service.NewStripeService(os.Getenv("STRIPE_SUCCESS_URL"), os.Getenv("STRIPE_CANCEL_URL"))
	checkoutSvc := service.NewCheckoutService(stripeSvc, stripeRepo, cartSvc)
	jobSvc := service.NewJobService(jobRepo)
	adminSvc := service.NewAdminService(adminRepo, jobSvc)

	cartHandler := api.NewCartHandler(cartSvc)
	sessionHandler := api.NewSessionHandler(cartSvc)
	appointmentHandler := api.NewAppointmentHandler(scheduleSvc)
	staffAuthHandler := api.NewStaffAuthHandler(staffAuthSvc)
	stripeHandler := api.NewStripeWebhookHandler(os.Getenv("STRIPE_WEBHOOK_SECRET"), checkoutSvc, stripeSvc)
	adminHandler := api.NewAdminHandler(adminSvc)

	r := mux.NewRouter()

	// Stripe calls the webhook directly; no gateway session involved.
	r.HandleFunc("/api/stripe/webhook", stripeHandler.HandleWebhook).Methods("POST")
	r.HandleFunc("/api/staff/login", staffAuthHandler.Login).Methods("POST")

	// Public endpoints
	public := r.PathPrefix("/api").Subrouter()
	public.Use(auth.SessionMiddleware)
	public.HandleFunc("/session/login", sessionHandler.Login).Methods("POST")
	public.HandleFunc("/session/logout", sessionHandler.Logout).Methods("POST")
	public.HandleFunc("/cart", cartHandler.GetCart).Methods("GET")
	public.HandleFunc("/cart", cartHandler.ClearCart).Methods("DELETE")
	public.HandleFunc("/cart/items", cartHandler.AddItem).Methods("POST")
	public.HandleFunc("/cart/items/{productId}", cartHandler.RemoveItem).Methods("DELETE")
	public.HandleFunc("/cart/summary", cartHandler.GetSummary).Methods("GET")
	public.HandleFunc("/veterinarians", appointmentHandler.ListVeterinarians).Methods("GET")
	public.HandleFunc("/appointments/slots", appointmentHandler.GetSlots).Methods("GET")
	public.HandleFunc("/appointments/slots/select", appointmentHandler.SelectSlot).Methods("POST")
	public.HandleFunc("/appointments", appointmentHandler.CreateAppointment).Methods("POST")
	public.HandleFunc("/checkout", stripeHandler.CreateCheckout).Methods("POST")
	public.HandleFunc("/checkout", stripeHandler.GetCheckoutBySessionIDHandler).Methods("GET")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.StaffAuthMiddleware)
	admin.HandleFunc("/staff", staffAuthHandler.CreateStaff).Methods("POST")
	admin.HandleFunc("/mirrors", adminHandler.ListMirrors).Methods("GET")
	admin.HandleFunc("/mirrors/purge", adminHandler.PurgeStaleMirrors).Methods("POST")

	c := cron.New()
	c.AddFunc("@daily", func() {
		if _, err := jobSvc.PurgeStaleGuestMirrors(72 * time.Hour); err != nil {
			utils.Sugar().Errorf("Cron Job: purge of stale guest carts failed: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{allowedOrigins}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler(r)))
}
