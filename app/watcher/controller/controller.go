package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"

	"github.com/canopy-network/stakewatch/app/watcher/types"
	"github.com/canopy-network/stakewatch/pkg/utils"
)

type Controller struct {
	App *types.App
	// AdminToken authorizes API clients via the Authorization header.
	AdminToken string
	// AuthUser / AuthHash back the password login.
	AuthUser  string
	AuthHash  []byte
	JWTSecret []byte
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	adminToken := utils.Env("ADMIN_TOKEN", "devtoken")
	adminUser := utils.Env("ADMIN_USER", "admin")
	adminPass := utils.Env("ADMIN_PASSWORD", "admin")
	jwtSecret := []byte(utils.Env("JWT_SECRET", "change-me-please"))

	phash, _ := utils.HashOrRead(adminPass)

	return &Controller{
		App:        app,
		AdminToken: adminToken,
		AuthUser:   adminUser,
		AuthHash:   phash,
		JWTSecret:  jwtSecret,
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Development: Echo back the origin to allow credentials with any origin
		// TODO: Restrict this in production to specific domains
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodPut+", "+http.MethodPatch+", "+http.MethodDelete+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	// public probes
	r.HandleFunc("/healthz", c.HandleLiveness).Methods(http.MethodGet)
	r.HandleFunc("/readyz", c.HandleReadiness).Methods(http.MethodGet)

	// Login/Logout
	r.HandleFunc("/v1/auth/login", c.HandleLogin).Methods(http.MethodPost)
	r.HandleFunc("/v1/auth/logout", c.HandleLogout).Methods(http.MethodPost)

	// Session management mutates the registry, so it sits behind auth.
	r.Handle("/v1/sessions", c.RequireAuth(http.HandlerFunc(c.HandleSessionConnect))).Methods(http.MethodPost)
	r.Handle("/v1/sessions", c.RequireAuth(http.HandlerFunc(c.HandleSessionList))).Methods(http.MethodGet)
	r.Handle("/v1/sessions/{id}", c.RequireAuth(http.HandlerFunc(c.HandleSessionDisconnect))).Methods(http.MethodDelete)
	r.Handle("/v1/sessions/{id}/address", c.RequireAuth(http.HandlerFunc(c.HandleSessionRepoint))).Methods(http.MethodPut)

	// Read-only consumer surface.
	r.HandleFunc("/v1/sessions/{id}/snapshot", c.HandleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/v1/history/{address}", c.HandleHistory).Methods(http.MethodGet)
	r.HandleFunc("/v1/history/{address}/latest", c.HandleHistoryLatest).Methods(http.MethodGet)
	r.HandleFunc("/v1/notifications", c.HandleNotifications).Methods(http.MethodGet)

	// WebSocket endpoint for real-time snapshot and notification events.
	r.HandleFunc("/v1/ws", c.HandleWebSocket).Methods(http.MethodGet)

	return r, nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
