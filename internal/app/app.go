package app

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vitrinehq/vitrine/internal/config"
	"github.com/vitrinehq/vitrine/internal/domain/repository"
)

type appHandler func(http.ResponseWriter, *http.Request) error

func (fn appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := fn(w, r); err != nil {
		log.Printf("Error: %v", err)
		if e, ok := err.(*AppError); ok {
			replyJSON(w, e, e.Code)
		} else {
			replyJSON(w, &AppError{Message: fmt.Sprintf("Internal server error: %v", err)}, http.StatusInternalServerError)
		}
	}
}

// Allow browser admin consoles on any origin to call the upload endpoints.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "DELETE,GET,OPTIONS,POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register API endpoints to the router.
func SetupRoutes(r *mux.Router, cfg *config.StorageConfig, presigner repository.Presigner, objects repository.ObjectRepository) {
	c := &controller{cfg, presigner, objects}
	r.Use(corsMiddleware)
	r.Methods("POST", "OPTIONS").Path("/vitrine/v1/uploads/initiate").Handler(appHandler(c.initiateUpload))
	r.Methods("POST", "OPTIONS").Path("/vitrine/v1/uploads/part").Handler(appHandler(c.presignPart))
	r.Methods("POST", "OPTIONS").Path("/vitrine/v1/uploads/complete").Handler(appHandler(c.completeUpload))
	r.Methods("POST", "OPTIONS").Path("/vitrine/v1/uploads/abort").Handler(appHandler(c.abortUpload))
	r.Methods("POST", "OPTIONS").Path("/vitrine/v1/uploads/presign").Handler(appHandler(c.presignDirect))
	r.Methods("GET", "OPTIONS").Path("/vitrine/v1/objects").Handler(appHandler(c.listObjects))
	r.Methods("GET", "OPTIONS").Path("/vitrine/v1/objects/{key:.+}").Handler(appHandler(c.getObject))
	r.Methods("DELETE", "OPTIONS").Path("/vitrine/v1/objects/{key:.+}").Handler(appHandler(c.deleteObject))
	r.MethodNotAllowedHandler = corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		replyJSON(w, &AppError{Message: "Method not allowed"}, http.StatusMethodNotAllowed)
	}))
}
