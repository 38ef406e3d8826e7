package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/gorilla/mux"

	"github.com/vitrinehq/vitrine/internal/app"
	"github.com/vitrinehq/vitrine/internal/config"
	"github.com/vitrinehq/vitrine/internal/infrastructure/persistence"
)

var (
	addr = flag.String("addr", env("ADDR", ":4443"), "web server address")
	cert = flag.String("cert", env("CERT_FILE", ""), "path of TLS certificate file")
	key  = flag.String("key", env("CERT_KEY", ""), "path of TLS private key file")
)

func main() {
	flag.Parse()

	cfg := config.FromEnv()
	if !cfg.Configured() {
		log.Printf("storage config incomplete: upload endpoints will reply with a configuration error")
	}

	sess := session.Must(session.NewSession())
	presigner := persistence.NewPresigner(cfg)
	objects := persistence.NewObjectRepository(sess, cfg)

	r := mux.NewRouter()
	app.SetupRoutes(r, cfg, presigner, objects)

	srv := &http.Server{
		Handler:      r,
		Addr:         *addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	log.Printf("the server started on port: %s\n", *addr)

	if *cert != "" && *key != "" {
		log.Fatal(srv.ListenAndServeTLS(*cert, *key))
	} else {
		log.Fatal(srv.ListenAndServe())
	}
}

// Get the value of environment variables.
func env(key string, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
