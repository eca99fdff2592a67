package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/MARSWALLET/tagteam"
	"github.com/joho/godotenv"
)

var (
	port          = flag.String("port", "8000", "Port to serve HTTP on")
	dbPath        = flag.String("db", "./tagteam.db", "Path to database")
	inferenceURL  = flag.String("inference-url", "", "Override the image-to-text API base URL")
	routerURL     = flag.String("router-url", "", "Override the chat completion API base URL")
	visionTimeout = flag.Duration("vision-timeout", 60*time.Second, "Vision stage deadline per request")
	logicTimeout  = flag.Duration("logic-timeout", 60*time.Second, "Logic stage deadline per request")
)

func main() {
	flag.Parse()

	// A missing key is not fatal at startup, requests fail with a
	// configuration error instead.
	godotenv.Load()
	apiKey := os.Getenv("HF_API_KEY")
	if apiKey == "" {
		log.Println("HF_API_KEY not set, /analyze requests will be rejected")
	}

	tio := tagteam.InitOptions{
		APIKey:        apiKey,
		InferenceURL:  *inferenceURL,
		RouterURL:     *routerURL,
		VisionTimeout: *visionTimeout,
		LogicTimeout:  *logicTimeout,
		HttpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
	tt := tagteam.Init(tio)

	db, err := tagteam.NewDB(context.Background(), *dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	srv := NewServer(tt, db, apiKey, *port)

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt)

	done := make(chan struct{})
	go func() {
		<-sigch
		log.Println("SIGINT received, shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown error - %s", err)
		}
		close(done)
	}()

	log.Printf("Serving on port %s", *port)
	if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	<-done
}
