package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	clusterlib "github.com/yahoo/clusterlib-go"
	"github.com/yahoo/clusterlib-go/admin"
)

func init() {
	registerCommand("start", startRuntime, startUsage)
}

var startUsage string = `Usage: clusterlibctl start -conf=[config file] [-admin=:8080]
`

var optAdminAddr *string

func init() {
	optAdminAddr = flag.String("admin", ":8080", "Address the read-only admin HTTP surface listens on")
}

func startRuntime() {
	var cfg clusterlib.Config
	if err := cfg.LoadFromFile(*optConfigFile); err != nil {
		fmt.Printf("Unable to load config file: %s\n", err.Error())
		return
	}

	if err := clusterlib.SetLogLevel(cfg.LogLevel); err != nil {
		fmt.Printf("Unable to set log level %q: %s\n", cfg.LogLevel, err.Error())
		return
	}

	rt := clusterlib.NewRuntime(&cfg)
	if err := rt.Start(); err != nil {
		fmt.Printf("Unable to start runtime: %s\n", err.Error())
		return
	}
	defer rt.Stop()

	router := mux.NewRouter()
	admin.NewEndpoint(rt.Factory, rt.Locks, rt.Metrics, rt.Bridge).Attach(router)

	server := &http.Server{Addr: *optAdminAddr, Handler: router}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Admin HTTP server error: %s\n", err.Error())
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
