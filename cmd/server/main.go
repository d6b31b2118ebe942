package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"redvale.gg/internal/catalogs"
	"redvale.gg/internal/persistence/kvstore"
	persistlog "redvale.gg/internal/persistence/log"
	"redvale.gg/internal/room"
	"redvale.gg/internal/transport/ws"
	"redvale.gg/internal/tuning"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		roomID     = flag.String("room", "room-1", "room id")
		defaultMap = flag.String("default_map", "downtown", "map assigned when HELLO names none")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite kv store")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	roomDir := filepath.Join(*dataDir, "rooms", *roomID)
	_ = os.MkdirAll(roomDir, 0o755)

	var store *kvstore.Store
	if !*disableDB {
		store, err = kvstore.Open(filepath.Join(roomDir, "room.db"), logger)
		if err != nil {
			logger.Fatalf("open kv store: %v", err)
		}
		defer store.Close()
	}

	auditLog := persistlog.NewAuditLogger(roomDir)
	defer auditLog.Close()

	cfg := room.Config{
		ID:           *roomID,
		DefaultMapID: *defaultMap,
		Tuning:       tune,
		Catalogs:     cats,
		Logger:       logger,
		Audit:        auditLog,
	}
	if store != nil {
		cfg.Store = store
	}
	rm := room.New(cfg)

	ctx, cancel := signalContext()
	defer cancel()

	go rm.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		st := rm.Stats()
		fmt.Fprintf(rw, "# HELP redvale_room_sessions Registered sessions.\n")
		fmt.Fprintf(rw, "# TYPE redvale_room_sessions gauge\n")
		fmt.Fprintf(rw, "redvale_room_sessions{room=%q} %d\n", *roomID, st.Sessions)
		fmt.Fprintf(rw, "# HELP redvale_room_online Online sessions.\n")
		fmt.Fprintf(rw, "# TYPE redvale_room_online gauge\n")
		fmt.Fprintf(rw, "redvale_room_online{room=%q} %d\n", *roomID, st.Online)
		fmt.Fprintf(rw, "# HELP redvale_room_tasks Pending scheduler tasks.\n")
		fmt.Fprintf(rw, "# TYPE redvale_room_tasks gauge\n")
		fmt.Fprintf(rw, "redvale_room_tasks{room=%q} %d\n", *roomID, st.Tasks)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(rm, tune.Session.OutQueueDepth, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
