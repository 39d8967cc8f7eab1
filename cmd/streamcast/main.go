package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamcast/auth"
	"streamcast/internal/alertqueue"
	"streamcast/internal/bridge"
	"streamcast/internal/config"
	"streamcast/internal/control"
	"streamcast/internal/engine"
	"streamcast/internal/overlay"
	"streamcast/internal/scheduler"
	"streamcast/internal/store"
	"streamcast/internal/taskqueue"
	"streamcast/internal/web"

	"github.com/pion/mdns/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer cleanup()

	mqttClient, err := bridge.NewMQTTClient(cfg.MQTTBroker, cfg.MQTTClientID)
	if err != nil {
		log.Fatalf("Failed to connect to MQTT: %v", err)
	}
	defer mqttClient.Disconnect(250)

	eventBridge, err := bridge.NewMQTT(mqttClient)
	if err != nil {
		log.Fatalf("Failed to subscribe to event topics: %v", err)
	}
	adapter := control.NewMQTTAdapter(mqttClient)

	hub := overlay.NewHub()
	go hub.Run()

	eng, err := engine.New(ctx, engine.Options{
		Store:   st,
		Bridge:  eventBridge,
		Adapter: adapter,
		Sink:    hub,
		QueueOptions: []alertqueue.Option{
			alertqueue.WithInterAlertDelay(time.Duration(cfg.InterAlertDelayMs) * time.Millisecond),
		},
	})
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	var dispatcher *taskqueue.Dispatcher
	if cfg.UseTaskQueue {
		dispatcher = taskqueue.NewDispatcher(cfg.RedisAddr, eng.Rules())
		eng.Rules().UseDispatcher(dispatcher)
		go func() {
			if err := dispatcher.Run(); err != nil {
				log.Fatalf("Task queue worker failed: %v", err)
			}
		}()
	}

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	sched := scheduler.NewScheduler(eventBridge, st)
	if err := sched.LoadSchedules(ctx); err != nil {
		log.Fatalf("Failed to restore schedules: %v", err)
	}
	sched.Start()

	authModule := auth.NewAuthModule(cfg.JWTSecret, cfg.AdminPasswordHash)
	webServer := web.NewWebServer(eng, authModule, hub, sched)
	go func() {
		if err := webServer.Start(cfg.HTTPAddr); err != nil {
			log.Fatalf("Web server failed: %v", err)
		}
	}()

	// Lets overlay browser sources find us by name on the LAN
	go startMDNSServer(cfg.OverlayLocalName)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	eng.Stop()
	sched.Stop()
	if dispatcher != nil {
		dispatcher.Stop()
	}
	log.Println("Shutdown complete")
}

// openStore prefers Postgres when a database URL is configured and falls
// back to Redis otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}

	rs := store.NewRedis(&redis.Options{Addr: cfg.RedisAddr})
	if err := rs.Ping(ctx); err != nil {
		return nil, nil, err
	}
	return rs, func() { rs.Close() }, nil
}

func startMDNSServer(localName string) {
	addr4, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		log.Println("Failed to resolve UDP4 address for mDNS:", err)
		return
	}

	addr6, err := net.ResolveUDPAddr("udp6", mdns.DefaultAddressIPv6)
	if err != nil {
		log.Println("Failed to resolve UDP6 address for mDNS:", err)
		return
	}

	l4, err := net.ListenUDP("udp4", addr4)
	if err != nil {
		log.Println("Failed to listen on UDP4 for mDNS:", err)
		return
	}

	l6, err := net.ListenUDP("udp6", addr6)
	if err != nil {
		log.Println("Failed to listen on UDP6 for mDNS:", err)
		return
	}

	_, err = mdns.Server(ipv4.NewPacketConn(l4), ipv6.NewPacketConn(l6), &mdns.Config{
		LocalNames: []string{localName},
	})
	if err != nil {
		log.Println("Failed to start mDNS server:", err)
	}
}
