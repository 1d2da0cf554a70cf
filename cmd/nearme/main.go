package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"syscall"
	"time"

	"nearme/internal/config"
	"nearme/internal/env"
	"nearme/internal/events"
	"nearme/internal/httpapi"
	"nearme/internal/imagecache"
	"nearme/internal/listview"
	"nearme/internal/refresh"
	"nearme/internal/storage"
	"nearme/internal/store"
	"nearme/models"
	"nearme/pkg/connectivity"
	"nearme/pkg/foursquare"
	"nearme/pkg/graceful"
	"nearme/pkg/kafkaclient"
	"nearme/pkg/location"
)

const iconSize = 64

func main() {
	// Load environment variables from a .env file.
	// This is typically used in a development environment.
	env.LoadEnv(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	venueStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open venue store: %v", err)
	}
	defer venueStore.Close()

	if cfg.Foursquare.ClientID == "" || cfg.Foursquare.ClientSecret == "" {
		log.Println("FOURSQUARE_CLIENT_ID or FOURSQUARE_CLIENT_SECRET not set, searches will be rejected by the API.")
	}
	client := foursquare.NewClient(
		foursquare.Credentials{ClientID: cfg.Foursquare.ClientID, ClientSecret: cfg.Foursquare.ClientSecret},
		foursquare.Options{
			BaseURL: cfg.Foursquare.BaseURL,
			Version: cfg.Foursquare.Version,
			Radius:  cfg.Foursquare.Radius,
			Limit:   cfg.Foursquare.Limit,
		},
	).WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout})

	icons := imagecache.New(iconFetcher(ctx, cfg), cfg.FetchTimeout)
	placeholder := listview.Placeholder(iconSize)

	prober := connectivity.DialProber{Address: cfg.ProbeAddress}
	monitor := connectivity.NewMonitor(prober, cfg.ProbeInterval)
	monitor.Update(prober.Probe(ctx))
	go monitor.Run(ctx)

	permission, err := location.ParsePermission(cfg.Location.Permission)
	if err != nil {
		log.Fatalf("Invalid LOCATION_PERMISSION: %v", err)
	}
	feed, stopFeed := locationFeed(ctx, cfg)
	defer stopFeed()
	provider := location.NewProvider(feed,
		location.WithPermission(permission),
		location.WithDistanceFilter(cfg.Location.DistanceFilter),
		location.WithPrompter(location.PrompterFunc(func() {
			log.Printf("Location access is needed: POST {\"permission\":\"authorized\"} to http://%s/location/permission", cfg.HTTPAddress)
		})),
	)
	go func() {
		if err := provider.Run(ctx); err != nil {
			log.Printf("Location feed stopped: %v", err)
		}
	}()

	coordinator := refresh.New(client, venueStore, monitor, provider,
		refresh.WithLocationTimeout(cfg.Location.Timeout),
		refresh.WithFetchTimeout(cfg.FetchTimeout),
	)

	view := listview.New(icons, placeholder)
	view.OnUpdate(func() {
		if err := view.Render(os.Stdout); err != nil {
			log.Printf("Failed to print venues: %v", err)
		}
	})
	detach, err := view.Attach(ctx, venueStore)
	if err != nil {
		log.Fatalf("Failed to load venues: %v", err)
	}
	defer detach()

	if cfg.KafkaEnabled() {
		producer := kafkaclient.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.VenueTopic)
		defer producer.Close()
		publisher := events.NewPublisher(producer, deviceID())
		unsubscribe := venueStore.Subscribe(publisher.OnChange)
		defer unsubscribe()
		go publisher.Start(ctx)
		log.Printf("Publishing venue events to %s on %v", cfg.Kafka.VenueTopic, cfg.Kafka.Brokers)
	}

	// kill -USR1 <pid> is the terminal's pull to refresh.
	graceful.OnSignal(ctx, syscall.SIGUSR1, func() { coordinator.TriggerRefresh("pull to refresh") })

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-coordinator.Notices():
				log.Printf("%s %s [%s]", n.Title, n.Message, n.Dismiss)
			}
		}
	}()

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           httpapi.New(coordinator, view, provider, icons, placeholder).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("HTTP API listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	coordinator.TriggerRefresh("app start")
	if err := coordinator.Run(ctx); err != nil {
		log.Printf("Refresh coordinator stopped: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}
	log.Println("Main method finished, application exiting.")
}

// iconFetcher downloads icons directly, or through the object-store mirror
// when one is configured.
func iconFetcher(ctx context.Context, cfg config.Config) imagecache.Fetcher {
	origin := imagecache.NewHTTPFetcher(&http.Client{Timeout: cfg.FetchTimeout})
	if !cfg.IconMirrorEnabled() {
		return origin
	}
	s3Service, err := storage.NewS3Service(ctx, cfg.Icons)
	if err != nil {
		log.Printf("Icon mirror disabled: %v", err)
		return origin
	}
	return storage.NewIconMirror(s3Service, origin)
}

// locationFeed picks the source of device fixes: a fixed position, the
// Kafka location topic, or nothing at all.
func locationFeed(ctx context.Context, cfg config.Config) (location.Feed, func()) {
	loc := cfg.Location
	if loc.FixedLatitude != nil && loc.FixedLongitude != nil {
		at := models.Coordinates{Lat: *loc.FixedLatitude, Lon: *loc.FixedLongitude}
		log.Printf("Using fixed location %s", at)
		return location.StaticFeed{At: at}, func() {}
	}
	if cfg.KafkaEnabled() {
		log.Printf("Connecting to Kafka brokers %v on topic %s with group ID %s", cfg.Kafka.Brokers, cfg.Kafka.LocationTopic, cfg.Kafka.LocationGroupID)
		consumer := kafkaclient.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.LocationTopic, cfg.Kafka.LocationGroupID)
		consumer.Start(ctx)
		return location.NewKafkaFeed(consumer), consumer.Stop
	}
	log.Println("No location source configured; set FIXED_LATITUDE/FIXED_LONGITUDE or KAFKA_BROKERS.")
	return location.FeedFunc(func(ctx context.Context, _ func(models.Fix)) error {
		<-ctx.Done()
		return ctx.Err()
	}), func() {}
}

func deviceID() string {
	if id := os.Getenv("DEVICE_ID"); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil {
		return "nearme"
	}
	return host
}
