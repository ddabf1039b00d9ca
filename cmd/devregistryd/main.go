// Command devregistryd runs a standalone device registry: discovery
// backends feed it device sightings, an audit log records every
// lifecycle event, a reconciler asks backends to rescan after surprise
// removals, and an HTTP+WebSocket API exposes the registry's read
// surface. Adapted from the teacher's cmd/demo, trimmed to this
// package's scope and switched from manual flags to pflag.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/fwdaemon/devregistry/pkg/api"
	"github.com/fwdaemon/devregistry/pkg/audit/sqlite"
	"github.com/fwdaemon/devregistry/pkg/core"
	"github.com/fwdaemon/devregistry/pkg/discovery"
	"github.com/fwdaemon/devregistry/pkg/discovery/sshprobe"
	"github.com/fwdaemon/devregistry/pkg/discovery/wsfeed"
	"github.com/fwdaemon/devregistry/pkg/reconciler"
	"github.com/fwdaemon/devregistry/pkg/registry"
)

func main() {
	apiAddr := flag.String("api-addr", ":8090", "address for the HTTP+WebSocket API")
	auditPath := flag.String("audit-db", "devregistry-audit.db", "path to the SQLite audit log")
	sshAddr := flag.String("ssh-probe-addr", "", "host:port of an SSH inventory source (disabled if empty)")
	feedURL := flag.String("feed-url", "", "ws:// URL of a peer discovery feed (disabled if empty)")
	verbose := flag.BoolP("verbose", "v", false, "enable debug-level logging")
	flag.Parse()

	logLevel := zerolog.InfoLevel
	if *verbose {
		logLevel = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stdout).Level(logLevel).With().Timestamp().Logger()

	fmt.Println("🗂️  devregistryd - device registry daemon")
	fmt.Println(separator())
	fmt.Println()

	fmt.Println("📋 Initializing registry...")
	reg := registry.New(registry.WithLogger(log))
	fmt.Println("   ✓ Registry ready")

	fmt.Println("\n🧾 Opening audit log...")
	auditWriter, err := sqlite.New(&sqlite.Config{Path: *auditPath})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open audit log")
	}
	auditWriter.Attach(reg.Events())
	fmt.Printf("   ✓ Audit log opened (%s)\n", *auditPath)

	fmt.Println("\n🔎 Starting discovery backends...")
	var backends []discovery.Backend
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *sshAddr != "" {
		cfg := sshprobe.DefaultConfig()
		cfg.Address = *sshAddr
		probe := sshprobe.New("ssh-probe", cfg)
		backends = append(backends, probe)
		go func() {
			if err := probe.Run(ctx, reg); err != nil {
				log.Warn().Err(err).Msg("ssh-probe stopped")
			}
		}()
		fmt.Printf("   ✓ ssh-probe watching %s\n", *sshAddr)
	}

	if *feedURL != "" {
		cfg := wsfeed.DefaultConfig()
		cfg.URL = *feedURL
		feed := wsfeed.New("ws-feed", cfg)
		backends = append(backends, feed)
		go func() {
			if err := feed.Run(ctx, reg); err != nil {
				log.Warn().Err(err).Msg("ws-feed stopped")
			}
		}()
		fmt.Printf("   ✓ ws-feed watching %s\n", *feedURL)
	}

	if len(backends) == 0 {
		fmt.Println("   (none configured; seeding a demo fleet instead)")
	}

	fmt.Println("\n🔁 Starting reconciler...")
	recon := reconciler.New(reconcilerConfig(log), reg.Events(), reg, backends...)
	recon.Start(ctx)
	fmt.Println("   ✓ Watching for surprise removals")

	fmt.Println("\n🌐 Starting API server...")
	apiServer := api.New(&api.Config{Address: *apiAddr, Logger: log}, reg)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("api server stopped")
		}
	}()
	fmt.Printf("   ✓ Listening on %s\n", *apiAddr)

	if len(backends) == 0 {
		seedDemoDevices(reg)
	}

	fmt.Println("\n" + separator())
	fmt.Println("✅ devregistryd is running!")
	fmt.Println(separator())
	fmt.Println()
	fmt.Println("📡 API Endpoints:")
	fmt.Printf("   GET  /devices              - List all devices\n")
	fmt.Printf("   GET  /devices/guid/{guid}  - Find a device by GUID\n")
	fmt.Printf("   GET  /devices/id/{id}      - Find a device by id or prefix\n")
	fmt.Printf("   GET  /pending              - List items mid-debounce\n")
	fmt.Printf("   GET  /events               - Stream lifecycle events over WebSocket\n")
	fmt.Println()
	fmt.Println(separator())
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println(separator())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n\n🛑 Shutting down...")
	fmt.Println("   ✓ Stopping reconciler...")
	recon.Stop()
	fmt.Println("   ✓ Closing audit log...")
	auditWriter.Close()
	fmt.Println("   ✓ Closing registry...")
	reg.Close()
	fmt.Println("\n👋 Goodbye!")
}

func separator() string {
	return "======================================"
}

func reconcilerConfig(log zerolog.Logger) *reconciler.Config {
	cfg := reconciler.DefaultConfig()
	cfg.Logger = log
	return cfg
}

// seedDemoDevices adds a small fleet so the API has something to show
// when no discovery backend is configured.
func seedDemoDevices(reg *registry.Registry) {
	pos1 := core.NewSimpleDevice("pos-001", "guid-pos-1")
	pos1.SetRemoveDelay(2 * time.Second)
	reg.Add(pos1)

	kiosk1 := core.NewSimpleDevice("kiosk-001", "guid-kiosk-1")
	kiosk1.SetRemoveDelay(5 * time.Second)
	reg.Add(kiosk1)

	fmt.Println("seeded demo devices: pos-001, kiosk-001")
}
