package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/cjeanneret/SnapGo/internal/config"
	"github.com/cjeanneret/SnapGo/internal/debug"
	"github.com/cjeanneret/SnapGo/internal/hw/gpio"
	"github.com/cjeanneret/SnapGo/internal/hw/provider"
	"github.com/cjeanneret/SnapGo/internal/hw/shutter"
	"github.com/cjeanneret/SnapGo/internal/logic/capture"
	"github.com/cjeanneret/SnapGo/internal/logic/geometry"
	"github.com/cjeanneret/SnapGo/internal/prefs"
	"github.com/cjeanneret/SnapGo/internal/scene"
	"github.com/cjeanneret/SnapGo/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	prefsPath := flag.String("prefs", "", "override preference record path")
	vignette := flag.Float64("vignette", 0, "override vignette scale (0-1)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Validate CLI overrides (only non-zero values are applied; zero means "use config default")
	if err := validateOverrides(*vignette); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, *prefsPath, *vignette)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	// Shutter cue (GPIO buzzer, or silent when disabled)
	debug.Step(1, "Initializing shutter cue")
	cue, cleanup, err := newCueFromConfig(cfg)
	if err != nil {
		log.Fatalf("init shutter cue failed: %v", err)
	}
	defer cleanup()

	// Capture provider
	debug.Step(2, "Initializing capture provider")
	prov, err := newProviderFromConfig(cfg)
	if err != nil {
		log.Fatalf("init capture provider failed: %v", err)
	}
	debug.Value("Provider type", cfg.Provider.Type)

	// Preference store: a missing record is created on the spot; a
	// store that cannot be opened degrades to no-op reads/writes.
	debug.Step(3, "Opening preference store")
	store, err := prefs.OpenOrCreate(cfg.Prefs.Path)
	if err != nil {
		log.Printf("preference store unavailable, continuing without: %v", err)
		store = nil
	}
	debug.Value("Preference store", cfg.Prefs.Path)

	// Capture session
	debug.Step(4, "Creating capture session")
	session, err := capture.NewSession(prov, capture.Options{
		Prefab: &scene.Prefab{
			Name:      cfg.Prefab.Name,
			ChildName: cfg.Prefab.Child,
			DefaultTransform: scene.Transform{
				Position: geometry.Vec3{X: cfg.Prefab.X, Y: cfg.Prefab.Y, Z: cfg.Prefab.Z},
				Rotation: geometry.QuatIdentity(),
			},
		},
		Cue:           cue,
		VignetteScale: cfg.Defaults.VignetteScale,
		PrefsPath:     store.Path(),
	})
	if err != nil {
		log.Fatalf("create capture session failed: %v", err)
	}
	if err := session.Initialize(ctx); err != nil {
		log.Fatalf("initialize capture session failed: %v", err)
	}

	if port := webPort.port(); port > 0 {
		webAddr := fmt.Sprintf(":%d", port)
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		srv := web.NewServer(webAddr, web.NewHandlers(broadcaster, session, store))
		if err := srv.Run(ctx); err != nil {
			log.Fatalf("web server: %v", err)
		}
		return
	}

	// One-shot mode: take a single picture and tear down.
	surface, err := session.TakePicture(ctx)
	if err != nil {
		log.Fatalf("capture failed: %v", err)
	}
	debug.Summary("Capture Complete")
	fmt.Printf("surface %s (%s): position (%.3f, %.3f, %.3f)\n",
		surface.ID, surface.Name,
		surface.Transform.Position.X, surface.Transform.Position.Y, surface.Transform.Position.Z)

	if err := session.Stop(ctx); err != nil {
		log.Fatalf("stop capture session failed: %v", err)
	}
}

// validateOverrides checks that non-zero CLI overrides are within valid ranges.
// Zero values are ignored (they mean "use config default").
func validateOverrides(vignette float64) error {
	if vignette != 0 {
		if math.IsNaN(vignette) || math.IsInf(vignette, 0) || vignette < 0 || vignette > 1 {
			return fmt.Errorf("vignette must be between 0 and 1, got %g", vignette)
		}
	}
	return nil
}

// applyOverrides mutates cfg with overrides. Only non-zero override values are applied.
func applyOverrides(cfg *config.Config, prefsPath string, vignette float64) {
	if prefsPath != "" {
		cfg.Prefs.Path = prefsPath
	}
	if vignette > 0 {
		cfg.Defaults.VignetteScale = vignette
	}
}

// newCueFromConfig builds the shutter cue and a cleanup function that
// releases its GPIO driver.
func newCueFromConfig(cfg *config.Config) (shutter.Cue, func(), error) {
	if !cfg.Shutter.Enabled {
		return shutter.Silent{}, func() {}, nil
	}

	driver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := driver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Value("Buzzer pin", cfg.Shutter.Pin)

	return shutter.NewBuzzerGPIO(driver, cfg.Shutter.Pin, cfg.ShutterPulse()), cleanup, nil
}

// newProviderFromConfig selects a capture provider implementation based on configuration.
func newProviderFromConfig(cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider.Type {
	case "simulated":
		resolutions := make([]provider.Resolution, 0, len(cfg.Provider.Resolutions))
		for _, r := range cfg.Provider.Resolutions {
			resolutions = append(resolutions, provider.Resolution{Width: r.WidthPx, Height: r.HeightPx})
		}
		return provider.NewSimulated(provider.SimulatedOptions{
			Resolutions: resolutions,
			WithPose:    cfg.Provider.WithPose,
			Latency:     cfg.Latency(),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider.Type)
	}
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
