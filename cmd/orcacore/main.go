// Command orcacore runs one camera's capture core, control-plane core,
// optional live-view preview, and status HTTP surface in a single process,
// process model: one controller, one camera, N downstream
// rings, wired together here the way cmd/lowfssrv/main.go wires a LOWFS
// loop's pieces together in its own main.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/theckman/yacspin"

	"github.com/stfc-aeg/odin-orca-quest/internal/bufferpool"
	"github.com/stfc-aeg/odin-orca-quest/internal/capture"
	"github.com/stfc-aeg/odin-orca-quest/internal/camera"
	"github.com/stfc-aeg/odin-orca-quest/internal/config"
	"github.com/stfc-aeg/odin-orca-quest/internal/controller"
	"github.com/stfc-aeg/odin-orca-quest/internal/controlplane"
	"github.com/stfc-aeg/odin-orca-quest/internal/diag"
	"github.com/stfc-aeg/odin-orca-quest/internal/ipc"
	"github.com/stfc-aeg/odin-orca-quest/internal/liveview"
	"github.com/stfc-aeg/odin-orca-quest/internal/protocol"
	"github.com/stfc-aeg/odin-orca-quest/internal/ring"
	"github.com/stfc-aeg/odin-orca-quest/internal/statusapi"
)

func main() {
	var (
		configPath      = flag.String("config", "", "path to a YAML configuration file")
		simulated       = flag.Bool("simulated", true, "use the simulated camera variant")
		vid             = flag.Uint("vid", 0, "real camera USB vendor id")
		pid             = flag.Uint("pid", 0, "real camera USB product id")
		socketID        = flag.Int("socket-id", 0, "socket id this core serves")
		numDownstream   = flag.Int("downstream", 4, "number of downstream rings")
		numBuffers      = flag.Int("buffers", 16, "number of pool buffers")
		captureInterval = flag.Duration("capture-interval", 2*time.Millisecond, "capture loop poll interval")
		controlEndpoint = flag.String("control-endpoint", controlplane.DefaultEndpoint, "control-plane zmq bind address")
		statusAddr      = flag.String("status-addr", ":8080", "status HTTP listen address")
		liveviewAddr    = flag.String("liveview-addr", ":8081", "live-view HTTP listen address")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "orcacore: ", log.LstdFlags|log.Lmicroseconds)

	store := config.NewStore()
	if *configPath != "" {
		if err := store.LoadYAMLFile(*configPath); err != nil {
			logger.Fatalf("load configuration: %v", err)
		}
	}
	cfg, err := store.Camera()
	if err != nil {
		logger.Fatalf("decode configuration: %v", err)
	}
	if *simulated {
		cfg.SimulatedCamera = true
	}

	color.Cyan("orcacore starting: socket=%d simulated=%v buffers=%d downstream=%d",
		*socketID, cfg.SimulatedCamera, *numBuffers, *numDownstream)

	pool, err := bufferpool.New(*numBuffers, protocol.FrameBufferSize())
	if err != nil {
		logger.Fatalf("allocate buffer pool: %v", err)
	}
	defer pool.Close()

	registry := ring.NewRegistry()
	clear := registry.LookupOrCreate(ring.ClearRingName(*socketID), pool.NumBuffers())
	pool.SeedClear(clear)

	ctrl := controller.New(cfg, uint16(*vid), uint16(*pid), logger)

	if err := connectWithSpinner(ctrl); err != nil {
		logger.Fatalf("camera connect: %v", err)
	}
	color.Green("camera connected, state=%s", ctrl.StateName())

	if err := ctrl.ExecuteCommand(ipc.CommandCapture); err != nil {
		logger.Fatalf("start capture: %v", err)
	}
	color.Green("capture started, state=%s", ctrl.StateName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	captureCore := capture.New(*socketID, *numDownstream, ctrl, pool, registry, *captureInterval, logger)
	controlCore := controlplane.New(ctrl, *controlEndpoint, logger)

	captureRefs := protocol.NewCaptureRefRegistry()
	captureRefs.Set(*socketID, captureCore)
	diagCore := diag.New(captureRefs)

	viewers := make([]*liveview.Viewer, *numDownstream)
	for i := range viewers {
		viewers[i] = liveview.New(*socketID, i, pool, registry, logger)
	}

	status := statusapi.New(ctrl,
		func() time.Duration { return captureCore.PL.Interval },
		func(d time.Duration) { captureCore.PL.Interval = d },
		logger)

	featureHTTP := camera.NewHTTPWrapper(ctrl.Camera(), func(name string) (interface{}, bool) {
		v := ctrl.Config().FieldValue(name)
		return v, v != nil
	})

	go func() {
		if err := captureCore.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Printf("capture core exited: %v", err)
		}
	}()
	go func() {
		if err := controlCore.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Printf("control-plane core exited: %v", err)
		}
	}()
	go drainViewers(ctx, viewers)

	statusMux := http.NewServeMux()
	statusMux.Handle("/", status.Mux())
	statusMux.Handle("/feature/", http.StripPrefix("/feature", featureHTTP.Mux()))
	statusMux.Handle("/diag/", http.StripPrefix("/diag", diagCore.Mux()))
	statusSrv := &http.Server{Addr: *statusAddr, Handler: statusMux}
	go func() {
		if err := statusSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("status http server exited: %v", err)
		}
	}()

	liveviewMux := http.NewServeMux()
	for i, v := range viewers {
		liveviewMux.Handle(fmt.Sprintf("/%d/", i), http.StripPrefix(fmt.Sprintf("/%d", i), v.Routes()))
	}
	liveviewSrv := &http.Server{Addr: *liveviewAddr, Handler: liveviewMux}
	go func() {
		if err := liveviewSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("liveview http server exited: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	color.Yellow("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = statusSrv.Shutdown(shutdownCtx)
	_ = liveviewSrv.Shutdown(shutdownCtx)
}

// connectWithSpinner drives the connect command behind a terminal spinner,
// the operator-facing equivalent of the backoff-driven retry inside
// controller.Connect -- the spinner just reflects how long that retry is
// taking, it does not add retries of its own.
func connectWithSpinner(ctrl *controller.Controller) error {
	spinner, err := yacspin.New(yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[11],
		Suffix:          " connecting to camera",
		SuffixAutoColon: true,
	})
	if err != nil {
		return ctrl.ExecuteCommand(ipc.CommandConnect)
	}
	_ = spinner.Start()
	err = ctrl.ExecuteCommand(ipc.CommandConnect)
	if err != nil {
		_ = spinner.StopFailMessage(err.Error())
		_ = spinner.StopFail()
		return err
	}
	_ = spinner.Stop()
	return nil
}

// drainViewers periodically drains every live-view viewer's downstream
// ring so a browser hitting /frame.jpg sees a recent frame without the
// capture core itself knowing live-view exists.
func drainViewers(ctx context.Context, viewers []*liveview.Viewer) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, v := range viewers {
				v.Drain()
			}
		}
	}
}
