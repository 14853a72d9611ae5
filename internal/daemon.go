package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markusressel/pace2go/internal/api"
	"github.com/markusressel/pace2go/internal/configuration"
	"github.com/markusressel/pace2go/internal/device"
	"github.com/markusressel/pace2go/internal/encoders"
	"github.com/markusressel/pace2go/internal/persistence"
	"github.com/markusressel/pace2go/internal/publisher"
	"github.com/markusressel/pace2go/internal/statistics"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

func RunDaemon() {
	config := configuration.CurrentConfig

	pers := persistence.NewPersistence(config.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Unable to initialize persistence at %s: %v", config.DbPath, err)
	}

	driver := createDriver(config.Hardware)
	positions := driver.Positions()

	d := device.New(device.Options{
		GlitchThreshold: config.Encoders.GlitchThreshold,
		WatchdogTimeout: config.Encoders.WatchdogTimeout,
		ExitMode:        config.Emergency.ExitMode,
		Positions:       positions,
	})
	hub := publisher.NewHub(config.PublishRate, d.Snapshot)
	d.SetPublisher(hub)

	if config.RestoreState {
		restoreState(pers, d)
	}

	activity := encoders.NewActivity(d, config.Encoders.ActivityWindow, positions)
	hub.AddSink(persistence.NewStateSaver(pers, config.PersistRate, config.HistorySize), true)

	var registerer prometheus.Registerer
	if config.Statistics.Enabled {
		registerer = prometheus.DefaultRegisterer
		statistics.Register(statistics.NewParameterCollector(d))
		statistics.Register(statistics.NewDeviceCollector(d))
		statistics.Register(statistics.NewEncoderCollector(activity))
	}

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		if config.Statistics.Enabled {
			// === Prometheus Exporter
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{Addr: fmt.Sprintf(":%d", config.Statistics.Port), Handler: mux}

			g.Add(func() error {
				ui.Info("Serving metrics on %s/metrics", server.Addr)
				return ignoreServerClosed(server.ListenAndServe())
			}, func(err error) {
				ui.Info("Stopping statistics server...")
				if err := shutdownServer(server); err != nil {
					ui.Warning("Error stopping statistics server: " + err.Error())
				} else {
					ui.Info("Statistics server stopped.")
				}
			})
		}
	}
	{
		if config.Profiling.Enabled {
			// === pprof
			mux := http.NewServeMux()
			mux.HandleFunc("/debug/pprof/", pprof.Index)
			mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
			mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
			mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
			mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
			server := &http.Server{Addr: fmt.Sprintf("%s:%d", config.Profiling.Host, config.Profiling.Port), Handler: mux}

			g.Add(func() error {
				ui.Info("Serving profiling data on %s/debug/pprof/", server.Addr)
				return ignoreServerClosed(server.ListenAndServe())
			}, func(err error) {
				_ = shutdownServer(server)
			})
		}
	}
	{
		if config.Api.Enabled {
			// === REST api and websocket
			websocket := api.NewWebsocketHub(d, config.Api.AdminToken)
			hub.AddSink(websocket, true)
			rest := api.CreateRestService(api.Options{
				Device:     d,
				Activity:   activity,
				Websocket:  websocket,
				Registerer: registerer,
			})
			addr := fmt.Sprintf("%s:%d", config.Api.Host, config.Api.Port)

			g.Add(func() error {
				ui.Info("Serving api on %s", addr)
				return ignoreServerClosed(rest.Start(addr))
			}, func(err error) {
				ui.Info("Stopping api server...")
				websocket.Close()
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer timeoutCancel()
				if err := rest.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping api server: %v", err)
				}
			})
		}
	}
	{
		if config.Mqtt.Enabled {
			// === MQTT
			sink, err := publisher.NewMqttSink(config.Mqtt)
			if err != nil {
				ui.Fatal("Unable to connect to MQTT broker %s: %v", config.Mqtt.Broker, err)
			}
			hub.AddSink(sink, false)
			ui.Info("Publishing state to MQTT topic %s", config.Mqtt.Topic)

			g.Add(func() error {
				<-ctx.Done()
				return sink.Close()
			}, func(err error) {
				cancel()
			})
		}
	}
	{
		// === encoders and buttons
		g.Add(func() error {
			err := driver.Run(ctx, activity)
			ui.Info("Encoder input stopped.")
			return err
		}, func(err error) {
			cancel()
			if err := driver.Close(); err != nil {
				ui.Warning("Error releasing encoder lines: %v", err)
			}
		})
	}
	{
		// === encoder watchdog
		rate := config.Encoders.WatchdogRate
		g.Add(func() error {
			ticker := time.NewTicker(rate)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					d.CheckWatchdog()
				}
			}
		}, func(err error) {
			cancel()
		})
	}
	{
		// === state publisher
		g.Add(func() error {
			err := hub.Run(ctx)
			ui.Info("Publisher stopped.")
			return err
		}, func(err error) {
			cancel()
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-sig:
				ui.Info("Received SIGTERM signal, exiting...")
			case <-ctx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	err := g.Run()
	if saveErr := pers.SaveState(d.Snapshot()); saveErr != nil {
		ui.Warning("Unable to save device state: %v", saveErr)
	}
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// createDriver attaches the gpio encoders if enabled. Without hardware the
// device is only controlled through the api.
func createDriver(config configuration.HardwareConfig) encoders.Driver {
	if !config.Enabled {
		ui.Info("Hardware disabled, using simulated encoders")
		return encoders.NewSimulatedDriver(nil)
	}
	driver, err := encoders.NewGpioDriver(config, nil)
	if err != nil {
		ui.Fatal("Unable to attach encoders on %s: %v", config.Chip, err)
	}
	return driver
}

func restoreState(pers persistence.Persistence, d *device.Device) {
	snapshot, err := pers.LoadState()
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("No saved device state found, starting with defaults")
		return
	}
	if err != nil {
		ui.Warning("Unable to load saved device state: %v", err)
		return
	}
	restored := d.Restore(snapshot)
	ui.Info("Restored device state: %s, rate %d ppm, A %.1f mA, V %.1f mA",
		restored.ModeName, restored.Rate, restored.AOutput, restored.VOutput)
}

func ignoreServerClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func shutdownServer(server *http.Server) error {
	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer timeoutCancel()
	return server.Shutdown(timeoutCtx)
}
