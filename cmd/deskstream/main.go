package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pauloswear/deskstream/internal/adaptive"
	"github.com/pauloswear/deskstream/internal/capture"
	"github.com/pauloswear/deskstream/internal/controlplane"
	"github.com/pauloswear/deskstream/internal/display"
	"github.com/pauloswear/deskstream/internal/imgcodec"
	"github.com/pauloswear/deskstream/internal/input"
	"github.com/pauloswear/deskstream/internal/logging"
	"github.com/pauloswear/deskstream/internal/protocol"
	"github.com/pauloswear/deskstream/internal/render"
	"github.com/pauloswear/deskstream/internal/state"
	"github.com/pauloswear/deskstream/internal/transport"
	"github.com/spf13/cobra"
)

var (
	version  = "0.1.0"
	host     string
	port     int
	logLevel string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "deskstream [controller|controllee]",
	Short: "Remote desktop streaming and control session",
	Long: `deskstream runs one side of a two-party remote desktop session over a
single TCP connection: "controllee" captures the local screen and injects
remote input; "controller" renders the received frames into a headless
display surface and sends frame-rate feedback upstream. The controller does
not capture or send local input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0], cmd.Flags().Changed("host"))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deskstream v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "address to dial; when present, this process is the TCP client; when absent, it listens on port")
	rootCmd.PersistentFlags().IntVar(&port, "port", 5005, "TCP port")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(mode string, hostGiven bool) error {
	logging.Init("text", logLevel, os.Stdout)
	log = logging.L("main")

	// §6: --host, not mode, decides which side dials and which side
	// listens — either peer may play either role on either side of the
	// connection (§1).
	asListener := !hostGiven

	switch mode {
	case "controllee":
		return runControllee(asListener)
	case "controller":
		return runController(asListener)
	default:
		return fmt.Errorf("unknown mode %q: expected \"controller\" or \"controllee\"", mode)
	}
}

func dialOrListen(asListener bool) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	if asListener {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("listen on %s: %w", addr, err)
		}
		log.Info("waiting for connection", "addr", addr)
		conn, err := ln.Accept()
		ln.Close()
		if err != nil {
			return nil, fmt.Errorf("accept on %s: %w", addr, err)
		}
		return conn, nil
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

func withSignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

// runControllee wires the Capture Pipeline, Configuration State, the
// adaptive feedback state, and the OS input collaborator behind a single
// transport connection (§2 component composition).
func runControllee(asListener bool) error {
	conn, err := dialOrListen(asListener)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := withSignalContext()
	defer cancel()

	tr := transport.New(conn)
	defer tr.Stop()

	cfg := state.New()
	adapt := adaptive.New()
	capturer, err := capture.NewScreenCapturer(capture.DefaultConfig())
	if err != nil {
		return fmt.Errorf("create screen capturer: %w", err)
	}
	defer capturer.Close()

	injector, err := input.NewInjector()
	if err != nil {
		return fmt.Errorf("create input injector: %w", err)
	}
	defer injector.Close()

	extentOf := func() (int, int) {
		monitors, err := capturer.Monitors()
		if err != nil || len(monitors) == 0 {
			return 0, 0
		}
		m := monitors[cfg.Monitor()%len(monitors)]
		return m.Width, m.Height
	}

	cp := controlplane.NewControllee(cfg, adapt, injector, extentOf)
	go cp.Run()
	defer cp.Stop()

	pipeline := capture.New(capturer, imgcodec.JPEGCodec{}, cfg, adapt, tr.Send)
	go pipeline.Run(ctx)
	defer pipeline.Stop()

	log.Info("controllee session started")

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down controllee")
			return nil
		case raw, ok := <-tr.Recv():
			if !ok {
				if err := tr.Err(); err != nil {
					return fmt.Errorf("transport closed: %w", err)
				}
				return nil
			}
			msg, err := protocol.Decode(raw)
			if err != nil {
				log.Warn("decode error; dropping message", "error", err)
				continue
			}
			if _, ok := msg.(protocol.ScreenshotRequest); ok {
				pipeline.OnScreenshotRequest()
				continue
			}
			cp.Handle(msg)
		}
	}
}

// runController wires the Render Pipeline and a headless display surface
// behind a single transport connection. It sends NET_FEEDBACK only; no
// local input is captured or sent as NEW_COMMAND.
func runController(asListener bool) error {
	conn, err := dialOrListen(asListener)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := withSignalContext()
	defer cancel()

	tr := transport.New(conn)
	defer tr.Stop()

	rp := render.New(imgcodec.JPEGCodec{})
	surface := display.New()

	log.Info("controller session started")

	fpsTarget := 60
	lastReport := time.Now()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down controller")
			return nil
		case raw, ok := <-tr.Recv():
			if !ok {
				if err := tr.Err(); err != nil {
					return fmt.Errorf("transport closed: %w", err)
				}
				return nil
			}

			msg, err := protocol.Decode(raw)
			if err != nil {
				log.Warn("decode error; dropping message", "error", err)
				continue
			}

			if tiles, ok := msg.(protocol.TilesUpdate); ok && tiles.FPSTarget > 0 {
				fpsTarget = int(tiles.FPSTarget)
			}

			delta, fps := rp.Apply(msg, fpsTarget)
			if rgb, w, h := rp.Reconstruct(); w > 0 && h > 0 {
				surface.Paint(display.Frame{Width: w, Height: h, RGB: rgb})
			}

			if fps > 0 && time.Since(lastReport) > 0 {
				feedback := controlplane.Feedback(delta, fps)
				if err := tr.Send(feedback.Encode()); err != nil {
					log.Warn("failed to send feedback", "error", err)
				}
				lastReport = time.Now()
			}
		}
	}
}
