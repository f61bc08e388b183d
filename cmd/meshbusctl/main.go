// Command meshbusctl is a small demo node: it joins a mesh, answers "ping"
// commands from any scope, logs every "heartbeat" event it overhears, and
// can be told to scatter a ping of its own across the network.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coaxial/meshbus"
)

var (
	application    string
	cluster        string
	rpcPort        uint16
	publishPort    uint16
	beaconPort     uint16
	iface          string
	beaconInterval time.Duration
	verbose        bool
)

type pingRequest struct {
	From string
}

type pingResponse struct {
	From string
	Pong bool
}

type heartbeat struct {
	From string
	At   time.Time
}

func newLogger() *zap.Logger {
	if verbose {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}

func newBus(logger *zap.Logger) (*meshbus.Bus, error) {
	hostname, _ := os.Hostname()
	return meshbus.New(
		meshbus.WithApplicationName(application),
		meshbus.WithCluster(cluster, nil, nil),
		meshbus.WithRPCPort(rpcPort),
		meshbus.WithPublishPort(publishPort),
		meshbus.WithBeaconPort(beaconPort),
		meshbus.WithBeaconInterval(beaconInterval),
		meshbus.WithInterface(iface),
		meshbus.WithLogger(logger),
		meshbus.WithCommandHandler("ping", func(ctx context.Context, req pingRequest) (pingResponse, error) {
			logger.Info("answering ping", zap.String("from", req.From))
			return pingResponse{From: hostname, Pong: true}, nil
		}),
		meshbus.WithEventHandler("heartbeat", func(ctx context.Context, evt heartbeat) error {
			logger.Info("heartbeat overheard", zap.String("from", evt.From), zap.Time("at", evt.At))
			return nil
		}),
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	bus, err := newBus(logger)
	if err != nil {
		return fmt.Errorf("start mesh node: %w", err)
	}
	defer bus.Stop()

	ticker := time.NewTicker(2 * beaconInterval)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	hostname, _ := os.Hostname()
	for {
		select {
		case <-ticker.C:
			if err := bus.Event.Publish("heartbeat", heartbeat{From: hostname, At: time.Now()}); err != nil {
				logger.Warn("heartbeat publish failed", zap.Error(err))
			}
		case <-sig:
			logger.Info("shutting down")
			return nil
		}
	}
}

func runPing(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	bus, err := newBus(logger)
	if err != nil {
		return fmt.Errorf("start mesh node: %w", err)
	}
	defer bus.Stop()

	time.Sleep(2 * beaconInterval)

	hostname, _ := os.Hostname()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	replies, err := meshbus.Stream[pingResponse](ctx, bus.Command.Network, "ping", pingRequest{From: hostname}, 3*time.Second)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	count := 0
	for r := range replies {
		count++
		logger.Info("pong", zap.String("from", r.From))
	}
	logger.Info("ping complete", zap.Int("replies", count))
	return nil
}

func main() {
	root := &cobra.Command{
		Use:   "meshbusctl",
		Short: "Demo node for the meshbus library",
	}
	root.PersistentFlags().StringVar(&application, "application", "meshbusctl", "application name advertised to peers")
	root.PersistentFlags().StringVar(&cluster, "cluster", "default", "cluster name advertised to peers")
	root.PersistentFlags().Uint16Var(&rpcPort, "rpc-port", 10000, "base RPC port to probe from")
	root.PersistentFlags().Uint16Var(&publishPort, "publish-port", 11000, "base publish port to probe from")
	root.PersistentFlags().Uint16Var(&beaconPort, "beacon-port", 9999, "UDP beacon port")
	root.PersistentFlags().StringVar(&iface, "interface", "", "network interface to broadcast/listen on (default: auto)")
	root.PersistentFlags().DurationVar(&beaconInterval, "beacon-interval", time.Second, "how often to re-broadcast the beacon")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable development-mode logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "join the mesh, answer pings, and emit periodic heartbeats",
		RunE:  runServe,
	}
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "join the mesh, scatter one ping across the network scope, and report replies",
		RunE:  runPing,
	}

	root.AddCommand(serveCmd, pingCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
