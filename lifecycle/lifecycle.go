// Package lifecycle assembles every component a Bus needs — repository,
// aggregator, beacon, discovery, the four command scopes, and the event
// publisher/subscriber — in the dependency order the spec requires, and
// tears them down in reverse.
package lifecycle

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/coaxial/meshbus/actor"
	"github.com/coaxial/meshbus/aggregator"
	"github.com/coaxial/meshbus/beacon"
	"github.com/coaxial/meshbus/command"
	"github.com/coaxial/meshbus/config"
	"github.com/coaxial/meshbus/correlation"
	"github.com/coaxial/meshbus/discovery"
	"github.com/coaxial/meshbus/errs"
	"github.com/coaxial/meshbus/event"
	"github.com/coaxial/meshbus/handler"
	"github.com/coaxial/meshbus/mesh"
	"github.com/coaxial/meshbus/reply"
	"github.com/coaxial/meshbus/socketmgr"
)

const beaconMagic = "meshbus1"

// Lifecycle owns every long-lived component started by New and the order
// they must stop in.
type Lifecycle struct {
	repo            *mesh.Repository
	aggregator      *aggregator.Aggregator
	server          *command.Server
	publisher       *event.Publisher
	beacon          *beacon.Beacon
	discovery       *discovery.Service
	schedulers      []*actor.Scheduler
	subscribers     *event.SubscriberManager
	commandDispatch *command.Dispatcher
	eventDispatch   *event.Dispatcher
	logger          *zap.Logger
}

// Start assembles and starts every component described by opts.
func Start(opts *config.Options) (*Lifecycle, error) {
	logger := opts.Logger
	if logger == nil {
		l, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}
		logger = l
	}

	repo := mesh.NewRepository()
	agg := aggregator.New()

	cmdRegistry := handler.NewCommandRegistry()
	for _, register := range opts.CommandHandlers {
		register(cmdRegistry)
	}
	eventRegistry := handler.NewEventRegistry()
	for _, register := range opts.EventHandlers {
		register(eventRegistry)
	}

	server, err := command.NewServer(command.ServerConfig{BasePort: opts.RPCPort, ProbeWindow: opts.ProbeWindow}, cmdRegistry, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: command server: %v", errs.ErrConfiguration, err)
	}

	publisher, err := event.NewPublisher(event.PublisherConfig{BasePort: opts.PublishPort, ProbeWindow: opts.ProbeWindow}, logger)
	if err != nil {
		server.Stop()
		return nil, fmt.Errorf("%w: event publisher: %v", errs.ErrConfiguration, err)
	}

	b := beacon.New(int(opts.BeaconPort), opts.BeaconInterval)
	b.NoEcho()
	b.Subscribe([]byte(beaconMagic))
	if err := b.Start(opts.Interface); err != nil {
		server.Stop()
		publisher.Stop()
		return nil, fmt.Errorf("%w: beacon: %v", errs.ErrConfiguration, err)
	}

	replies := reply.NewRegistry(logger)
	pool := reply.NewPool(opts.PendingReplyPoolCeiling)
	corr := &correlation.Generator{}

	localSched := actor.New("local", logger)
	machineSched := actor.New("machine", logger)
	clusterSched := actor.New("cluster", logger)
	networkSched := actor.New("network", logger)
	subSched := actor.New("event-subscriber", logger)

	clusterOpts := socketmgr.ClusterOptions{Applications: opts.Cluster.Applications, Nodes: opts.Cluster.Nodes}

	var local mesh.MeshContext
	localAccessor := func() mesh.MeshContext { return local }

	localMgr := socketmgr.New("Local", socketmgr.LocalFilter, localSched, agg, replies.OnMessage, localAccessor, clusterOpts, logger)
	machineMgr := socketmgr.New("Machine", socketmgr.MachineFilter, machineSched, agg, replies.OnMessage, localAccessor, clusterOpts, logger)
	clusterMgr := socketmgr.New("Cluster", socketmgr.ClusterFilter, clusterSched, agg, replies.OnMessage, localAccessor, clusterOpts, logger)
	networkMgr := socketmgr.New("Network", socketmgr.NetworkFilter, networkSched, agg, replies.OnMessage, localAccessor, clusterOpts, logger)

	subscribers := event.NewSubscriberManager(subSched, agg, eventRegistry, logger)

	hostname, _ := os.Hostname()
	local = mesh.MeshContext{
		MeshId:          mesh.ComputeMeshID(hostname, opts.ApplicationName, os.Getpid()),
		ApplicationName: opts.ApplicationName,
		WorkstationName: hostname,
		Address:         b.Addr(),
		RpcPort:         server.Port(),
		PubPort:         publisher.Port(),
		ClusterName:     opts.Cluster.ClusterName,
		Self:            true,
		LastSeen:        time.Now(),
	}

	payload, err := msgpack.Marshal(local)
	if err != nil {
		b.Close()
		server.Stop()
		publisher.Stop()
		return nil, fmt.Errorf("%w: marshal local mesh context: %v", errs.ErrConfiguration, err)
	}
	b.SetTransmit(append([]byte(beaconMagic), payload...))

	repo.Insert(local)
	agg.Publish(aggregator.MeshJoined{Peer: local})

	disco := discovery.New(discovery.Config{
		CleanupInterval:   opts.CleanupInterval,
		InactiveThreshold: opts.InactiveThreshold,
	}, repo, agg, b, logger)
	disco.Start()

	dispatcher := &command.Dispatcher{
		Local:   command.NewScope("Local", localMgr, replies, pool, corr, logger),
		Machine: command.NewScope("Machine", machineMgr, replies, pool, corr, logger),
		Cluster: command.NewScope("Cluster", clusterMgr, replies, pool, corr, logger),
		Network: command.NewScope("Network", networkMgr, replies, pool, corr, logger),
	}

	return &Lifecycle{
		repo:            repo,
		aggregator:      agg,
		server:          server,
		publisher:       publisher,
		beacon:          b,
		discovery:       disco,
		schedulers:      []*actor.Scheduler{localSched, machineSched, clusterSched, networkSched, subSched},
		subscribers:     subscribers,
		commandDispatch: dispatcher,
		eventDispatch:   event.NewDispatcher(publisher),
		logger:          logger,
	}, nil
}

// Command returns the four command scopes.
func (l *Lifecycle) Command() *command.Dispatcher { return l.commandDispatch }

// Event returns the event publish dispatcher.
func (l *Lifecycle) Event() *event.Dispatcher { return l.eventDispatch }

// Stop tears every component down in reverse dependency order: discovery
// first (so no more membership changes are published), then each scope's
// scheduler and the event subscriber scheduler, then the beacon, command
// server, and publisher. Stopping a scheduler does not close the DEALER and
// SUB sockets registered with it; Stop leaves those sockets open.
func (l *Lifecycle) Stop() {
	l.discovery.Stop()
	for _, s := range l.schedulers {
		s.Stop()
	}
	l.beacon.Close()
	l.server.Stop()
	l.publisher.Stop()
}
