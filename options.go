package meshbus

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coaxial/meshbus/config"
	"github.com/coaxial/meshbus/handler"
)

// Option configures a Bus before it is started. Options are applied in
// order and take full effect before New launches any goroutine.
type Option func(*config.Options)

// WithApplicationName sets the name advertised to peers and available as
// MeshContext.ApplicationName.
func WithApplicationName(name string) Option {
	return func(o *config.Options) { o.ApplicationName = name }
}

// WithRPCPort sets the base port the Command Server probes from. Defaults
// to config.DefaultRPCPort.
func WithRPCPort(port uint16) Option {
	return func(o *config.Options) { o.RPCPort = port }
}

// WithPublishPort sets the base port the event Publisher probes from.
// Defaults to config.DefaultPublishPort.
func WithPublishPort(port uint16) Option {
	return func(o *config.Options) { o.PublishPort = port }
}

// WithBeaconPort sets the UDP port used for discovery broadcasts. Defaults
// to config.DefaultBeaconPort.
func WithBeaconPort(port uint16) Option {
	return func(o *config.Options) { o.BeaconPort = port }
}

// WithBeaconInterval sets how often this node re-broadcasts its beacon.
func WithBeaconInterval(d time.Duration) Option {
	return func(o *config.Options) { o.BeaconInterval = d }
}

// WithCleanupInterval sets how often the discovery sweep checks for
// expired peers.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *config.Options) { o.CleanupInterval = d }
}

// WithInactiveThreshold sets how long a peer may go unheard from before
// the discovery sweep evicts it.
func WithInactiveThreshold(d time.Duration) Option {
	return func(o *config.Options) { o.InactiveThreshold = d }
}

// WithProbeWindow sets how many ports the Command Server and event
// Publisher each probe past their base port before giving up.
func WithProbeWindow(n int) Option {
	return func(o *config.Options) { o.ProbeWindow = n }
}

// WithInterface pins beacon broadcast/listen to a specific network
// interface name, overriding automatic interface selection.
func WithInterface(iface string) Option {
	return func(o *config.Options) { o.Interface = iface }
}

// WithCluster sets the cluster name this node advertises (used by the
// Cluster command scope) and optionally restricts Cluster/Network scope
// membership to the given application names and node addresses.
func WithCluster(name string, applications, nodes []string) Option {
	return func(o *config.Options) {
		o.Cluster = config.ClusterOptions{ClusterName: name, Applications: applications, Nodes: nodes}
	}
}

// WithPendingReplyPoolCeiling bounds how many PendingReply objects are kept
// on the free list; bursts beyond the ceiling still work, they simply
// aren't recycled.
func WithPendingReplyPoolCeiling(n int) Option {
	return func(o *config.Options) { o.PendingReplyPoolCeiling = n }
}

// WithLogger supplies a zap.Logger for this Bus to use instead of a
// default production logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *config.Options) { o.Logger = l }
}

// WithCommandHandler registers a strongly-typed request/response command
// handler under name.
func WithCommandHandler[Req, Resp any](name string, fn func(context.Context, Req) (Resp, error)) Option {
	return func(o *config.Options) {
		o.CommandHandlers = append(o.CommandHandlers, func(reg *handler.CommandRegistry) {
			handler.RegisterCommand(reg, name, fn)
		})
	}
}

// WithVoidCommandHandler registers a strongly-typed command handler that
// returns no reply payload.
func WithVoidCommandHandler[Req any](name string, fn func(context.Context, Req) error) Option {
	return func(o *config.Options) {
		o.CommandHandlers = append(o.CommandHandlers, func(reg *handler.CommandRegistry) {
			handler.RegisterVoidCommand(reg, name, fn)
		})
	}
}

// WithEventHandler registers a strongly-typed event handler under name.
// Multiple handlers may be registered for the same name; all of them run.
func WithEventHandler[Evt any](name string, fn func(context.Context, Evt) error) Option {
	return func(o *config.Options) {
		o.EventHandlers = append(o.EventHandlers, func(reg *handler.EventRegistry) {
			handler.RegisterEvent(reg, name, fn)
		})
	}
}
