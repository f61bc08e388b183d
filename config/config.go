// Package config holds the Options a Bus is constructed from and their
// defaults. Options are consumed entirely during New, before any
// goroutine starts, which is what makes the plain functional-options shape
// safe here without needing a channel-guarded live-reconfiguration API.
package config

import (
	"time"

	"go.uber.org/zap"

	"github.com/coaxial/meshbus/handler"
)

// Defaults, chosen to keep a first run usable without any configuration:
// RPC/Publish/Beacon ports in distinct, conventionally-unprivileged
// ranges, a 200-port probe window per the Command Server's own default,
// and a liveness window generous enough to tolerate a couple of missed
// beacon ticks.
const (
	DefaultRPCPort             = 10000
	DefaultPublishPort         = 11000
	DefaultBeaconPort          = 9999
	DefaultBeaconInterval      = time.Second
	DefaultCleanupInterval     = 5 * time.Second
	DefaultInactiveThreshold   = 10 * time.Second
	DefaultProbeWindow         = 200
	DefaultPendingReplyCeiling = 4096
)

// ClusterOptions narrows which peers the Cluster and Network command
// scopes consider, beyond their baseline ClusterName/always-include rule.
type ClusterOptions struct {
	ClusterName  string
	Applications []string
	Nodes        []string
}

// Options is the fully-resolved configuration a Bus is built from.
type Options struct {
	ApplicationName         string
	RPCPort                 uint16
	PublishPort             uint16
	BeaconPort              uint16
	BeaconInterval          time.Duration
	CleanupInterval         time.Duration
	InactiveThreshold       time.Duration
	ProbeWindow             int
	Interface               string
	PendingReplyPoolCeiling int
	Cluster                 ClusterOptions
	CommandHandlers         []func(*handler.CommandRegistry)
	EventHandlers           []func(*handler.EventRegistry)
	Logger                  *zap.Logger
}

// Defaults returns an Options populated with this package's defaults.
func Defaults() *Options {
	return &Options{
		RPCPort:                 DefaultRPCPort,
		PublishPort:             DefaultPublishPort,
		BeaconPort:              DefaultBeaconPort,
		BeaconInterval:          DefaultBeaconInterval,
		CleanupInterval:         DefaultCleanupInterval,
		InactiveThreshold:       DefaultInactiveThreshold,
		ProbeWindow:             DefaultProbeWindow,
		PendingReplyPoolCeiling: DefaultPendingReplyCeiling,
	}
}
