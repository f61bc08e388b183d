// Package beacon implements LAN peer discovery over UDP broadcast. A beacon
// periodically broadcasts a small payload (the local node's marshaled
// MeshContext) and asynchronously reports every other beacon it observes
// on its Signals channel. Matching czmq/Zyre's beacon design, broadcast and
// receive run on their own goroutines; all shared state is behind a mutex.
//
// Unlike the multicast-group beacon this is descended from, this
// implementation broadcasts on the interface's IPv4 broadcast address,
// which is what a "LAN service mesh" concretely means on most networks and
// avoids the operational friction of multicast routing.
package beacon

import (
	"bytes"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/net/ipv4"
)

const beaconMax = 512

// Signal is one observed beacon from another node, reported with the
// source address it arrived from. Transmit has the Subscribe filter
// prefix already stripped off, so it holds only the caller's payload.
type Signal struct {
	Addr     string
	Transmit []byte
}

// Beacon broadcasts a payload on an interval and listens for the same kind
// of broadcast from peers.
type Beacon struct {
	port     int
	interval time.Duration
	noecho   bool

	conn    *ipv4.PacketConn
	outAddr *net.UDPAddr
	addr    string

	signals chan *Signal
	done    chan struct{}
	wg      sync.WaitGroup

	mu        sync.Mutex
	transmit  []byte
	filter    []byte
	terminate bool
}

// New creates a beacon bound to port, broadcasting at interval.
func New(port int, interval time.Duration) *Beacon {
	if interval <= 0 {
		interval = time.Second
	}
	return &Beacon{
		port:     port,
		interval: interval,
		signals:  make(chan *Signal, 64),
		done:     make(chan struct{}),
	}
}

// NoEcho filters out beacons that are byte-identical to our own transmit
// payload, which otherwise arrive whenever the broadcast reaches our own
// listening socket.
func (b *Beacon) NoEcho() *Beacon {
	b.noecho = true
	return b
}

// Subscribe restricts Signals to beacons whose payload starts with filter.
// A zero-length filter accepts every beacon. The matched prefix is stripped
// before the payload is delivered on Signals, so subscribers only ever see
// their own payload, not the filter tag.
func (b *Beacon) Subscribe(filter []byte) *Beacon {
	b.mu.Lock()
	b.filter = filter
	b.mu.Unlock()
	return b
}

// Addr returns the local interface address the beacon resolved to. Only
// valid after Start returns successfully.
func (b *Beacon) Addr() string {
	return b.addr
}

// Signals returns the channel of observed peer beacons.
func (b *Beacon) Signals() chan *Signal {
	return b.signals
}

// SetTransmit sets the payload broadcast on each tick. It may be called
// before or after Start, and changed at any time; the next tick picks up
// the new value. Splitting this from Start lets a caller resolve its own
// RPC/publish ports — which requires binding those sockets first — before
// finalizing the payload that advertises them.
func (b *Beacon) SetTransmit(payload []byte) {
	b.mu.Lock()
	b.transmit = payload
	b.mu.Unlock()
}

// Start resolves iface (or, if empty, the first usable non-loopback
// interface), binds the broadcast UDP socket, and begins the listen/signal
// goroutines. The resolved address is available afterwards via Addr.
func (b *Beacon) Start(iface string) error {
	ifaces, err := candidateInterfaces(iface)
	if err != nil {
		return err
	}

	for _, ifc := range ifaces {
		addr, broadcast, err := interfaceBroadcast(ifc)
		if err != nil {
			continue
		}

		conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: b.port})
		if err != nil {
			continue
		}
		pconn := ipv4.NewPacketConn(conn)
		if err := pconn.SetControlMessage(ipv4.FlagSrc, true); err != nil {
			conn.Close()
			continue
		}

		b.conn = pconn
		b.addr = addr
		b.outAddr = &net.UDPAddr{IP: broadcast, Port: b.port}

		b.wg.Add(2)
		go b.listen()
		go b.signal()
		return nil
	}

	return errors.New("beacon: no usable broadcast-capable interface found")
}

// Close stops the beacon's goroutines and releases its socket.
func (b *Beacon) Close() {
	b.mu.Lock()
	if b.terminate {
		b.mu.Unlock()
		return
	}
	b.terminate = true
	b.mu.Unlock()

	close(b.done)
	if b.conn != nil {
		// wake listen()'s blocking ReadFrom
		b.conn.Close()
	}
	b.wg.Wait()
}

func (b *Beacon) listen() {
	defer b.wg.Done()
	buf := make([]byte, beaconMax)
	for {
		select {
		case <-b.done:
			return
		default:
		}

		n, _, src, err := b.conn.ReadFrom(buf)
		if err != nil {
			continue
		}
		if n == 0 || n > beaconMax {
			continue
		}

		srcAddr, _, splitErr := net.SplitHostPort(src.String())
		if splitErr != nil {
			srcAddr = src.String()
		}

		payload := append([]byte(nil), buf[:n]...)

		b.mu.Lock()
		filter := b.filter
		noecho := b.noecho
		transmit := b.transmit
		b.mu.Unlock()

		if !bytes.HasPrefix(payload, filter) {
			continue
		}
		if noecho && bytes.Equal(payload, transmit) {
			continue
		}

		select {
		case b.signals <- &Signal{Addr: srcAddr, Transmit: payload[len(filter):]}:
		default:
		}
	}
}

func (b *Beacon) signal() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.mu.Lock()
			payload := b.transmit
			b.mu.Unlock()
			if len(payload) == 0 {
				continue
			}
			_, _ = b.conn.WriteTo(payload, nil, b.outAddr)
		}
	}
}

func candidateInterfaces(name string) ([]net.Interface, error) {
	if name != "" {
		ifc, err := net.InterfaceByName(name)
		if err != nil {
			return nil, err
		}
		return []net.Interface{*ifc}, nil
	}
	return net.Interfaces()
}

func interfaceBroadcast(ifc net.Interface) (addr string, broadcast net.IP, err error) {
	if ifc.Flags&net.FlagUp == 0 || ifc.Flags&net.FlagLoopback != 0 {
		return "", nil, errors.New("beacon: interface not usable")
	}
	addrs, err := ifc.Addrs()
	if err != nil {
		return "", nil, err
	}
	for _, a := range addrs {
		ip, ipnet, err := net.ParseCIDR(a.String())
		if err != nil {
			continue
		}
		ip4 := ip.To4()
		if ip4 == nil {
			continue
		}
		bcast := make(net.IP, len(ipnet.IP))
		for i := range ipnet.IP {
			bcast[i] = ipnet.IP[i] | ^ipnet.Mask[i]
		}
		return ip4.String(), bcast, nil
	}
	return "", nil, errors.New("beacon: interface has no usable IPv4 address")
}
