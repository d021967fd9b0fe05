// Package discovery advertises active rooms over mDNS and collects rooms
// advertised by other servers on the same network segment. It is a
// convenience layer: every failure is logged and swallowed, and a nil
// *Service is a valid no-op dependency, so discovery can never block room
// creation, joining, or gameplay.
package discovery

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

const (
	serviceType   = "_bounceroyale._tcp"
	serviceDomain = "local."
	gameTag       = "bounceroyale"
)

// Listing is one discoverable room, local or remote.
type Listing struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	GameID  string `json:"gameId"`
}

type Service struct {
	port     int
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	servers map[string]*zeroconf.Server // gameID -> mDNS registration
	peers   map[string]Listing          // gameID|address -> listing
}

func New(port int, interval time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		port:     port,
		interval: interval,
		log:      log,
		servers:  make(map[string]*zeroconf.Server),
		peers:    make(map[string]Listing),
	}
}

// RoomCreated registers an mDNS instance for the room. Fire-and-forget: the
// registration happens off the caller's goroutine.
func (s *Service) RoomCreated(gameID string) {
	if s == nil {
		return
	}
	go func() {
		srv, err := zeroconf.Register(
			"BounceRoyale-"+gameID,
			serviceType,
			serviceDomain,
			s.port,
			[]string{"game=" + gameTag, "gameId=" + gameID},
			nil,
		)
		if err != nil {
			s.log.Warn("mdns register failed", zap.String("gameId", gameID), zap.Error(err))
			return
		}
		s.mu.Lock()
		if old := s.servers[gameID]; old != nil {
			old.Shutdown()
		}
		s.servers[gameID] = srv
		s.mu.Unlock()
		s.log.Info("advertising game", zap.String("gameId", gameID))
	}()
}

// RoomClosed withdraws the room's mDNS registration.
func (s *Service) RoomClosed(gameID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	srv := s.servers[gameID]
	delete(s.servers, gameID)
	s.mu.Unlock()
	if srv != nil {
		srv.Shutdown()
	}
}

// Peers returns the passively discovered rooms, deduped.
func (s *Service) Peers() []Listing {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Listing, 0, len(s.peers))
	for _, l := range s.peers {
		out = append(out, l)
	}
	return out
}

// Browse queries the network on a fixed interval until ctx is cancelled.
func (s *Service) Browse(ctx context.Context) {
	if s == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.shutdownAll()

	for {
		s.browseOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) browseOnce(ctx context.Context) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		s.log.Warn("mdns resolver failed", zap.Error(err))
		return
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			s.notePeer(e)
		}
	}()

	bctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()
	if err := resolver.Browse(bctx, serviceType, serviceDomain, entries); err != nil {
		s.log.Warn("mdns browse failed", zap.Error(err))
		close(entries)
	}
	<-done
}

func (s *Service) notePeer(e *zeroconf.ServiceEntry) {
	txt := parseTXT(e.Text)
	if txt["game"] != gameTag || txt["gameId"] == "" {
		return
	}
	gameID := txt["gameId"]
	addr := entryAddress(e)
	if addr == "" {
		return
	}

	l := Listing{
		Name:    "Bounce Royale Game " + gameID,
		Address: addr,
		GameID:  gameID,
	}
	key := gameID + "|" + addr

	s.mu.Lock()
	_, known := s.peers[key]
	s.peers[key] = l
	s.mu.Unlock()

	if !known {
		s.log.Info("mdns discovered",
			zap.String("name", l.Name),
			zap.String("address", addr),
			zap.String("gameId", gameID))
	}
}

func (s *Service) shutdownAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, srv := range s.servers {
		srv.Shutdown()
		delete(s.servers, id)
	}
}

func parseTXT(text []string) map[string]string {
	out := make(map[string]string, len(text))
	for _, kv := range text {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}
	return out
}

func entryAddress(e *zeroconf.ServiceEntry) string {
	host := ""
	if len(e.AddrIPv4) > 0 {
		host = e.AddrIPv4[0].String()
	} else if e.HostName != "" {
		host = strings.TrimSuffix(e.HostName, ".")
	}
	if host == "" {
		return ""
	}
	return host + ":" + strconv.Itoa(e.Port)
}
