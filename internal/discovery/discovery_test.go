package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/require"
)

func entry(gameID, host string, port int, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry("BounceRoyale-"+gameID, serviceType, serviceDomain)
	e.Port = port
	e.HostName = host
	if len(txt) == 0 {
		txt = []string{"game=" + gameTag, "gameId=" + gameID}
	}
	e.Text = txt
	return e
}

func TestNotePeer_DedupesAcrossBrowses(t *testing.T) {
	s := New(8443, time.Second, nil)

	e := entry("111", "host-a.local.", 8443)
	e.AddrIPv4 = []net.IP{net.IPv4(10, 0, 0, 5)}

	s.notePeer(e)
	s.notePeer(e) // same room seen again on the next query round

	peers := s.Peers()
	require.Len(t, peers, 1)
	require.Equal(t, Listing{
		Name:    "Bounce Royale Game 111",
		Address: "10.0.0.5:8443",
		GameID:  "111",
	}, peers[0])
}

func TestNotePeer_SameGameDifferentAddressKeepsBoth(t *testing.T) {
	s := New(8443, time.Second, nil)

	a := entry("222", "host-a.local.", 8443)
	a.AddrIPv4 = []net.IP{net.IPv4(10, 0, 0, 5)}
	b := entry("222", "host-b.local.", 9000)
	b.AddrIPv4 = []net.IP{net.IPv4(10, 0, 0, 6)}

	s.notePeer(a)
	s.notePeer(b)
	require.Len(t, s.Peers(), 2)
}

func TestNotePeer_IgnoresForeignServices(t *testing.T) {
	s := New(8443, time.Second, nil)

	s.notePeer(entry("333", "host.local.", 8443, "game=otherthing", "gameId=333"))
	s.notePeer(entry("444", "host.local.", 8443, "game="+gameTag)) // missing gameId
	require.Empty(t, s.Peers())
}

func TestNotePeer_FallsBackToHostName(t *testing.T) {
	s := New(8443, time.Second, nil)

	s.notePeer(entry("555", "host-c.local.", 8443))
	peers := s.Peers()
	require.Len(t, peers, 1)
	require.Equal(t, "host-c.local:8443", peers[0].Address)
}

func TestParseTXT(t *testing.T) {
	txt := parseTXT([]string{"game=bounceroyale", "gameId=1700000000000", "junk"})
	require.Equal(t, "bounceroyale", txt["game"])
	require.Equal(t, "1700000000000", txt["gameId"])
	_, ok := txt["junk"]
	require.False(t, ok)
}

func TestNilServiceIsNoop(t *testing.T) {
	var s *Service
	s.RoomCreated("1")
	s.RoomClosed("1")
	require.Nil(t, s.Peers())
}
