// Package video streams the camera as low-latency WebRTC H.264. A
// hardware-encoder pipeline sends RTP to a loopback UDP port; the
// streamer forwards those packets into a shared video track that every
// connected peer subscribes to. The MJPEG preview is simpler and works
// everywhere; this path exists for driving, where multi-second MJPEG
// latency is unusable.
package video

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"

	"github.com/teslashibe/go-jetbot/internal/log"
)

// DefaultRTPPort is the loopback port the encoder pipeline sends to.
const DefaultRTPPort = 5004

// maxRTPSize covers any RTP packet the payloader emits (MTU-bound).
const maxRTPSize = 1500

// ErrClosed is returned by Offer after Close.
var ErrClosed = errors.New("video: streamer closed")

// rtpWriter is the track-side sink for forwarded packets. Satisfied by
// *webrtc.TrackLocalStaticRTP; tests substitute a recorder.
type rtpWriter interface {
	WriteRTP(p *rtp.Packet) error
}

// Streamer owns the shared H.264 track and the RTP forwarding pump.
// Peers attach through Offer; they all see the same stream.
type Streamer struct {
	track *webrtc.TrackLocalStaticRTP

	conn *net.UDPConn

	mu     sync.Mutex
	peers  map[string]*webrtc.PeerConnection
	closed bool

	packets sync.WaitGroup
	logger  *slog.Logger
}

// NewStreamer binds the RTP ingest port and starts forwarding into the
// shared track. Port 0 picks an ephemeral port (tests).
func NewStreamer(port int) (*Streamer, error) {
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264},
		"video", "jetbot",
	)
	if err != nil {
		return nil, fmt.Errorf("video: create track: %w", err)
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	if err != nil {
		return nil, fmt.Errorf("video: bind rtp port %d: %w", port, err)
	}

	s := &Streamer{
		track:  track,
		conn:   conn,
		peers:  make(map[string]*webrtc.PeerConnection),
		logger: log.With("component", "video"),
	}
	s.packets.Add(1)
	go s.pump(track)
	return s, nil
}

// Port returns the bound RTP ingest port.
func (s *Streamer) Port() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

// Peers returns the number of connected viewers.
func (s *Streamer) Peers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

func (s *Streamer) pump(w rtpWriter) {
	defer s.packets.Done()
	forwardRTP(s.conn, w, s.logger)
}

// forwardRTP forwards encoder RTP into the track until the socket
// closes. Malformed packets are dropped; the encoder owns the
// timestamps.
func forwardRTP(conn *net.UDPConn, w rtpWriter, logger *slog.Logger) {
	buf := make([]byte, maxRTPSize)
	var dropped uint64
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}

		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			dropped++
			if dropped%1000 == 1 {
				logger.Warn("malformed rtp from encoder", "dropped", dropped)
			}
			continue
		}
		if err := w.WriteRTP(pkt); err != nil {
			logger.Warn("track write failed", "err", err)
		}
	}
}

// Offer answers a browser's SDP offer and attaches the shared track.
// The returned SDP has ICE gathering completed, so signalling is a
// single HTTP round trip.
func (s *Streamer) Offer(id string, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.mu.Unlock()

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, fmt.Errorf("video: peer connection: %w", err)
	}

	if _, err := pc.AddTrack(s.track); err != nil {
		pc.Close()
		return nil, fmt.Errorf("video: add track: %w", err)
	}

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.logger.Info("peer state", "peer", id, "state", state)
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			s.drop(id)
		}
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("video: set offer: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("video: create answer: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("video: set answer: %w", err)
	}
	<-gathered

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		pc.Close()
		return nil, ErrClosed
	}
	s.peers[id] = pc
	s.mu.Unlock()

	return pc.LocalDescription(), nil
}

// drop closes and forgets one peer.
func (s *Streamer) drop(id string) {
	s.mu.Lock()
	pc, ok := s.peers[id]
	delete(s.peers, id)
	s.mu.Unlock()
	if ok {
		pc.Close()
	}
}

// Close disconnects every peer and stops the pump.
func (s *Streamer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	peers := s.peers
	s.peers = make(map[string]*webrtc.PeerConnection)
	s.mu.Unlock()

	for _, pc := range peers {
		pc.Close()
	}
	err := s.conn.Close()
	s.packets.Wait()
	return err
}
