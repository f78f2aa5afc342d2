// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/bureau-foundation/remotedesk/protocol"
)

var (
	_ Listener = (*WebRTCTransport)(nil)
	_ Dialer   = (*WebRTCTransport)(nil)
)

// EventChannelLabel is the label of the data channel carrying the
// client's event stream. Channels with any other label are refused.
const EventChannelLabel = "event"

const (
	// defaultPollInterval is how often signaling is polled for offers
	// (host side) and answers (client side).
	defaultPollInterval = 500 * time.Millisecond

	// iceGatherTimeout bounds ICE candidate gathering before the SDP
	// is published.
	iceGatherTimeout = 15 * time.Second

	// answerTimeout bounds the wait for the host's SDP answer.
	answerTimeout = 30 * time.Second

	// channelOpenTimeout bounds the wait for the event channel to open
	// once the answer is applied.
	channelOpenTimeout = 30 * time.Second
)

// WebRTCConfig configures a WebRTCTransport.
type WebRTCConfig struct {
	// Signaler exchanges offers and answers. Required.
	Signaler Signaler

	// PeerID identifies this side in signaling: the host ID for a
	// listening host, a client name for a dialing client. Required.
	PeerID string

	// ICE lists the STUN and TURN servers. Empty gathers host
	// candidates only.
	ICE ICEConfig

	// PollInterval overrides defaultPollInterval when non-zero.
	PollInterval time.Duration

	Logger *slog.Logger
}

// WebRTCTransport carries client connections over WebRTC data channels.
// A host calls Serve to answer offers; a client calls DialContext to
// make one. Each client connection gets its own PeerConnection with a
// single ordered, reliable data channel labelled EventChannelLabel.
// The route reported for a connection comes from the selected ICE
// candidate pair.
type WebRTCTransport struct {
	signaler     Signaler
	peerID       string
	iceConfig    ICEConfig
	pollInterval time.Duration
	logger       *slog.Logger

	// peers maps a remote peer ID to its PeerConnection. A new offer
	// from the same peer replaces the old connection.
	mu    sync.Mutex
	peers map[string]*webrtc.PeerConnection

	// ready is closed once Serve is polling for offers.
	ready     chan struct{}
	readyOnce sync.Once

	closed    chan struct{}
	closeOnce sync.Once
}

// NewWebRTCTransport creates a WebRTC transport.
func NewWebRTCTransport(config WebRTCConfig) *WebRTCTransport {
	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WebRTCTransport{
		signaler:     config.Signaler,
		peerID:       config.PeerID,
		iceConfig:    config.ICE,
		pollInterval: pollInterval,
		logger:       logger,
		peers:        make(map[string]*webrtc.PeerConnection),
		ready:        make(chan struct{}),
		closed:       make(chan struct{}),
	}
}

// Ready returns a channel that is closed once Serve is polling for
// offers. Clients in the same process wait on it before dialing.
func (wt *WebRTCTransport) Ready() <-chan struct{} {
	return wt.ready
}

// Serve answers offers directed at this peer until ctx is cancelled or
// Close is called. Each offer gets a new PeerConnection; when its event
// channel opens, handler receives the channel as a net.Conn.
func (wt *WebRTCTransport) Serve(ctx context.Context, handler ConnectionHandler) error {
	select {
	case <-wt.closed:
		return nil
	default:
	}

	ticker := time.NewTicker(wt.pollInterval)
	defer ticker.Stop()

	wt.readyOnce.Do(func() { close(wt.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wt.closed:
			return nil
		case <-ticker.C:
			wt.processOffers(ctx, handler)
		}
	}
}

// Address returns the peer ID clients direct their offers at.
func (wt *WebRTCTransport) Address() string {
	return wt.peerID
}

// Close stops Serve and closes every PeerConnection, which closes the
// connections handed out on them.
func (wt *WebRTCTransport) Close() error {
	wt.closeOnce.Do(func() {
		close(wt.closed)
	})

	wt.mu.Lock()
	peers := wt.peers
	wt.peers = make(map[string]*webrtc.PeerConnection)
	wt.mu.Unlock()

	for _, pc := range peers {
		pc.Close()
	}
	return nil
}

// DialContext connects to the host whose peer ID is address. It offers
// a new PeerConnection with one event channel and returns the channel
// once it is open.
func (wt *WebRTCTransport) DialContext(ctx context.Context, address string) (net.Conn, error) {
	select {
	case <-wt.closed:
		return nil, net.ErrClosed
	default:
	}

	pc, err := wt.newPeerConnection()
	if err != nil {
		return nil, fmt.Errorf("creating PeerConnection: %w", err)
	}
	conn, err := wt.dial(ctx, pc, address)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("dialing %s over WebRTC: %w", address, err)
	}
	return conn, nil
}

func (wt *WebRTCTransport) dial(ctx context.Context, pc *webrtc.PeerConnection, address string) (net.Conn, error) {
	ordered := true
	dc, err := pc.CreateDataChannel(EventChannelLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return nil, fmt.Errorf("creating data channel: %w", err)
	}
	opened := make(chan struct{})
	dc.OnOpen(func() { close(opened) })

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("creating SDP offer: %w", err)
	}
	if err := wt.setLocalAndGather(ctx, pc, offer); err != nil {
		return nil, err
	}
	if err := wt.signaler.PublishOffer(ctx, wt.peerID, address, pc.LocalDescription().SDP); err != nil {
		return nil, fmt.Errorf("publishing SDP offer: %w", err)
	}
	wt.logger.Info("WebRTC offer published", "host", address)

	answerSDP, err := wt.waitForAnswer(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("waiting for SDP answer: %w", err)
	}
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answerSDP}
	if err := pc.SetRemoteDescription(answer); err != nil {
		return nil, fmt.Errorf("setting remote description: %w", err)
	}

	timer := time.NewTimer(channelOpenTimeout)
	defer timer.Stop()
	select {
	case <-opened:
	case <-timer.C:
		return nil, fmt.Errorf("event channel did not open within %s", channelOpenTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-wt.closed:
		return nil, net.ErrClosed
	}

	rawChannel, err := dc.Detach()
	if err != nil {
		return nil, fmt.Errorf("detaching event channel: %w", err)
	}
	return NewDataChannelConn(
		rawChannel,
		wt.peerID+"/"+EventChannelLabel,
		address+"/"+EventChannelLabel,
		func() { pc.Close() },
	), nil
}

// waitForAnswer polls the signaler for an answer from the given host.
func (wt *WebRTCTransport) waitForAnswer(ctx context.Context, hostID string) (string, error) {
	deadline := time.NewTimer(answerTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(wt.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-deadline.C:
			return "", fmt.Errorf("timed out after %s", answerTimeout)
		case <-ctx.Done():
			return "", ctx.Err()
		case <-wt.closed:
			return "", net.ErrClosed
		case <-ticker.C:
			answers, err := wt.signaler.PollAnswers(ctx, wt.peerID)
			if err != nil {
				wt.logger.Warn("polling for SDP answer failed", "error", err)
				continue
			}
			for _, answer := range answers {
				if answer.PeerID == hostID {
					return answer.SDP, nil
				}
			}
		}
	}
}

// processOffers answers every new offer. An offer from a peer that
// already has a PeerConnection replaces it: the client has redialed.
func (wt *WebRTCTransport) processOffers(ctx context.Context, handler ConnectionHandler) {
	offers, err := wt.signaler.PollOffers(ctx, wt.peerID)
	if err != nil {
		wt.logger.Warn("polling for SDP offers failed", "error", err)
		return
	}
	for _, offer := range offers {
		wt.mu.Lock()
		existing, ok := wt.peers[offer.PeerID]
		delete(wt.peers, offer.PeerID)
		wt.mu.Unlock()
		if ok {
			existing.Close()
		}

		if err := wt.answerOffer(ctx, offer, handler); err != nil {
			wt.logger.Error("answering WebRTC offer failed", "peer", offer.PeerID, "error", err)
		}
	}
}

func (wt *WebRTCTransport) answerOffer(ctx context.Context, offer SignalMessage, handler ConnectionHandler) error {
	pc, err := wt.newPeerConnection()
	if err != nil {
		return fmt.Errorf("creating PeerConnection: %w", err)
	}

	peerID := offer.PeerID
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		wt.handleDataChannel(pc, dc, peerID, handler)
	})
	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		wt.logger.Debug("ICE state change", "peer", peerID, "state", state.String())
		if state == webrtc.ICEConnectionStateFailed {
			pc.Close()
		}
	})
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if state == webrtc.PeerConnectionStateClosed {
			wt.forgetPeer(peerID, pc)
		}
	})

	remoteOffer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offer.SDP}
	if err := pc.SetRemoteDescription(remoteOffer); err != nil {
		pc.Close()
		return fmt.Errorf("setting remote description: %w", err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return fmt.Errorf("creating SDP answer: %w", err)
	}
	if err := wt.setLocalAndGather(ctx, pc, answer); err != nil {
		pc.Close()
		return err
	}

	wt.mu.Lock()
	wt.peers[peerID] = pc
	wt.mu.Unlock()

	if err := wt.signaler.PublishAnswer(ctx, peerID, wt.peerID, pc.LocalDescription().SDP); err != nil {
		wt.forgetPeer(peerID, pc)
		pc.Close()
		return fmt.Errorf("publishing SDP answer: %w", err)
	}
	wt.logger.Info("WebRTC offer answered", "peer", peerID)
	return nil
}

// handleDataChannel hands the event channel to handler once it opens.
func (wt *WebRTCTransport) handleDataChannel(pc *webrtc.PeerConnection, dc *webrtc.DataChannel, peerID string, handler ConnectionHandler) {
	if dc.Label() != EventChannelLabel {
		wt.logger.Warn("refusing unexpected data channel", "peer", peerID, "label", dc.Label())
		dc.OnOpen(func() { dc.Close() })
		return
	}

	dc.OnOpen(func() {
		rawChannel, err := dc.Detach()
		if err != nil {
			wt.logger.Error("detaching event channel failed", "peer", peerID, "error", err)
			pc.Close()
			return
		}
		route, err := selectedRoute(pc)
		if err != nil {
			wt.logger.Warn("selected candidate pair unavailable", "peer", peerID, "error", err)
		}
		conn := NewDataChannelConn(
			rawChannel,
			wt.peerID+"/"+EventChannelLabel,
			peerID+"/"+EventChannelLabel,
			func() { pc.Close() },
		)
		select {
		case <-wt.closed:
			conn.Close()
			return
		default:
		}
		go handler(conn, route)
	})
}

func (wt *WebRTCTransport) forgetPeer(peerID string, pc *webrtc.PeerConnection) {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	if current, ok := wt.peers[peerID]; ok && current == pc {
		delete(wt.peers, peerID)
	}
}

// setLocalAndGather applies the local description and waits for ICE
// gathering to finish, so the published SDP carries every candidate.
func (wt *WebRTCTransport) setLocalAndGather(ctx context.Context, pc *webrtc.PeerConnection, description webrtc.SessionDescription) error {
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(description); err != nil {
		return fmt.Errorf("setting local description: %w", err)
	}
	timer := time.NewTimer(iceGatherTimeout)
	defer timer.Stop()
	select {
	case <-gatherComplete:
		return nil
	case <-timer.C:
		return fmt.Errorf("ICE gathering timed out after %s", iceGatherTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// newPeerConnection creates a PeerConnection that allows detached data
// channels and loopback candidates. Loopback is needed when host and
// client share a machine.
func (wt *WebRTCTransport) newPeerConnection() (*webrtc.PeerConnection, error) {
	settingEngine := webrtc.SettingEngine{}
	settingEngine.DetachDataChannels()
	settingEngine.SetIncludeLoopbackCandidate(true)

	api := webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine))
	return api.NewPeerConnection(webrtc.Configuration{ICEServers: wt.iceConfig.Servers})
}

// selectedRoute reads the route of pc's selected ICE candidate pair.
// Falls back to a direct route with no addresses when no pair has been
// selected yet.
func selectedRoute(pc *webrtc.PeerConnection) (protocol.TransportRoute, error) {
	sctp := pc.SCTP()
	if sctp == nil {
		return protocol.TransportRoute{}, errors.New("no SCTP transport")
	}
	pair, err := sctp.Transport().ICETransport().GetSelectedCandidatePair()
	if err != nil {
		return protocol.TransportRoute{}, err
	}
	if pair == nil {
		return protocol.TransportRoute{}, errors.New("no candidate pair selected")
	}
	return routeForCandidatePair(pair), nil
}
