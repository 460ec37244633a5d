// Package transport serves the preview tools to MCP clients and keeps the
// client sessions to external risk scorers alive.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/Easy-Infra-Ltd/phish-preview/src/config"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ScorerConn is a connected risk scorer. Config.Tool names the tool that
// receives the email text.
type ScorerConn struct {
	Name    string
	Session *mcp.ClientSession
	Config  config.ScorerConfig
}

// TransportFactory opens the transport to a scorer. Tests pass in-memory
// transports here.
type TransportFactory func(config.ScorerConfig) (mcp.Transport, error)

// ScorerManager holds the sessions used to score previews. Scorers that
// drop out are pinged and redialled in the background; a preview is
// scored by whichever scorers are connected at the time.
type ScorerManager struct {
	mu               sync.RWMutex
	conns            map[string]*ScorerConn
	logger           *slog.Logger
	transportFactory TransportFactory

	cancelHealthCheck context.CancelFunc
}

// NewScorerManager dials every configured scorer. A scorer that cannot be
// reached only costs previews their risk score, so failures are logged and
// left to the health loop. A nil transportFactory dials stdio commands and
// HTTP endpoints from the config.
func NewScorerManager(ctx context.Context, scorers []config.ScorerConfig, logger *slog.Logger, transportFactory TransportFactory) *ScorerManager {
	if transportFactory == nil {
		transportFactory = newTransport
	}
	sm := &ScorerManager{
		conns:            make(map[string]*ScorerConn, len(scorers)),
		logger:           logger.With("area", "scorers"),
		transportFactory: transportFactory,
	}

	for _, sc := range scorers {
		conn, err := sm.connect(ctx, sc)
		if err != nil {
			sm.logger.Warn("failed to connect, will retry", "scorer", sc.Name, "err", err)
			continue
		}
		sm.conns[sc.Name] = conn
		sm.logger.Info("connected", "scorer", sc.Name, "transport", sc.Transport, "tool", sc.Tool)
	}

	if len(scorers) == 0 {
		return sm
	}
	if len(sm.conns) == 0 {
		sm.logger.Warn("no scorers connected, previews will carry no risk score")
	}

	hctx, cancel := context.WithCancel(ctx)
	sm.cancelHealthCheck = cancel
	go sm.healthCheckLoop(hctx, scorers)

	return sm
}

// Session returns the named scorer's session, or nil while it is down.
func (sm *ScorerManager) Session(name string) *mcp.ClientSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	conn, ok := sm.conns[name]
	if !ok {
		return nil
	}
	return conn.Session
}

// Conns returns the scorers currently able to answer, ordered by name so
// that ties between equal scores resolve the same way every time.
func (sm *ScorerManager) Conns() []*ScorerConn {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*ScorerConn, 0, len(sm.conns))
	for _, c := range sm.conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close stops redialling and hangs up on every scorer.
func (sm *ScorerManager) Close() {
	if sm.cancelHealthCheck != nil {
		sm.cancelHealthCheck()
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	for name, conn := range sm.conns {
		if err := conn.Session.Close(); err != nil {
			sm.logger.Error("error closing session", "scorer", name, "err", err)
		}
	}
	sm.conns = make(map[string]*ScorerConn)
}

func (sm *ScorerManager) connect(ctx context.Context, sc config.ScorerConfig) (*ScorerConn, error) {
	client := mcp.NewClient(
		&mcp.Implementation{
			Name:    ImplementationName,
			Version: Version,
		},
		&mcp.ClientOptions{Logger: sm.logger},
	)

	transport, err := sm.transportFactory(sc)
	if err != nil {
		return nil, fmt.Errorf("creating transport for %s: %w", sc.Name, err)
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", sc.Name, err)
	}

	return &ScorerConn{
		Name:    sc.Name,
		Session: session,
		Config:  sc,
	}, nil
}

func newTransport(sc config.ScorerConfig) (mcp.Transport, error) {
	switch sc.Transport {
	case config.TransportStdio:
		if len(sc.Command) == 0 {
			return nil, fmt.Errorf("stdio transport requires a command")
		}
		cmd := exec.Command(sc.Command[0], sc.Command[1:]...)
		return &mcp.CommandTransport{Command: cmd}, nil

	case config.TransportHTTP:
		if sc.URL == "" {
			return nil, fmt.Errorf("http transport requires a url")
		}
		return &mcp.StreamableClientTransport{Endpoint: sc.URL}, nil

	default:
		return nil, fmt.Errorf("unsupported transport: %s", sc.Transport)
	}
}

// healthCheckInterval is how long a scorer can be down before previews
// pick it up again.
const healthCheckInterval = 30 * time.Second

func (sm *ScorerManager) healthCheckLoop(ctx context.Context, scorers []config.ScorerConfig) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	cfgByName := make(map[string]config.ScorerConfig, len(scorers))
	for _, sc := range scorers {
		cfgByName[sc.Name] = sc
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.checkAndReconnect(ctx, cfgByName)
		}
	}
}

// checkAndReconnect pings connected scorers and redials any that fail or
// were never connected. A scorer that stays down is dropped from Conns.
func (sm *ScorerManager) checkAndReconnect(ctx context.Context, cfgs map[string]config.ScorerConfig) {
	if ctx.Err() != nil {
		return
	}

	for name, cfg := range cfgs {
		sm.mu.RLock()
		conn, connected := sm.conns[name]
		sm.mu.RUnlock()

		if connected {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Session.Ping(pingCtx, &mcp.PingParams{})
			cancel()
			if err == nil {
				continue
			}
			sm.logger.Warn("health check failed, reconnecting", "scorer", name, "err", err)
			_ = conn.Session.Close()
		}

		newConn, err := sm.connect(ctx, cfg)
		if err != nil {
			sm.logger.Error("reconnect failed", "scorer", name, "err", err)
			sm.mu.Lock()
			delete(sm.conns, name)
			sm.mu.Unlock()
			continue
		}

		sm.mu.Lock()
		sm.conns[name] = newConn
		sm.mu.Unlock()
		sm.logger.Info("reconnected", "scorer", name)
	}
}
