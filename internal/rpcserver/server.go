// Package rpcserver implements the daemon side of the control protocol:
// a Unix domain socket listener dispatching Pause/Reload/Restart/Shutdown/
// Status/Scan requests to a Mission.
package rpcserver

import (
	"bufio"
	"context"
	"net"
	"os"

	"github.com/excludewatch/excludewatch/internal/logging"
	"github.com/excludewatch/excludewatch/internal/mission"
	"github.com/excludewatch/excludewatch/internal/rpcproto"
)

// Server owns the Unix domain socket listener and dispatches requests to
// a Mission.
type Server struct {
	socketPath string
	mission    *mission.Mission
	log        *logging.Logger
	listener   net.Listener
	shutdownCh chan struct{}
}

// New binds a Unix domain socket at socketPath. Any stale socket file left
// behind by a previous unclean shutdown is removed first.
func New(socketPath string, m *mission.Mission, log *logging.Logger) (*Server, error) {
	_ = os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}
	return &Server{
		socketPath: socketPath,
		mission:    m,
		log:        log,
		listener:   ln,
		shutdownCh: make(chan struct{}),
	}, nil
}

// Serve accepts connections until ctx is canceled or Shutdown is requested
// by a client.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
		case <-s.shutdownCh:
		}
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdownCh:
				return nil
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handle(conn)
	}
}

// ShutdownRequested reports whether a client asked the daemon to exit.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdownCh
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	versionBuf := make([]byte, 1)
	if _, err := conn.Read(versionBuf); err != nil {
		return
	}
	if versionBuf[0] != rpcproto.ProtocolVersion {
		s.log.Warnf("rejecting connection with protocol version %d", versionBuf[0])
		return
	}

	reader := bufio.NewReader(conn)
	var req rpcproto.Request
	if err := rpcproto.ReadFrame(reader, &req); err != nil {
		s.log.Warnf("failed to read rpc request: %v", err)
		return
	}

	resp := s.dispatch(req)
	if _, err := conn.Write([]byte{rpcproto.ProtocolVersion}); err != nil {
		return
	}
	if err := rpcproto.WriteFrame(conn, resp); err != nil {
		s.log.Warnf("failed to write rpc response: %v", err)
	}
}

func (s *Server) dispatch(req rpcproto.Request) rpcproto.Response {
	switch req.Command {
	case rpcproto.CommandPause:
		s.mission.Pause()
		return rpcproto.Response{OK: true, State: s.mission.State().String()}

	case rpcproto.CommandReload:
		if err := s.mission.SetConfig(); err != nil {
			return rpcproto.Response{OK: false, Error: err.Error()}
		}
		return rpcproto.Response{OK: true, State: s.mission.State().String()}

	case rpcproto.CommandRestart:
		s.mission.Restart()
		return rpcproto.Response{OK: true, State: s.mission.State().String()}

	case rpcproto.CommandShutdown:
		close(s.shutdownCh)
		return rpcproto.Response{OK: true}

	case rpcproto.CommandStatus:
		snap := s.mission.MetricsSnapshot()
		return rpcproto.Response{
			OK:       true,
			State:    s.mission.State().String(),
			Excluded: snap.Excluded,
			Included: snap.Included,
		}

	case rpcproto.CommandScan:
		return s.dispatchScan(req)

	default:
		return rpcproto.Response{OK: false, Error: "unknown command"}
	}
}

func (s *Server) dispatchScan(req rpcproto.Request) rpcproto.Response {
	statuses := s.mission.StartFullScan()
	var final *rpcproto.Response
	for st := range statuses {
		if st.Scanning {
			continue
		}
		if st.Err != nil {
			r := rpcproto.Response{OK: false, Error: st.Err.Error()}
			final = &r
			continue
		}
		if !req.DryRun {
			if err := s.mission.ApplyActionBatch(st.Result); err != nil {
				r := rpcproto.Response{OK: false, Error: err.Error()}
				final = &r
				continue
			}
		}
		r := rpcproto.Response{OK: true, ScannedAdd: st.Result.Add, ScannedDel: st.Result.Remove}
		final = &r
	}
	if final == nil {
		return rpcproto.Response{OK: false, Error: "scan produced no result"}
	}
	return *final
}
