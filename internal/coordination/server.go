package coordination

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog"
)

// Server is the coordination library server (C4): it listens on a TCP
// endpoint and serves MethodCall/MethodResult RPC (§6) against a shared
// State. One Server instance backs the top-level library; nested instances
// created by import_shared_library share the same State so every
// subprocess observes the one shared library instance's data.
type Server struct {
	state    *State
	logger   zerolog.Logger
	listener net.Listener
}

// NewServer binds a TCP listener at addr (host:port). Port 0, or a port
// that cannot be bound, triggers automatic free-port selection: on a failed
// bind NewServer itself retries on the same host with port 0, matching
// §4.4's "automatic free-port selection" requirement.
func NewServer(addr string, state *State, logger zerolog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		ln, err = net.Listen("tcp", hostOf(addr)+":0")
		if err != nil {
			return nil, fmt.Errorf("coordination: binding listener: %w", err)
		}
	}
	return &Server{state: state, logger: logger, listener: ln}, nil
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "127.0.0.1"
	}
	return host
}

// Addr returns the bound TCP address, useful after binding to port 0.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Port returns the bound TCP port.
func (s *Server) Port() int {
	if tcpAddr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return 0
}

// Serve accepts connections until ctx is canceled, handling each on its own
// goroutine. It returns once the listener is closed.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("coordination: accept: %w", err)
			}
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	dec := NewDecoder(conn)
	enc := NewEncoder(conn)

	for {
		call, err := dec.DecodeCall()
		if err != nil {
			return
		}
		result := s.dispatch(call)
		if err := enc.EncodeResult(result); err != nil {
			s.logger.Warn().Err(err).Str("method", call.Method).Msg("failed to write coordination result")
			return
		}
	}
}

func errResult(err error) MethodResult {
	msg := err.Error()
	return MethodResult{Error: &msg}
}

func (s *Server) dispatch(call MethodCall) MethodResult {
	args := call.Args
	arg := func(i int) string {
		if i >= len(args) {
			return ""
		}
		v, _ := args[i].(string)
		return v
	}

	switch call.Method {
	case "set_parallel_value_for_key":
		s.state.SetParallelValue(arg(0), arg(1))
		return MethodResult{Value: true}

	case "get_parallel_value_for_key":
		return MethodResult{Value: s.state.GetParallelValue(arg(0))}

	case "acquire_lock":
		return MethodResult{Value: s.state.AcquireLock(arg(0), arg(1))}

	case "release_lock":
		if err := s.state.ReleaseLock(arg(0), arg(1)); err != nil {
			return errResult(err)
		}
		return MethodResult{Value: true}

	case "release_locks":
		s.state.ReleaseLocks(arg(0))
		return MethodResult{Value: true}

	case "acquire_value_set":
		callerID := arg(0)
		var tags []string
		for _, a := range args[1:] {
			if t, ok := a.(string); ok {
				tags = append(tags, t)
			}
		}
		res, err := s.state.AcquireValueSet(callerID, tags)
		if err != nil {
			return errResult(err)
		}
		if res == nil {
			return MethodResult{Value: nil}
		}
		return MethodResult{Value: map[string]interface{}{"name": res.name, "fields": res.fields}}

	case "release_value_set":
		s.state.ReleaseValueSet(arg(0))
		return MethodResult{Value: true}

	case "disable_value_set":
		s.state.DisableValueSet(arg(0), arg(1))
		return MethodResult{Value: true}

	case "get_value_from_set":
		val, err := s.state.GetValueFromSet(arg(0), arg(1))
		if err != nil {
			return errResult(err)
		}
		return MethodResult{Value: val}

	case "add_suite_to_execution_queue":
		variables := map[string]string{}
		if len(args) > 1 {
			if m, ok := args[1].(map[string]interface{}); ok {
				for k, v := range m {
					if sv, ok := v.(string); ok {
						variables[k] = sv
					}
				}
			}
		}
		s.state.AddSuiteToExecutionQueue(arg(0), variables)
		return MethodResult{Value: true}

	case "get_added_suites":
		added := s.state.GetAddedSuites()
		out := make([]map[string]interface{}, 0, len(added))
		for _, a := range added {
			out = append(out, map[string]interface{}{"name": a.Name, "variables": a.Variables})
		}
		return MethodResult{Value: out}

	case "ignore_execution":
		s.state.IgnoreExecution(arg(0))
		return MethodResult{Value: true}

	case "is_ignored_execution":
		return MethodResult{Value: s.state.IsIgnoredExecution(arg(0))}

	case "import_shared_library":
		port, ok := s.state.LookupSharedLibrary(arg(0), arg(1))
		if !ok {
			nested, err := NewServer("127.0.0.1:0", s.state, s.logger)
			if err != nil {
				return errResult(err)
			}
			go nested.Serve(context.Background())
			port = nested.Port()
			s.state.RegisterSharedLibrary(arg(0), arg(1), port)
		}
		return MethodResult{Value: port}

	case "stop_remote_libraries", "stop_remote_server":
		s.listener.Close()
		return MethodResult{Value: true}

	default:
		return errResult(fmt.Errorf("coordination: unknown method %q", call.Method))
	}
}
