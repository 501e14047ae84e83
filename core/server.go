package core

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"

	"github.com/gliderlabs/ssh"
	"github.com/juju/ratelimit"
	gossh "golang.org/x/crypto/ssh"
	"pkt.systems/pslog"

	"github.com/gophersh/gosh/core/config"
	"github.com/gophersh/gosh/core/logger"
)

// Server exposes the shell to authenticated SSH clients. Every session runs
// its own Shell; sessions share the activity log and the host's commands.
type Server struct {
	configuration *config.Configuration
	log           *logger.Logger
	diag          pslog.Logger
	sshServer     *ssh.Server
	// sessions throttles admission. nil means unlimited.
	sessions *ratelimit.Bucket
}

func NewServer(configuration *config.Configuration, log *logger.Logger, diag pslog.Logger) (*Server, error) {
	signer, err := ensureHostKey(configuration)
	if err != nil {
		return nil, err
	}

	authorized, err := loadAuthorizedKeys(configuration)
	if err != nil {
		return nil, err
	}

	server := &Server{
		configuration: configuration,
		log:           log,
		diag:          diag,
	}

	if rate := configuration.SSH.SessionsPerMinute; rate > 0 {
		server.sessions = ratelimit.NewBucketWithRate(float64(rate)/60, int64(rate))
	}

	server.sshServer = &ssh.Server{
		Addr: fmt.Sprintf(":%d", configuration.SSH.Port),
		Handler: func(s ssh.Session) {
			server.HandleSession(s)
		},
		PublicKeyHandler: func(ctx ssh.Context, key ssh.PublicKey) bool {
			for _, candidate := range authorized {
				if ssh.KeysEqual(key, candidate) {
					return true
				}
			}
			return false
		},
	}
	server.sshServer.AddHostKey(signer)

	if banner := configuration.SSH.Banner; banner != "" {
		server.sshServer.BannerHandler = func(ctx ssh.Context) string {
			return banner + "\n"
		}
	}

	return server, nil
}

// HandleSession runs the shell over one SSH session.
func (srv *Server) HandleSession(s ssh.Session) {
	if srv.sessions != nil && srv.sessions.TakeAvailable(1) == 0 {
		srv.diag.Warn("session rejected by rate limit", "remote", s.RemoteAddr().String())
		fmt.Fprintln(s.Stderr(), "too many sessions, try again later")
		s.Exit(1)
		return
	}

	events := srv.log.NewSession()
	events.Record(&logger.SessionStart{
		User:       s.User(),
		RemoteAddr: s.RemoteAddr().String(),
	})
	defer events.Record(&logger.SessionEnd{})

	diag := srv.diag.With("session", events.SessionID(), "remote", s.RemoteAddr().String())
	diag.Info("session started", "user", s.User())

	// Spawned commands inherit the shell's stdin as a file descriptor.
	// The session channel is not one, so its input is pumped through a
	// pipe that the shell and its children share the way they would a
	// terminal. Closing the read end on return stops the pump.
	stdin, pump, err := os.Pipe()
	if err != nil {
		diag.Error("session stdin pipe failed", "err", err)
		s.Exit(1)
		return
	}
	defer stdin.Close()
	go func() {
		io.Copy(pump, s)
		pump.Close()
	}()

	_, _, isPty := s.Pty()
	shell := NewShell(srv.configuration, Terminal{
		In:         stdin,
		Out:        s,
		Err:        s.Stderr(),
		IsTerminal: isPty,
	}, events, diag)

	if err := shell.Run(); err != nil {
		diag.Error("session ended with error", "err", err)
		s.Exit(1)
		return
	}

	diag.Info("session ended")
	s.Exit(0)
}

func (srv *Server) ListenAndServe() error {
	srv.diag.Info("starting SSH server", "addr", srv.sshServer.Addr)
	return srv.sshServer.ListenAndServe()
}

// Serve accepts connections on the listener l.
func (srv *Server) Serve(l net.Listener) error {
	srv.diag.Info("starting SSH server", "addr", l.Addr().String())
	return srv.sshServer.Serve(l)
}

func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.sshServer.Shutdown(ctx)
}

// ensureHostKey loads the configured host key, generating and storing a
// fresh ed25519 key on first use.
func ensureHostKey(configuration *config.Configuration) (gossh.Signer, error) {
	pemBytes, err := configuration.HostKeyPem()
	switch {
	case err == nil:
		signer, err := gossh.ParsePrivateKey(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("parse host key: %w", err)
		}
		return signer, nil

	case errors.Is(err, fs.ErrNotExist):
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate host key: %w", err)
		}
		block, err := gossh.MarshalPrivateKey(priv, "gosh host key")
		if err != nil {
			return nil, fmt.Errorf("marshal host key: %w", err)
		}
		if err := configuration.WriteHostKeyPem(pem.EncodeToMemory(block)); err != nil {
			return nil, fmt.Errorf("write host key: %w", err)
		}
		return gossh.NewSignerFromKey(priv)

	default:
		return nil, fmt.Errorf("read host key: %w", err)
	}
}

// loadAuthorizedKeys reads the OpenSSH authorized_keys file that controls who
// may connect. Serving without one is refused.
func loadAuthorizedKeys(configuration *config.Configuration) ([]gossh.PublicKey, error) {
	name := configuration.SSH.AuthorizedKeys

	data, err := configuration.ReadAuthorizedKeys()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s not found, add client public keys to it before serving", name)
		}
		return nil, err
	}

	var keys []gossh.PublicKey
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		key, _, _, _, err := gossh.ParseAuthorizedKey(line)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%s has no keys, add client public keys to it before serving", name)
	}

	return keys, nil
}
