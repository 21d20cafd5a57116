package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lrcview/pkg/fileutil"
)

const writeTimeout = time.Second

// Server pushes the active lyric line to every client connected to a unix
// socket. Each message is one line terminated by "\n".
type Server struct {
	socketPath      string
	stateFile       string
	listener        net.Listener
	clientConns     map[net.Conn]struct{}
	clientConnsLock sync.Mutex
	current         string
	currentLock     sync.Mutex
	lockFile        *os.File
	lockFilePath    string
	logger          zerolog.Logger
}

// NewServer creates a server for socketPath. When stateFile is not empty the
// latest line is also mirrored there for status bars that poll a file.
func NewServer(socketPath, stateFile string) *Server {
	return &Server{
		socketPath:   socketPath,
		stateFile:    stateFile,
		clientConns:  make(map[net.Conn]struct{}),
		lockFilePath: socketPath + ".lock",
		logger:       log.With().Str("component", "ipc").Logger(),
	}
}

// cleanStaleLock removes a lock file left behind by a process that is gone.
func (s *Server) cleanStaleLock() {
	content, err := os.ReadFile(s.lockFilePath)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	pidStr := strings.TrimSpace(string(content))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		s.logger.Warn().Str("pid_str", pidStr).Msg("Invalid PID in lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	if !isProcessRunning(pid) {
		s.logger.Info().Int("old_pid", pid).Msg("Process in lock file is not running, removing lock file")
		os.Remove(s.lockFilePath)
		return
	}
	s.logger.Debug().Int("existing_pid", pid).Msg("Lock file owner is still running")
}

// isProcessRunning sends signal 0 to pid, which checks existence only.
func isProcessRunning(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

func (s *Server) acquireLock() error {
	s.cleanStaleLock()

	file, err := os.OpenFile(s.lockFilePath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return fmt.Errorf("another lrcview instance is already serving %s", s.socketPath)
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if err := writePID(file); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return fmt.Errorf("failed to write PID to lock file: %w", err)
	}

	s.lockFile = file
	s.logger.Info().Str("lock_file", s.lockFilePath).Int("pid", os.Getpid()).Msg("Acquired process lock")
	return nil
}

// writePID replaces the lock file contents with the current PID.
func writePID(file *os.File) error {
	if err := file.Truncate(0); err != nil {
		return err
	}
	_, err := fmt.Fprintf(file, "%d\n", os.Getpid())
	return err
}

func (s *Server) releaseLock() {
	if s.lockFile == nil {
		return
	}
	syscall.Flock(int(s.lockFile.Fd()), syscall.LOCK_UN)
	s.lockFile.Close()
	os.Remove(s.lockFilePath)
	s.logger.Info().Str("lock_file", s.lockFilePath).Msg("Released process lock")
	s.lockFile = nil
}

// Start takes the process lock and begins accepting clients.
func (s *Server) Start() error {
	if err := s.acquireLock(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		s.releaseLock()
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.releaseLock()
		return err
	}
	s.listener = listener

	s.logger.Info().Str("socket_path", s.socketPath).Msg("IPC server listening")

	go s.acceptConnections()
	return nil
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to accept IPC connection")
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	s.logger.Info().Msg("Client connected")

	// Registering and sending the current line under both locks keeps a
	// concurrent Broadcast from reaching the client before its first line.
	s.currentLock.Lock()
	s.clientConnsLock.Lock()
	s.clientConns[conn] = struct{}{}
	s.clientConnsLock.Unlock()
	current := s.current
	var err error
	if current != "" {
		err = writeLine(conn, current)
	}
	s.currentLock.Unlock()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to send current line")
	}

	// clients never send anything; a read error means they went away
	buf := make([]byte, 1)
	for {
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}

	s.removeClient(conn)
	s.logger.Info().Msg("Client disconnected")
}

func (s *Server) removeClient(conn net.Conn) {
	s.clientConnsLock.Lock()
	delete(s.clientConns, conn)
	s.clientConnsLock.Unlock()
	conn.Close()
}

func writeLine(conn net.Conn, line string) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := conn.Write([]byte(line + "\n"))
	return err
}

// Broadcast makes line the current line and sends it to every client. Line
// breaks inside line are flattened to spaces to keep the framing intact.
func (s *Server) Broadcast(line string) {
	line = strings.ReplaceAll(line, "\n", " ")

	if s.stateFile != "" {
		if err := fileutil.WriteFileOverwrite(s.stateFile, []byte(line+"\n"), 0644); err != nil {
			s.logger.Warn().Err(err).Str("state_file", s.stateFile).Msg("Failed to write state file")
		}
	}

	s.currentLock.Lock()
	defer s.currentLock.Unlock()
	s.current = line

	s.clientConnsLock.Lock()
	defer s.clientConnsLock.Unlock()
	for conn := range s.clientConns {
		if err := writeLine(conn, line); err != nil {
			s.logger.Error().Err(err).Msg("Failed to write to client, removing")
			conn.Close()
			delete(s.clientConns, conn)
		}
	}
}

// Current returns the last broadcast line.
func (s *Server) Current() string {
	s.currentLock.Lock()
	defer s.currentLock.Unlock()
	return s.current
}

// Close stops listening, disconnects clients and releases the lock.
func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}

	s.clientConnsLock.Lock()
	for conn := range s.clientConns {
		conn.Close()
		delete(s.clientConns, conn)
	}
	s.clientConnsLock.Unlock()

	s.releaseLock()
}
