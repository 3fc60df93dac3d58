package manager

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hoppxi/ddclight/internal/brightness"
	"github.com/hoppxi/ddclight/pkg/displayinfo"
	"github.com/hoppxi/ddclight/pkg/operation"
)

var ErrNoDevice = errors.New("no monitor selected")

// Opener selects a monitor by model name ("" for the first usable one).
type Opener func(device string) (brightness.Backend, error)

// Observer is told about every state the daemon settles in. info is nil
// when no monitor is selected.
type Observer interface {
	ObserveState(info *displayinfo.DisplayInfo)
	ObserveWrite(err error)
	ObserveRescan()
}

// AppManager owns the selected monitor for the lifetime of the daemon and
// serializes every access to it.
type AppManager struct {
	mu       sync.Mutex
	backend  brightness.Backend
	lastErr  error
	settings Settings
	open     Opener
	logger   *slog.Logger

	obsMu     sync.Mutex
	observers []Observer
	onChange  []func(*displayinfo.DisplayInfo)

	stopMu   sync.Mutex
	stops    []chan struct{}
	wg       sync.WaitGroup
	listener net.Listener
	done     chan struct{}
	doneOnce sync.Once
}

func NewAppManager(settings Settings, open Opener, logger *slog.Logger) *AppManager {
	return &AppManager{
		settings: settings,
		open:     open,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func SocketPath(configured string) string {
	if configured != "" {
		return configured
	}

	baseDir := os.Getenv("XDG_RUNTIME_DIR")
	if baseDir == "" {
		baseDir = os.TempDir()
	}

	socketDir := filepath.Join(baseDir, "ddclight")
	if err := os.MkdirAll(socketDir, 0o700); err != nil {
		return filepath.Join(os.TempDir(), "ddclight-socket.sock")
	}
	return filepath.Join(socketDir, "socket.sock")
}

func (m *AppManager) AddObserver(o Observer) {
	m.obsMu.Lock()
	m.observers = append(m.observers, o)
	m.obsMu.Unlock()
}

// OnChange registers f to be called after every successful change.
func (m *AppManager) OnChange(f func(*displayinfo.DisplayInfo)) {
	m.obsMu.Lock()
	m.onChange = append(m.onChange, f)
	m.obsMu.Unlock()
}

// Done is closed when a client asked the daemon to stop.
func (m *AppManager) Done() <-chan struct{} {
	return m.done
}

// Rescan releases the current monitor and runs discovery again.
func (m *AppManager) Rescan() (*displayinfo.DisplayInfo, error) {
	m.mu.Lock()
	info, err := m.rescanLocked()
	m.mu.Unlock()

	m.each(func(o Observer) {
		o.ObserveRescan()
		o.ObserveState(info)
	})
	if err != nil {
		m.logger.Warn("monitor discovery failed", "device", m.Settings().Device, "error", err)
		return nil, err
	}
	m.logger.Info("monitor selected", "model", info.Model, "current", info.Current, "max", info.Max)
	return info, nil
}

func (m *AppManager) rescanLocked() (*displayinfo.DisplayInfo, error) {
	if m.backend != nil {
		if err := m.backend.Close(); err != nil {
			m.logger.Debug("closing monitor", "error", err)
		}
		m.backend = nil
	}

	b, err := m.open(m.settings.Device)
	if err != nil {
		m.lastErr = err
		return nil, err
	}
	m.backend = b
	m.lastErr = nil
	return displayinfo.GetDisplayInfo(b), nil
}

// Info reports the selected monitor's state.
func (m *AppManager) Info() (*displayinfo.DisplayInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend == nil {
		return nil, m.noDeviceErr()
	}
	return displayinfo.GetDisplayInfo(m.backend), nil
}

// Apply runs cmd with the configured floor.
func (m *AppManager) Apply(cmd operation.Command) (*displayinfo.DisplayInfo, error) {
	return m.ApplyWithFloor(cmd, m.Settings().Min)
}

func (m *AppManager) ApplyWithFloor(cmd operation.Command, floor uint32) (*displayinfo.DisplayInfo, error) {
	m.mu.Lock()
	if m.backend == nil {
		err := m.noDeviceErr()
		m.mu.Unlock()
		return nil, err
	}
	err := cmd.Apply(m.backend, floor)
	info := displayinfo.GetDisplayInfo(m.backend)
	m.mu.Unlock()

	m.each(func(o Observer) { o.ObserveWrite(err) })
	if err != nil {
		m.logger.Warn("brightness command failed", "command", cmd.String(), "floor", floor, "error", err)
		return nil, err
	}

	m.logger.Debug("brightness command applied", "command", cmd.String(), "floor", floor, "level", info.Level)
	m.each(func(o Observer) { o.ObserveState(info) })

	m.obsMu.Lock()
	callbacks := m.onChange
	m.obsMu.Unlock()
	for _, f := range callbacks {
		f(info)
	}
	return info, nil
}

func (m *AppManager) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// UpdateSettings applies reloaded settings. A new device name triggers a
// rescan.
func (m *AppManager) UpdateSettings(s Settings) {
	m.mu.Lock()
	deviceChanged := s.Device != m.settings.Device
	m.settings = s
	m.mu.Unlock()

	m.logger.Info("config reloaded", "step", s.Step, "min", s.Min, "notify", s.Notify)
	if deviceChanged {
		_, _ = m.Rescan()
	}
}

func (m *AppManager) noDeviceErr() error {
	if m.lastErr != nil {
		return m.lastErr
	}
	return ErrNoDevice
}

func (m *AppManager) each(f func(Observer)) {
	m.obsMu.Lock()
	obs := m.observers
	m.obsMu.Unlock()
	for _, o := range obs {
		f(o)
	}
}

// StartIPCServer listens on path and serves requests until StopAll.
func (m *AppManager) StartIPCServer(path string) error {
	_ = os.Remove(path)

	listener, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", path, err)
	}

	m.stopMu.Lock()
	m.listener = listener
	m.stopMu.Unlock()

	m.logger.Info("IPC server listening", "socket", path)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
			go m.handleConnection(conn)
		}
	}()
	return nil
}

func (m *AppManager) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}

	reply := m.dispatch(strings.TrimSpace(string(buf[:n])))
	_, _ = conn.Write([]byte(reply))
}

func (m *AppManager) dispatch(request string) string {
	fields := strings.Fields(request)
	if len(fields) == 0 {
		return "ERR: unknown command"
	}

	switch fields[0] {
	case "STATUS":
		return "OK: running"

	case "STOP":
		m.logger.Info("received STOP via IPC, shutting down")
		m.doneOnce.Do(func() { close(m.done) })
		return "OK: Shutting down."

	case "GET":
		return infoReply(m.Info())

	case "RESCAN":
		return infoReply(m.Rescan())

	case "APPLY":
		if len(fields) != 3 {
			return "ERR: usage: APPLY <command> <floor>"
		}
		cmd, err := operation.Parse(fields[1])
		if err != nil {
			return "ERR: " + err.Error()
		}
		floor, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return "ERR: invalid floor " + strconv.Quote(fields[2])
		}
		return infoReply(m.ApplyWithFloor(cmd, uint32(floor)))

	default:
		return "ERR: unknown command"
	}
}

func infoReply(info *displayinfo.DisplayInfo, err error) string {
	if err != nil {
		return "ERR: " + err.Error()
	}
	return fmt.Sprintf("OK: %d %d %d %s", info.Current, info.Max, info.Level, info.Model)
}

// ParseInfoReply decodes the reply to GET, RESCAN and APPLY.
func ParseInfoReply(reply string) (*displayinfo.DisplayInfo, error) {
	if msg, ok := strings.CutPrefix(reply, "ERR: "); ok {
		return nil, errors.New(msg)
	}
	rest, ok := strings.CutPrefix(reply, "OK: ")
	if !ok {
		return nil, fmt.Errorf("unexpected reply %q", reply)
	}

	parts := strings.SplitN(rest, " ", 4)
	if len(parts) < 3 {
		return nil, fmt.Errorf("unexpected reply %q", reply)
	}

	var vals [3]uint32
	for i := range vals {
		v, err := strconv.ParseUint(parts[i], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("unexpected reply %q", reply)
		}
		vals[i] = uint32(v)
	}

	info := &displayinfo.DisplayInfo{Current: vals[0], Max: vals[1], Level: vals[2]}
	if len(parts) == 4 {
		info.Model = parts[3]
	}
	return info, nil
}

func (m *AppManager) StartWatcher(f func(stop <-chan struct{})) {
	stop := make(chan struct{})
	m.stopMu.Lock()
	m.stops = append(m.stops, stop)
	m.stopMu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						m.logger.Error("watcher panic", "panic", r)
					}
				}()
				f(stop)
			}()

			select {
			case <-stop:
				return
			case <-time.After(2 * time.Second):
				m.logger.Debug("restarting watcher")
			}
		}
	}()
}

// StopAll stops watchers and the IPC server and releases the monitor.
func (m *AppManager) StopAll() {
	m.stopMu.Lock()
	stops := m.stops
	listener := m.listener
	m.stops = nil
	m.listener = nil
	m.stopMu.Unlock()

	for _, s := range stops {
		close(s)
	}
	if listener != nil {
		_ = listener.Close()
	}
	m.wg.Wait()

	m.mu.Lock()
	if m.backend != nil {
		if err := m.backend.Close(); err != nil {
			m.logger.Debug("closing monitor", "error", err)
		}
		m.backend = nil
	}
	m.mu.Unlock()
}

func ConnectIPC(path string) (net.Conn, error) {
	return net.DialTimeout("unix", path, 500*time.Millisecond)
}

func SendIPCCommand(path, cmd string) (string, error) {
	conn, err := ConnectIPC(path)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", err
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}

	return string(buf[:n]), nil
}
