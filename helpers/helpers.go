package helpers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// Socket is the file name of one of the Hyprland sockets.
type Socket string

const (
	// Request/response socket, one connection per request.
	RequestSocket Socket = ".socket.sock"
	// Push socket with newline separated "key>>value" events.
	EventSocket Socket = ".socket2.sock"
)

var ErrorEmptyHis = errors.New("HYPRLAND_INSTANCE_SIGNATURE is empty")

// Returns a Hyprland socket path.
func GetSocket(socket Socket) (string, error) {
	his := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if his == "" {
		return "", fmt.Errorf("%w, are you using Hyprland?", ErrorEmptyHis)
	}

	// https://github.com/hyprwm/Hyprland/blob/83a5395eaa99fecef777827fff1de486c06b6180/hyprctl/main.cpp#L53-L62
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join("/run/user", strconv.Itoa(unix.Getuid()))
	}

	return filepath.Join(runtimeDir, "hypr", his, string(socket)), nil
}
