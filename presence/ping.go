package presence

import (
	"fmt"
	"os/exec"
	"time"

	"wanwatch/models"
)

var fnPingCmd = func(ip string, timeout time.Duration) error {
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	return exec.Command("ping", "-c", "1", "-W", fmt.Sprintf("%d", secs), ip).Run()
}

// ExecPinger sends one echo request via the system ping binary. Used by
// the trigger engine to double-check a client that looks offline before
// the offline action fires.
type ExecPinger struct {
	Timeout time.Duration
}

func (p ExecPinger) Ping(ip models.Ip) bool {
	return fnPingCmd(string(ip), p.Timeout) == nil
}
