package protocol

import (
	"fmt"
	"strings"
)

// NetworkAndAddress picks a unix socket for paths and tcp otherwise,
// filling in the default port when none is given.
func NetworkAndAddress(address string) (string, string) {
	var network string
	if strings.ContainsAny(address, `\/`) {
		network = "unix"
	} else {
		network = "tcp"

		if !strings.Contains(address, `:`) {
			address = fmt.Sprintf("%s:%d", address, DefaultPort)
		}
	}

	return network, address
}
