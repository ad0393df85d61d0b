// Package all imports all backends implemented by the input package.
package all

import (
	_ "github.com/siradar/zenith/input/exec"
	_ "github.com/siradar/zenith/input/stdin"
	_ "github.com/siradar/zenith/input/synth"
	_ "github.com/siradar/zenith/input/udp"
)
