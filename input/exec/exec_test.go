package exec

import (
	"context"
	osexec "os/exec"
	"testing"
	"time"

	"github.com/siradar/zenith/frame"
	"github.com/siradar/zenith/input"
)

func TestParseDevice(t *testing.T) {
	d, err := Backend{}.ParseDevice("hex:relay --notify  ff01")
	if err != nil {
		t.Fatal(err)
	}

	dev := d.(Device)
	if !dev.Hex || len(dev.Argv) != 3 || dev.Argv[0] != "relay" {
		t.Fatalf("unexpected device %+v", dev)
	}
	if dev.String() != "hex:relay --notify ff01" {
		t.Fatalf("unexpected string %q", dev.String())
	}

	if _, err := (Backend{}).ParseDevice("hex:  "); err == nil {
		t.Fatal("expected error for an empty command")
	}
}

func TestGetDeviceUsesParser(t *testing.T) {
	b, err := input.InitBackend("exec")
	if err != nil {
		t.Fatal(err)
	}

	d, err := input.GetDevice(b, "cat payloads.bin")
	if err != nil {
		t.Fatal(err)
	}
	if dev := d.(Device); dev.Hex || dev.Argv[0] != "cat" {
		t.Fatalf("unexpected device %+v", dev)
	}
}

func TestRelayHex(t *testing.T) {
	sh, err := osexec.LookPath("sh")
	if err != nil {
		t.Skip("no shell available")
	}

	cfg := input.SessionConfig{
		Device: Device{
			Argv: []string{sh, "-c", "printf '0102\\n0304\\n'"},
			Hex:  true,
		},
		Frame: frame.Config{WordWidth: frame.Q15, WordCount: 1},
	}

	sess, err := Backend{}.Start(cfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dst := make(chan []byte, 4)
	if err := sess.Start(ctx, dst); err != nil {
		t.Fatal(err)
	}
	close(dst)

	var got [][]byte
	for p := range dst {
		got = append(got, p)
	}

	if len(got) != 2 || got[0][0] != 0x01 || got[1][1] != 0x04 {
		t.Fatalf("unexpected payloads %x", got)
	}
}
