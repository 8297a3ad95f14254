package audio

import (
	"flag"
	"testing"
)

// Tests that open real devices only run with -hardware.
var hardware = flag.Bool("hardware", false, "run tests that need audio hardware")

func needHardware(t *testing.T) {
	if !*hardware {
		t.Skip("skipping: needs -hardware")
	}
}

func chk(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
