package dockercmd

import (
	"strings"
	"testing"
)

func TestParseLineSteps(t *testing.T) {
	tests := []struct {
		line        string
		stage       string
		step, total int
		instruction string
	}{
		{"Step 1/5 : FROM golang:1.24", "", 1, 5, "FROM golang:1.24"},
		{"Step 12/12 : CMD [\"/app\"]", "", 12, 12, `CMD ["/app"]`},
		{"#5 [2/4] RUN go build ./...", "", 2, 4, "RUN go build ./..."},
		{"#7 [builder 3/5] COPY . .", "builder", 3, 5, "COPY . ."},
		{"#9 [stage-1 1/2] FROM docker.io/library/alpine", "stage-1", 1, 2, "FROM docker.io/library/alpine"},
		{"#11 [linux/arm64 builder 2/3] RUN go build", "linux/arm64 builder", 2, 3, "RUN go build"},
	}
	for _, tt := range tests {
		event, ok := ParseLine(tt.line)
		if !ok {
			t.Fatalf("expected step event for %q", tt.line)
		}
		if event.Kind != EventStep || event.Stage != tt.stage || event.Step != tt.step || event.TotalSteps != tt.total || event.Instruction != tt.instruction {
			t.Fatalf("unexpected event for %q: %+v", tt.line, event)
		}
	}
}

func TestParseLineLayers(t *testing.T) {
	tests := []struct {
		line  string
		layer string
		state string
	}{
		{"5f70bf18a086: Preparing", "5f70bf18a086", LayerPreparing},
		{"5f70bf18a086: Waiting", "5f70bf18a086", LayerWaiting},
		{"5f70bf18a086: Pushing [==>      ]  1.2MB/20MB", "5f70bf18a086", LayerPushing},
		{"5f70bf18a086: Pushed", "5f70bf18a086", LayerPushed},
		{"a1b2c3d4e5f6: Layer already exists", "a1b2c3d4e5f6", LayerExists},
		{"a1b2c3d4e5f6: Mounted from library/alpine", "a1b2c3d4e5f6", LayerMounted},
		{"a1b2c3d4e5f6: Pull complete", "a1b2c3d4e5f6", LayerPulled},
	}
	for _, tt := range tests {
		event, ok := ParseLine(tt.line)
		if !ok {
			t.Fatalf("expected layer event for %q", tt.line)
		}
		if event.Kind != EventLayer || event.Layer != tt.layer || event.LayerState != tt.state {
			t.Fatalf("unexpected event for %q: %+v", tt.line, event)
		}
	}
}

func TestParseLineDigestAndImage(t *testing.T) {
	digest := "sha256:" + strings.Repeat("ab", 32)
	event, ok := ParseLine("latest: digest: " + digest + " size: 1573")
	if !ok || event.Kind != EventDigest {
		t.Fatalf("expected digest event, got %+v ok=%v", event, ok)
	}
	if event.Tag != "latest" || event.Digest != digest || event.Size != 1573 {
		t.Fatalf("unexpected digest event %+v", event)
	}

	event, ok = ParseLine("Successfully built 0d1f2e3c4b5a")
	if !ok || event.Kind != EventImage || event.ImageID != "0d1f2e3c4b5a" {
		t.Fatalf("unexpected image event %+v", event)
	}

	event, ok = ParseLine("#12 writing image sha256:deadbeef done")
	if !ok || event.Kind != EventImage || event.ImageID != "sha256:deadbeef" {
		t.Fatalf("unexpected buildkit image event %+v", event)
	}
}

func TestParseLineIgnoresNoise(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"The push refers to repository [docker.io/library/app]",
		"#1 [internal] load build definition from Dockerfile",
		" ---> Running in 4c3b2a1f0e9d",
		"Sending build context to Docker daemon  2.048kB",
		"abc: Pushed",
		"5f70bf18a086: Something unexpected",
	} {
		if event, ok := ParseLine(line); ok {
			t.Fatalf("expected %q to be ignored, got %+v", line, event)
		}
	}
}

func TestParseLineHandlesCarriageReturns(t *testing.T) {
	event, ok := ParseLine("5f70bf18a086: Pushing [=>  ]\r5f70bf18a086: Pushed\r")
	if !ok || event.LayerState != LayerPushed {
		t.Fatalf("expected last redraw to win, got %+v ok=%v", event, ok)
	}
}
