package dockercmd

import (
	"regexp"
	"strconv"
	"strings"
)

// EventKind identifies what a parsed output line reported.
type EventKind int

const (
	EventStep EventKind = iota + 1
	EventLayer
	EventDigest
	EventImage
)

// Layer states recorded in the progress file.
const (
	LayerPreparing   = "preparing"
	LayerWaiting     = "waiting"
	LayerPushing     = "pushing"
	LayerPushed      = "pushed"
	LayerExists      = "exists"
	LayerMounted     = "mounted"
	LayerRetrying    = "retrying"
	LayerDownloading = "downloading"
	LayerExtracting  = "extracting"
	LayerPulled      = "pulled"
)

// Event is a single tracked fact extracted from docker output.
type Event struct {
	Kind        EventKind
	Stage       string
	Step        int
	TotalSteps  int
	Instruction string
	Layer       string
	LayerState  string
	Tag         string
	Digest      string
	Size        int64
	ImageID     string
}

var (
	// Step 3/7 : RUN make
	classicStepPattern = regexp.MustCompile(`^Step (\d+)/(\d+)\s*:\s*(.*)$`)
	// #7 [builder 3/5] COPY . .
	// #7 [linux/amd64 builder 3/5] COPY . .
	buildkitStepPattern = regexp.MustCompile(`^#\d+ \[(?:([^\]]*?)\s+)?(\d+)/(\d+)\] (.+)$`)
	// 5f70bf18a086: Pushed
	layerPattern = regexp.MustCompile(`^([0-9a-f]{12,64}): (.+)$`)
	// latest: digest: sha256:... size: 1234
	digestPattern = regexp.MustCompile(`^(\S+): digest: (sha256:[0-9a-f]{64}) size: (\d+)`)
	// Successfully built 0d1f2e3c4b5a
	classicBuiltPattern = regexp.MustCompile(`^Successfully built ([0-9a-f]+)`)
	// #9 writing image sha256:... done
	buildkitImagePattern = regexp.MustCompile(`^#\d+ writing image (sha256:[0-9a-f]+)`)
)

var layerStates = []struct {
	prefix string
	state  string
}{
	{"Preparing", LayerPreparing},
	{"Waiting", LayerWaiting},
	{"Pushing", LayerPushing},
	{"Pushed", LayerPushed},
	{"Layer already exists", LayerExists},
	{"Mounted from", LayerMounted},
	{"Retrying in", LayerRetrying},
	{"Pulling fs layer", LayerWaiting},
	{"Downloading", LayerDownloading},
	{"Verifying Checksum", LayerDownloading},
	{"Download complete", LayerDownloading},
	{"Extracting", LayerExtracting},
	{"Pull complete", LayerPulled},
	{"Already exists", LayerExists},
}

// ParseLine extracts a tracked event from one line of docker output.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSpace(stripCarriage(line))
	if line == "" {
		return Event{}, false
	}

	if m := classicStepPattern.FindStringSubmatch(line); m != nil {
		return stepEvent("", m[1], m[2], m[3])
	}
	if m := buildkitStepPattern.FindStringSubmatch(line); m != nil {
		return stepEvent(m[1], m[2], m[3], m[4])
	}
	if m := digestPattern.FindStringSubmatch(line); m != nil {
		size, _ := strconv.ParseInt(m[3], 10, 64)
		return Event{Kind: EventDigest, Tag: m[1], Digest: m[2], Size: size}, true
	}
	if m := classicBuiltPattern.FindStringSubmatch(line); m != nil {
		return Event{Kind: EventImage, ImageID: m[1]}, true
	}
	if m := buildkitImagePattern.FindStringSubmatch(line); m != nil {
		return Event{Kind: EventImage, ImageID: m[1]}, true
	}
	if m := layerPattern.FindStringSubmatch(line); m != nil {
		status := strings.TrimSpace(m[2])
		for _, candidate := range layerStates {
			if strings.HasPrefix(status, candidate.prefix) {
				return Event{Kind: EventLayer, Layer: m[1], LayerState: candidate.state}, true
			}
		}
	}
	return Event{}, false
}

// stepEvent builds a step event. Stage is the BuildKit stage label and is
// empty for classic builds and unnamed single-stage BuildKit builds.
func stepEvent(stage, current, total, instruction string) (Event, bool) {
	step, err := strconv.Atoi(current)
	if err != nil {
		return Event{}, false
	}
	totalSteps, err := strconv.Atoi(total)
	if err != nil || totalSteps <= 0 {
		return Event{}, false
	}
	return Event{
		Kind:        EventStep,
		Stage:       strings.TrimSpace(stage),
		Step:        step,
		TotalSteps:  totalSteps,
		Instruction: strings.TrimSpace(instruction),
	}, true
}

// stripCarriage keeps the text after the last carriage return, which is what
// a terminal would show for progress-bar redraws.
func stripCarriage(line string) string {
	line = strings.TrimRight(line, "\r")
	if idx := strings.LastIndexByte(line, '\r'); idx >= 0 {
		return line[idx+1:]
	}
	return line
}
