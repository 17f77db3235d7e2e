package progress

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"dockhand/internal/dockercmd"
)

// Status is the lifecycle state of a tracked operation.
type Status string

const (
	StatusStarted    Status = "started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus maps user input to a Status.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusStarted, StatusInProgress, StatusCompleted, StatusFailed:
		return Status(value), true
	case "in-progress", "running":
		return StatusInProgress, true
	default:
		return "", false
	}
}

// Resumable reports whether a later run of the same command counts as a retry.
func (s Status) Resumable() bool {
	return s == StatusStarted || s == StatusInProgress || s == StatusFailed
}

// Progress holds the nested maps updated from docker output. For multi-stage
// BuildKit builds CurrentStep and TotalSteps are summed over Stages.
type Progress struct {
	CurrentStep int                      `json:"current_step,omitempty" yaml:"current_step,omitempty"`
	TotalSteps  int                      `json:"total_steps,omitempty" yaml:"total_steps,omitempty"`
	Steps       map[string]string        `json:"steps,omitempty" yaml:"steps,omitempty"`
	Stages      map[string]StageProgress `json:"stages,omitempty" yaml:"stages,omitempty"`
	Layers      map[string]string        `json:"layers,omitempty" yaml:"layers,omitempty"`
	Digest      string                   `json:"digest,omitempty" yaml:"digest,omitempty"`
	ImageID     string                   `json:"image_id,omitempty" yaml:"image_id,omitempty"`
}

// StageProgress is the furthest step seen in one named build stage.
type StageProgress struct {
	Current int `json:"current" yaml:"current"`
	Total   int `json:"total" yaml:"total"`
}

// Step is one entry of the step map with its key split back apart.
type Step struct {
	Stage       string
	Number      int
	Total       int
	Instruction string
}

// StepKey returns the step map key: the step number, prefixed by the stage
// label for named BuildKit stages.
func StepKey(stage string, step int) string {
	if stage == "" {
		return strconv.Itoa(step)
	}
	return stage + " " + strconv.Itoa(step)
}

// OrderedSteps returns the step map sorted by stage label then step number.
// Unnamed steps come first.
func (p Progress) OrderedSteps() []Step {
	steps := make([]Step, 0, len(p.Steps))
	for key, instruction := range p.Steps {
		stage, number := "", key
		if idx := strings.LastIndexByte(key, ' '); idx >= 0 {
			stage, number = key[:idx], key[idx+1:]
		}
		n, err := strconv.Atoi(number)
		if err != nil {
			continue
		}
		total := p.TotalSteps
		if stage != "" {
			total = p.Stages[stage].Total
		}
		steps = append(steps, Step{Stage: stage, Number: n, Total: total, Instruction: instruction})
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Stage != steps[j].Stage {
			return steps[i].Stage < steps[j].Stage
		}
		return steps[i].Number < steps[j].Number
	})
	return steps
}

// Operation is one record in the progress file.
type Operation struct {
	ID          string     `json:"id" yaml:"id"`
	Kind        string     `json:"kind" yaml:"kind"`
	Image       string     `json:"image,omitempty" yaml:"image,omitempty"`
	Command     []string   `json:"command" yaml:"command"`
	Status      Status     `json:"status" yaml:"status"`
	Attempts    int        `json:"attempts" yaml:"attempts"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Progress    Progress   `json:"progress" yaml:"progress"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	ExitCode    int        `json:"exit_code" yaml:"exit_code"`
	LastRunID   string     `json:"last_run_id,omitempty" yaml:"last_run_id,omitempty"`
}

// Resumable reports whether the record marks an unfinished or failed attempt.
func (o Operation) Resumable() bool {
	return o.Status.Resumable()
}

// Percent estimates completion from build steps or pushed layers. It returns
// -1 when nothing measurable has been seen.
func (o Operation) Percent() float64 {
	if o.Status == StatusCompleted {
		return 100
	}
	p := o.Progress
	if p.TotalSteps > 0 {
		return clampPercent(float64(p.CurrentStep) / float64(p.TotalSteps) * 100)
	}
	if len(p.Layers) > 0 {
		done := 0
		for _, state := range p.Layers {
			if layerDone(state) {
				done++
			}
		}
		return clampPercent(float64(done) / float64(len(p.Layers)) * 100)
	}
	return -1
}

// ApplyEvent folds a parsed output event into the nested progress maps and
// marks the operation in progress. It reports whether the record changed, so
// repeated progress-bar lines need not be persisted.
func (o *Operation) ApplyEvent(event dockercmd.Event) bool {
	p := &o.Progress
	changed := o.Status != StatusInProgress
	o.Status = StatusInProgress
	switch event.Kind {
	case dockercmd.EventStep:
		changed = p.applyStep(event) || changed
	case dockercmd.EventLayer:
		if p.Layers == nil {
			p.Layers = make(map[string]string)
		}
		if prev, ok := p.Layers[event.Layer]; !ok || prev != event.LayerState {
			p.Layers[event.Layer] = event.LayerState
			changed = true
		}
	case dockercmd.EventDigest:
		if p.Digest != event.Digest {
			p.Digest = event.Digest
			changed = true
		}
	case dockercmd.EventImage:
		if p.ImageID != event.ImageID {
			p.ImageID = event.ImageID
			changed = true
		}
	}
	return changed
}

func (p *Progress) applyStep(event dockercmd.Event) bool {
	current, total := event.Step, event.TotalSteps
	if event.Stage != "" {
		if p.Stages == nil {
			p.Stages = make(map[string]StageProgress)
		}
		stage := p.Stages[event.Stage]
		// Parallel stages interleave their lines; a stage never moves backwards.
		stage.Current = max(stage.Current, event.Step)
		stage.Total = event.TotalSteps
		p.Stages[event.Stage] = stage
		current, total = 0, 0
		for _, s := range p.Stages {
			current += s.Current
			total += s.Total
		}
	}
	key := StepKey(event.Stage, event.Step)
	prev, known := p.Steps[key]
	if known && prev == event.Instruction && p.CurrentStep == current && p.TotalSteps == total {
		return false
	}
	if p.Steps == nil {
		p.Steps = make(map[string]string)
	}
	p.Steps[key] = event.Instruction
	p.CurrentStep = current
	p.TotalSteps = total
	return true
}

// LayerCounts returns the number of finished and known layers.
func (o Operation) LayerCounts() (done, total int) {
	for _, state := range o.Progress.Layers {
		if layerDone(state) {
			done++
		}
	}
	return done, len(o.Progress.Layers)
}

func clampPercent(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}

func (o Operation) clone() Operation {
	cp := o
	cp.Command = append([]string(nil), o.Command...)
	cp.Progress.Steps = cloneMap(o.Progress.Steps)
	cp.Progress.Layers = cloneMap(o.Progress.Layers)
	if o.Progress.Stages != nil {
		cp.Progress.Stages = make(map[string]StageProgress, len(o.Progress.Stages))
		for k, v := range o.Progress.Stages {
			cp.Progress.Stages[k] = v
		}
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		cp.CompletedAt = &t
	}
	return cp
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
