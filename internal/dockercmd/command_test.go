package dockercmd

import "testing"

func TestParseClassifiesCommands(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantKind  Kind
		wantImage string
	}{
		{"build short tag", []string{"build", "-t", "myapp:1.0", "."}, KindBuild, "myapp:1.0"},
		{"build long tag equals", []string{"build", "--tag=registry/app:dev", "-f", "Dockerfile", "."}, KindBuild, "registry/app:dev"},
		{"build attached tag", []string{"build", "-tapp", "."}, KindBuild, "app"},
		{"build first of many tags", []string{"build", "-t", "a:1", "-t", "a:latest", "."}, KindBuild, "a:1"},
		{"build without tag", []string{"build", "."}, KindBuild, ""},
		{"buildx build", []string{"buildx", "build", "--platform", "linux/amd64", "-t", "multi:1", "."}, KindBuild, "multi:1"},
		{"image build", []string{"image", "build", "-t", "x", "."}, KindBuild, "x"},
		{"leading docker binary", []string{"docker", "build", "-t", "img", "."}, KindBuild, "img"},
		{"leading docker path", []string{"/usr/bin/docker", "push", "img"}, KindPush, "img"},
		{"global flags", []string{"--context", "remote", "push", "repo/img:2"}, KindPush, "repo/img:2"},
		{"push with flags", []string{"push", "--quiet", "repo/img"}, KindPush, "repo/img"},
		{"pull with platform", []string{"pull", "--platform", "linux/arm64", "alpine:3"}, KindPull, "alpine:3"},
		{"tag uses target", []string{"tag", "src:1", "dst:2"}, KindTag, "dst:2"},
		{"other", []string{"ps", "-a"}, KindOther, ""},
		{"empty", nil, KindOther, ""},
		{"buildx ls is other", []string{"buildx", "ls"}, KindOther, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Parse(tt.args)
			if cmd.Kind != tt.wantKind {
				t.Fatalf("kind = %q, want %q", cmd.Kind, tt.wantKind)
			}
			if cmd.Image != tt.wantImage {
				t.Fatalf("image = %q, want %q", cmd.Image, tt.wantImage)
			}
		})
	}
}

func TestParseDropsBinaryFromArgs(t *testing.T) {
	cmd := Parse([]string{"docker", "push", " img "})
	if len(cmd.Args) != 2 || cmd.Args[0] != "push" || cmd.Args[1] != "img" {
		t.Fatalf("unexpected args %q", cmd.Args)
	}
}

func TestOperationIDFromImage(t *testing.T) {
	if got := OperationID(Parse([]string{"build", "-t", "web:1", "."})); got != "build:web:1" {
		t.Fatalf("unexpected id %q", got)
	}
	if got := OperationID(Parse([]string{"push", "web:1"})); got != "push:web:1" {
		t.Fatalf("unexpected id %q", got)
	}
}

func TestOperationIDIsDeterministicWithoutImage(t *testing.T) {
	first := OperationID(Parse([]string{"compose", "up", "-d"}))
	second := OperationID(Parse([]string{"compose", "up", "-d"}))
	if first != second {
		t.Fatalf("ids differ: %q vs %q", first, second)
	}
	if len(first) != len("other:")+12 {
		t.Fatalf("unexpected hash id %q", first)
	}
	other := OperationID(Parse([]string{"compose", "down"}))
	if other == first {
		t.Fatal("different argv should yield different ids")
	}
	if got := OperationID(Command{}); got[:6] != "other:" {
		t.Fatalf("zero command should map to other kind, got %q", got)
	}
}
