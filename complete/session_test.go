package complete

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"

	dkit "github.com/Paranoid-AF/dkit"
	"github.com/Paranoid-AF/dkit/dcd"
)

type stubProcess struct {
	mu     sync.Mutex
	exited bool
}

func (p *stubProcess) Pid() int { return 4242 }

func (p *stubProcess) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

func (p *stubProcess) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exited = true
	return nil
}

// stubLauncher hands out stub processes and counts launches.
type stubLauncher struct {
	mu       sync.Mutex
	launched []*stubProcess
}

func (l *stubLauncher) Launch(_ string, _ []string) (dcd.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := &stubProcess{}
	l.launched = append(l.launched, p)
	return p, nil
}

func (l *stubLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

// fakeDCD writes a dcd-server placeholder and a dcd-client script that
// records its arguments and stdin and prints reply.
func fakeDCD(t *testing.T, reply string) dcd.ServerConfig {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script client requires a POSIX shell")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "reply.txt"), []byte(reply), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dcd-server"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	script := `#!/bin/sh
dir=$(dirname "$0")
printf '%s\n' "$@" >> "$dir/args.txt"
cat > "$dir/stdin.txt"
cat "$dir/reply.txt"
`
	if err := os.WriteFile(filepath.Join(dir, "dcd-client"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return dcd.ServerConfig{
		ServerPath:   filepath.Join(dir, "dcd-server"),
		ClientPath:   filepath.Join(dir, "dcd-client"),
		Port:         9166,
		IncludePaths: []string{"/usr/include/dmd/phobos"},
	}
}

func recordedArgs(t *testing.T, cfg dcd.ServerConfig) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(cfg.ClientPath), "args.txt"))
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func newTestSession() (*Session, *stubLauncher) {
	l := &stubLauncher{}
	return NewSessionWithSupervisor(dcd.NewSupervisorWithLauncher(l)), l
}

func TestResolveIdentifiers(t *testing.T) {
	cfg := fakeDCD(t, "identifiers\nwriteln\tf\nstdout\tv\nbroken\nstd\tP\n")
	s, l := newTestSession()

	buf := "import std.stdio;\nvoid main() { std.stdio.wr }"
	pos := strings.Index(buf, "wr }") + 2
	got, err := s.Resolve(context.Background(), cfg, buf, pos, 2)
	if err != nil {
		t.Fatal(err)
	}

	want := []dkit.Candidate{
		{Label: "writeln\tfunction", InsertText: "writeln"},
		{Label: "stdout\tvariable", InsertText: "stdout"},
		{Label: "std\tpackage", InsertText: "std"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("candidates = %+v, want %+v", got, want)
	}
	if l.count() != 1 {
		t.Errorf("expected server started lazily once, got %d launches", l.count())
	}

	// Completion after a dot queries at the dot, not at the cursor.
	args := recordedArgs(t, cfg)
	if args[0] != "-c"+strconv.Itoa(pos-2) || args[1] != "-p9166" {
		t.Errorf("client args = %q", args)
	}
}

func TestResolveCalltips(t *testing.T) {
	cfg := fakeDCD(t, "calltips\nint add(int a, int b)\nvoid reset\n")
	s, _ := newTestSession()

	buf := "add("
	got, err := s.Resolve(context.Background(), cfg, buf, len(buf), 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []dkit.Candidate{
		{Label: "int add(int a, int b)", InsertText: "int a, int b"},
		{Label: "void reset", InsertText: "void reset"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("candidates = %+v, want %+v", got, want)
	}
}

func TestResolveUnknownReplyIsEmpty(t *testing.T) {
	for _, reply := range []string{"", "symbolLocation\n/x.d\t12\n"} {
		cfg := fakeDCD(t, reply)
		s, _ := newTestSession()

		got, err := s.Resolve(context.Background(), cfg, "x", 1, 1)
		if err != nil {
			t.Fatalf("reply %q: unexpected error %v", reply, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("reply %q: expected empty non-nil candidates, got %#v", reply, got)
		}
	}
}

func TestResolveReusesLiveServer(t *testing.T) {
	cfg := fakeDCD(t, "identifiers\n")
	s, l := newTestSession()

	for i := 0; i < 3; i++ {
		if _, err := s.Resolve(context.Background(), cfg, "x", 1, 1); err != nil {
			t.Fatal(err)
		}
	}
	if l.count() != 1 {
		t.Errorf("expected 1 launch, got %d", l.count())
	}
	if !s.Live() {
		t.Error("expected live server")
	}
}

func TestResolveConfigErrorRetries(t *testing.T) {
	cfg := fakeDCD(t, "identifiers\n")
	cfg.ServerPath = filepath.Join(t.TempDir(), "dcd-server")
	s, l := newTestSession()

	for i := 0; i < 2; i++ {
		_, err := s.Resolve(context.Background(), cfg, "x", 1, 1)
		var cfgErr *dcd.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("attempt %d: expected ConfigError, got %v", i, err)
		}
	}
	if l.count() != 0 {
		t.Errorf("expected no launch, got %d", l.count())
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(cfg.ClientPath), "args.txt")); err == nil {
		t.Error("client must not run when the server cannot start")
	}
}

func TestResolveClientFailure(t *testing.T) {
	cfg := fakeDCD(t, "identifiers\n")
	s, _ := newTestSession()
	if _, err := s.Resolve(context.Background(), cfg, "x", 1, 1); err != nil {
		t.Fatal(err)
	}

	// The client disappears after the server was started.
	os.Remove(cfg.ClientPath)
	_, err := s.Resolve(context.Background(), cfg, "x", 1, 1)
	var perr *dcd.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestRestartAndClose(t *testing.T) {
	cfg := fakeDCD(t, "identifiers\n")
	s, l := newTestSession()

	first, err := s.Restart(cfg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Restart(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Errorf("expected distinct handle IDs, got %q and %q", first.ID, second.ID)
	}
	if l.count() != 2 {
		t.Fatalf("expected 2 launches, got %d", l.count())
	}
	if !l.launched[0].Exited() {
		t.Error("first server should have been terminated by restart")
	}

	s.Close()
	if s.Live() {
		t.Error("expected no live server after Close")
	}
	if !l.launched[1].Exited() {
		t.Error("second server should have been terminated by Close")
	}
}

func TestUpdateIncludePaths(t *testing.T) {
	cfg := fakeDCD(t, "")
	cfg.IncludePaths = []string{"/a", "/b"}
	s, _ := newTestSession()

	if err := s.UpdateIncludePaths(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	want := []string{"--clearCache", "-p9166", "-I/a", "-I/b", "-p9166"}
	if got := recordedArgs(t, cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestUpdateIncludePathsOnlyClearsWhenEmpty(t *testing.T) {
	cfg := fakeDCD(t, "")
	cfg.IncludePaths = nil
	s, _ := newTestSession()

	if err := s.UpdateIncludePaths(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	want := []string{"--clearCache", "-p9166"}
	if got := recordedArgs(t, cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestCandidatesUnknownKind(t *testing.T) {
	got := Candidates(dcd.Decode([]string{"identifiers", "thing\tX"}))
	if len(got) != 1 || got[0].Label != "thing\tother" || got[0].InsertText != "thing" {
		t.Errorf("unexpected candidates %+v", got)
	}
}
