package jobs

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/logger"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(ev string) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

func (n *recordingNotifier) JobCreated(*Job)       { n.record("created") }
func (n *recordingNotifier) JobProgress(*Job)      { n.record("progress") }
func (n *recordingNotifier) JobAwaitingInput(*Job) { n.record("awaiting_input") }
func (n *recordingNotifier) JobResumed(*Job)       { n.record("resumed") }
func (n *recordingNotifier) JobDone(*Job)          { n.record("done") }
func (n *recordingNotifier) JobFailed(*Job)        { n.record("failed") }
func (n *recordingNotifier) JobCancelled(*Job)     { n.record("cancelled") }

func newTestManager(t *testing.T, opts ...ManagerOption) (*Manager, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	return NewManager(logger.NewNop(), n, opts...), n
}

func createRunning(t *testing.T, m *Manager, p CreateParams) uuid.UUID {
	t.Helper()
	id := m.CreateJob(p)
	if err := m.StartJob(id); err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	return id
}

func TestCreateJobDefaults(t *testing.T) {
	m, _ := newTestManager(t)
	id := m.CreateJob(CreateParams{Type: TypeAnalyze, Title: "Analyze character", Cancelable: true})

	job, err := m.GetJob(id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != StatusQueued {
		t.Fatalf("initial status = %q, want queued", job.Status)
	}
	if job.StepsTotal != 1 {
		t.Fatalf("StepsTotal = %d, want 1", job.StepsTotal)
	}
	if job.AwaitingData != nil {
		t.Fatalf("AwaitingData should be nil outside awaiting_input, got %#v", job.AwaitingData)
	}
	if job.StartedAt != nil || job.CompletedAt != nil {
		t.Fatalf("timestamps set too early: %v %v", job.StartedAt, job.CompletedAt)
	}
}

func TestGetJobUnknown(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.GetJob(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWorkflowJobEndToEnd(t *testing.T) {
	m, _ := newTestManager(t)
	id := m.CreateJob(CreateParams{Type: TypeWorkflow, Title: "Generate story", StepsTotal: 3, Cancelable: true})

	if err := m.StartJob(id); err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	for i, p := range []float64{0, 1.0 / 3, 2.0 / 3} {
		if err := m.UpdateProgress(id, p, "working", ""); err != nil {
			t.Fatalf("UpdateProgress %d: %v", i, err)
		}
	}
	if err := m.CompleteJob(id, map[string]any{"title": "X"}); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	job, err := m.GetJob(id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", job.Status)
	}
	if job.Progress != 1.0 {
		t.Fatalf("progress = %v, want exactly 1.0", job.Progress)
	}
	if job.Result["title"] != "X" {
		t.Fatalf("result = %#v, want title=X", job.Result)
	}
	if job.Error != "" {
		t.Fatalf("error = %q, want empty", job.Error)
	}
	if job.CompletedAt == nil {
		t.Fatal("CompletedAt not set")
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	m, _ := newTestManager(t)
	id := createRunning(t, m, CreateParams{Type: TypeAnalyze, Cancelable: true})

	if err := m.UpdateProgress(id, 0.6, "ahead", ""); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := m.UpdateProgress(id, 0.2, "behind", ""); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	job, _ := m.GetJob(id)
	if job.Progress != 0.6 {
		t.Fatalf("progress regressed to %v, want 0.6", job.Progress)
	}
	if job.ProgressMessage != "behind" {
		t.Fatalf("message = %q, want latest message kept", job.ProgressMessage)
	}
}

func TestUpdateProgressRejectedOutsideRunning(t *testing.T) {
	m, _ := newTestManager(t)

	queued := m.CreateJob(CreateParams{Type: TypeAnalyze, Cancelable: true})
	if err := m.UpdateProgress(queued, 0.5, "", ""); !IsInvalidTransition(err) {
		t.Fatalf("queued: err = %v, want InvalidTransition", err)
	}

	done := createRunning(t, m, CreateParams{Type: TypeAnalyze, Cancelable: true})
	if err := m.CompleteJob(done, nil); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	if err := m.UpdateProgress(done, 0.5, "", ""); !IsInvalidTransition(err) {
		t.Fatalf("completed: err = %v, want InvalidTransition", err)
	}

	paused := createRunning(t, m, CreateParams{Type: TypeMerge, Cancelable: true})
	if err := m.PauseForInput(paused, map[string]any{"k": "v"}, nil); err != nil {
		t.Fatalf("PauseForInput: %v", err)
	}
	if err := m.UpdateProgress(paused, 0.5, "", ""); !IsInvalidTransition(err) {
		t.Fatalf("awaiting_input: err = %v, want InvalidTransition", err)
	}
}

func TestNoTransitionOutOfTerminalStates(t *testing.T) {
	m, _ := newTestManager(t)

	terminal := func(t *testing.T, id uuid.UUID) {
		t.Helper()
		if err := m.StartJob(id); !IsInvalidTransition(err) {
			t.Fatalf("start: err = %v, want InvalidTransition", err)
		}
		if err := m.CompleteJob(id, nil); !IsInvalidTransition(err) {
			t.Fatalf("complete: err = %v, want InvalidTransition", err)
		}
		if err := m.FailJob(id, "boom"); !IsInvalidTransition(err) {
			t.Fatalf("fail: err = %v, want InvalidTransition", err)
		}
		if err := m.PauseForInput(id, map[string]any{}, nil); !IsInvalidTransition(err) {
			t.Fatalf("pause: err = %v, want InvalidTransition", err)
		}
		if err := m.CancelJob(id); !IsInvalidTransition(err) {
			t.Fatalf("cancel: err = %v, want InvalidTransition", err)
		}
	}

	completed := createRunning(t, m, CreateParams{Type: TypeAnalyze, Cancelable: true})
	if err := m.CompleteJob(completed, map[string]any{"ok": true}); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	terminal(t, completed)

	failed := createRunning(t, m, CreateParams{Type: TypeAnalyze, Cancelable: true})
	if err := m.FailJob(failed, "provider exploded"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	terminal(t, failed)

	cancelled := createRunning(t, m, CreateParams{Type: TypeAnalyze, Cancelable: true})
	if err := m.CancelJob(cancelled); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	terminal(t, cancelled)

	// Completed job keeps its original result.
	job, _ := m.GetJob(completed)
	if job.Result["ok"] != true {
		t.Fatalf("completed job result corrupted: %#v", job.Result)
	}
}

func TestCompleteForcesProgressToOne(t *testing.T) {
	m, _ := newTestManager(t)
	id := createRunning(t, m, CreateParams{Type: TypeAnalyze, StepsTotal: 4, Cancelable: true})
	if err := m.UpdateProgress(id, 0.25, "", ""); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := m.CompleteJob(id, nil); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	job, _ := m.GetJob(id)
	if job.Progress != 1.0 || job.StepsCompleted != 4 {
		t.Fatalf("progress=%v steps=%d, want 1.0 and 4", job.Progress, job.StepsCompleted)
	}
}

func TestPauseResumeCancelEndToEnd(t *testing.T) {
	m, _ := newTestManager(t)
	id := createRunning(t, m, CreateParams{Type: TypeMerge, Title: "Merge characters", Cancelable: true})

	card := &BriefCard{Title: "Review merge", Actions: []string{"approve", "edit", "cancel"}}
	if err := m.PauseForInput(id, map[string]any{"merged_data": map[string]any{"name": "A"}}, card); err != nil {
		t.Fatalf("PauseForInput: %v", err)
	}

	job, _ := m.GetJob(id)
	if job.Status != StatusAwaitingInput {
		t.Fatalf("status = %q, want awaiting_input", job.Status)
	}
	if job.AwaitingData == nil {
		t.Fatal("awaiting_data must be non-nil while awaiting_input")
	}
	if job.BriefCard == nil || job.BriefCard.Title != "Review merge" {
		t.Fatalf("brief card not carried through: %#v", job.BriefCard)
	}

	if _, err := m.ResumeWithInput(id, ResumeInput{Action: "cancel"}); err != nil {
		t.Fatalf("ResumeWithInput: %v", err)
	}

	job, _ = m.GetJob(id)
	if job.Status != StatusCancelled {
		t.Fatalf("status = %q, want cancelled", job.Status)
	}
	if job.Result != nil {
		t.Fatalf("no result may ever be recorded on a cancelled job, got %#v", job.Result)
	}
	if job.AwaitingData != nil {
		t.Fatalf("awaiting_data must clear on resume, got %#v", job.AwaitingData)
	}
	if job.Resumption == nil || job.Resumption.Input.Action != "cancel" {
		t.Fatalf("resume decision not recorded: %#v", job.Resumption)
	}
}

func TestDoubleResumeFails(t *testing.T) {
	m, _ := newTestManager(t)
	id := createRunning(t, m, CreateParams{Type: TypeMerge, Cancelable: true})
	if err := m.PauseForInput(id, map[string]any{"merged_data": 1}, nil); err != nil {
		t.Fatalf("PauseForInput: %v", err)
	}

	res, err := m.ResumeWithInput(id, ResumeInput{Action: "approve"})
	if err != nil {
		t.Fatalf("first resume: %v", err)
	}
	if res.AwaitingData["merged_data"] != 1 {
		t.Fatalf("resumption lost the awaiting payload: %#v", res.AwaitingData)
	}

	if _, err := m.ResumeWithInput(id, ResumeInput{Action: "approve"}); !IsInvalidTransition(err) {
		t.Fatalf("second resume: err = %v, want InvalidTransition", err)
	}

	job, _ := m.GetJob(id)
	if job.Status != StatusRunning {
		t.Fatalf("status after approve = %q, want running", job.Status)
	}
}

func TestCancelRespectsCancelableFlag(t *testing.T) {
	m, _ := newTestManager(t)
	id := createRunning(t, m, CreateParams{Type: TypeAnalyze, Cancelable: false})
	if err := m.CancelJob(id); !errors.Is(err, ErrNotCancelable) {
		t.Fatalf("err = %v, want ErrNotCancelable", err)
	}
	job, _ := m.GetJob(id)
	if job.Status != StatusRunning {
		t.Fatalf("non-cancelable job mutated to %q", job.Status)
	}
}

func TestCancelFromEveryNonTerminalState(t *testing.T) {
	m, _ := newTestManager(t)

	queued := m.CreateJob(CreateParams{Type: TypeAnalyze, Cancelable: true})
	if err := m.CancelJob(queued); err != nil {
		t.Fatalf("cancel queued: %v", err)
	}

	running := createRunning(t, m, CreateParams{Type: TypeAnalyze, Cancelable: true})
	if err := m.CancelJob(running); err != nil {
		t.Fatalf("cancel running: %v", err)
	}

	paused := createRunning(t, m, CreateParams{Type: TypeMerge, Cancelable: true})
	if err := m.PauseForInput(paused, map[string]any{"k": 1}, nil); err != nil {
		t.Fatalf("PauseForInput: %v", err)
	}
	if err := m.CancelJob(paused); err != nil {
		t.Fatalf("cancel awaiting_input: %v", err)
	}
	job, _ := m.GetJob(paused)
	if job.AwaitingData != nil {
		t.Fatalf("awaiting_data must clear on cancel, got %#v", job.AwaitingData)
	}
}

func TestCancelReleasesJobContext(t *testing.T) {
	m, _ := newTestManager(t)
	id := createRunning(t, m, CreateParams{Type: TypeGenerateImage, Cancelable: true})

	ctx := m.Context(id)
	select {
	case <-ctx.Done():
		t.Fatal("context done before cancel")
	default:
	}
	if err := m.CancelJob(id); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("job context not cancelled")
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	m, _ := newTestManager(t)
	id := createRunning(t, m, CreateParams{Type: TypeAnalyze, Metadata: map[string]any{"entity_type": "character"}, Cancelable: true})
	if err := m.CompleteJob(id, map[string]any{"score": 1}); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	a, _ := m.GetJob(id)
	a.Result["score"] = 99
	a.Metadata["entity_type"] = "tampered"

	b, _ := m.GetJob(id)
	if b.Result["score"] != 1 || b.Metadata["entity_type"] != "character" {
		t.Fatalf("snapshot mutation leaked into the registry: %#v %#v", b.Result, b.Metadata)
	}
}

func TestConcurrentMutationsStayConsistent(t *testing.T) {
	m, _ := newTestManager(t)
	id := createRunning(t, m, CreateParams{Type: TypeAnalyze, Cancelable: true})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.UpdateProgress(id, float64(i)/100, "racing", "")
			_, _ = m.GetJob(id)
		}(i)
	}
	wg.Wait()

	if err := m.CompleteJob(id, map[string]any{"done": true}); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	job, _ := m.GetJob(id)
	if job.Status != StatusCompleted || job.Progress != 1.0 || job.Result["done"] != true {
		t.Fatalf("inconsistent final job: %+v", job)
	}
}

func TestNotifierSeesEveryStateChange(t *testing.T) {
	m, n := newTestManager(t)
	id := m.CreateJob(CreateParams{Type: TypeMerge, Cancelable: true})
	_ = m.StartJob(id)
	_ = m.PauseForInput(id, map[string]any{"k": 1}, nil)
	_, _ = m.ResumeWithInput(id, ResumeInput{Action: "approve"})
	_ = m.CompleteJob(id, nil)

	n.mu.Lock()
	defer n.mu.Unlock()
	want := []string{"created", "progress", "awaiting_input", "resumed", "done"}
	if len(n.events) != len(want) {
		t.Fatalf("events = %v, want %v", n.events, want)
	}
	for i := range want {
		if n.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", n.events, want)
		}
	}
}

func TestRetentionEvictsOldTerminalJobs(t *testing.T) {
	m, _ := newTestManager(t, WithRetention(time.Hour))

	old := createRunning(t, m, CreateParams{Type: TypeAnalyze, Cancelable: true})
	if err := m.CompleteJob(old, nil); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	// Move the clock past the retention window. Reads alone must evict; a
	// manager that only serves GetJob/ListJobs may never see another create.
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := m.GetJob(old); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after eviction", err)
	}
	if n := len(m.ListJobs()); n != 0 {
		t.Fatalf("ListJobs = %d jobs, want 0 after eviction", n)
	}
}
