package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"peerprep/interview/internal/events"
	"peerprep/interview/internal/generator"
	"peerprep/interview/internal/mentor"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

// memRepo is an in-memory InterviewRepository. Hooks override single calls.
type memRepo struct {
	mu    sync.Mutex
	items map[string]*models.Interview
	seq   int

	createFn    func(*models.Interview) (*models.Interview, error)
	setResultFn func(string, models.Result) error
	markUsedFn  func(string) error

	markUsedCalls int
}

var _ repositories.InterviewRepository = (*memRepo)(nil)

func newMemRepo(items ...models.Interview) *memRepo {
	r := &memRepo{items: map[string]*models.Interview{}}
	for i := range items {
		it := items[i]
		r.items[it.ID] = &it
	}
	return r
}

func clone(in *models.Interview) *models.Interview {
	cp := *in
	if in.MentorAgentReview != nil {
		review := *in.MentorAgentReview
		cp.MentorAgentReview = &review
	}
	return &cp
}

func (r *memRepo) Create(_ context.Context, in *models.Interview) (*models.Interview, error) {
	if r.createFn != nil {
		return r.createFn(in)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	cp := clone(in)
	cp.ID = fmt.Sprintf("iv-%d", r.seq)
	r.items[cp.ID] = cp
	return clone(cp), nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(it), nil
}

func (r *memRepo) sortedByUser(userID string, keep func(*models.Interview) bool) []*models.Interview {
	var out []*models.Interview
	for _, it := range r.items {
		if it.User == userID && keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memRepo) ListByUser(_ context.Context, userID string) ([]models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Interview
	for _, it := range r.sortedByUser(userID, func(*models.Interview) bool { return true }) {
		out = append(out, *clone(it))
	}
	return out, nil
}

func (r *memRepo) LatestCompleted(_ context.Context, userID string) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := r.sortedByUser(userID, func(it *models.Interview) bool { return it.Status == models.StatusCompleted })
	if len(found) == 0 {
		return nil, repositories.ErrNotFound
	}
	return clone(found[0]), nil
}

func (r *memRepo) LatestWithMentorReview(_ context.Context, userID string) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := r.sortedByUser(userID, func(it *models.Interview) bool { return it.MentorAgentReview != nil })
	if len(found) == 0 {
		return nil, repositories.ErrNotFound
	}
	return clone(found[0]), nil
}

func (r *memRepo) SetResult(_ context.Context, id string, result models.Result) error {
	if r.setResultFn != nil {
		return r.setResultFn(id, result)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return repositories.ErrNotFound
	}
	it.Result = result
	return nil
}

func (r *memRepo) MarkMentorReviewUsed(_ context.Context, id string, review *models.MentorAgentReview) (bool, error) {
	if r.markUsedFn != nil {
		if err := r.markUsedFn(id); err != nil {
			return false, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markUsedCalls++
	it, ok := r.items[id]
	if !ok || it.MentorReviewUsed {
		return false, nil
	}
	it.MentorReviewUsed = true
	if review != nil {
		it.MentorAgentReview = review
	}
	return true, nil
}

func (r *memRepo) SaveMentorReview(_ context.Context, id string, review *models.MentorAgentReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return repositories.ErrNotFound
	}
	it.MentorAgentReview = review
	return nil
}

func (r *memRepo) CountAwaitingMentorReview(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, it := range r.items {
		if it.Status == models.StatusCompleted && !it.MentorReviewUsed {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) Ping(context.Context) error  { return nil }
func (r *memRepo) Close(context.Context) error { return nil }

func (r *memRepo) get(id string) *models.Interview {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.items[id])
}

type fakeUploader struct {
	uploadFn func(ctx context.Context, dataURI, fileName string) (string, error)
}

func (f *fakeUploader) Upload(ctx context.Context, dataURI, fileName string) (string, error) {
	return f.uploadFn(ctx, dataURI, fileName)
}

type fakeSource struct {
	generateFn func(ctx context.Context, req generator.Request) (*generator.Generation, error)
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Generate(ctx context.Context, req generator.Request) (*generator.Generation, error) {
	return f.generateFn(ctx, req)
}

// scriptedDispatcher replays results in order and records what it was sent
type scriptedDispatcher struct {
	mu      sync.Mutex
	results []*mentor.Result
	calls   []models.Interview
	tokens  []string
	block   chan struct{}
}

func (d *scriptedDispatcher) Dispatch(_ context.Context, interview *models.Interview, token string) *mentor.Result {
	if d.block != nil {
		<-d.block
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, *interview)
	d.tokens = append(d.tokens, token)
	if len(d.results) == 0 {
		return &mentor.Result{Sent: true, Response: json.RawMessage(`{"ok":true}`)}
	}
	res := d.results[0]
	d.results = d.results[1:]
	return res
}

func (d *scriptedDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type recordingNotifier struct {
	mu        sync.Mutex
	published []events.ReviewReady
	ch        chan events.ReviewReady
}

func (n *recordingNotifier) Publish(_ context.Context, ev events.ReviewReady) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, ev)
	return nil
}

func (n *recordingNotifier) Subscribe(context.Context, string) (<-chan events.ReviewReady, func(), error) {
	return n.ch, func() {}, nil
}

func score(v float64) *float64 { return &v }

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
