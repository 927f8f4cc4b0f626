package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastemap/capture"
	"wastemap/classify"
	"wastemap/locate"
	"wastemap/store"
)

type fakeSource struct {
	img  *capture.EncodedImage
	err  error
	hits int
}

func (f *fakeSource) RequestImage(ctx context.Context) (*capture.EncodedImage, error) {
	f.hits++
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

type fakeClassifier struct {
	// errs are consumed one per call; once exhausted the classifier
	// succeeds with result.
	errs   []error
	result *classify.Classification
	hits   int
}

func (f *fakeClassifier) Classify(ctx context.Context, img *capture.EncodedImage) (*classify.Classification, error) {
	f.hits++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.result, nil
}

func goodResult() *classify.Classification {
	return &classify.Classification{
		Severity:   classify.SeverityHigh,
		Confidence: 0.9,
		WasteTypes: []string{"plastic"},
		Reason:     "Large pile of plastic bottles.",
	}
}

func jpeg() *capture.EncodedImage {
	return &capture.EncodedImage{Data: []byte{0xFF, 0xD8, 0xFF}, MimeType: "image/jpeg"}
}

func newTestSession(deps Deps) *Session {
	s := NewSession(deps)
	s.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "fixed-id" }
	return s
}

func TestHappyPathWithAutoLocation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := newTestSession(Deps{
		Source:     &fakeSource{img: jpeg()},
		Locator:    &locate.StaticProvider{Coord: locate.Coordinate{Latitude: 19.2, Longitude: 72.9}},
		Picker:     &locate.StaticPicker{},
		Classifier: &fakeClassifier{result: goodResult()},
		Store:      st,
	})

	require.NoError(t, s.Capture(ctx))
	assert.Equal(t, StateAwaitingLocationChoice, s.State())

	require.NoError(t, s.UseAutoLocation(ctx))
	assert.Equal(t, StateComplete, s.State())

	r := s.Report()
	require.NotNil(t, r)
	assert.Equal(t, "fixed-id", r.ID)
	assert.Equal(t, store.StatusPending, r.Status)
	require.NotNil(t, r.Location)
	assert.Equal(t, 19.2, r.Location.Latitude)

	listed, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, r, listed[0])
}

func TestLocationUnavailableStillCompletes(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := newTestSession(Deps{
		Source:     &fakeSource{img: jpeg()},
		Locator:    locate.Unavailable{},
		Picker:     &locate.StaticPicker{},
		Classifier: &fakeClassifier{result: goodResult()},
		Store:      st,
	})

	require.NoError(t, s.Capture(ctx))
	require.NoError(t, s.UseAutoLocation(ctx))

	assert.Equal(t, StateComplete, s.State())
	assert.Nil(t, s.Report().Location)
}

func TestSkippedLocationYieldsAbsentCoordinate(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(Deps{
		Source:     &fakeSource{img: jpeg()},
		Locator:    locate.Unavailable{},
		Picker:     &locate.StaticPicker{},
		Classifier: &fakeClassifier{result: goodResult()},
		Store:      store.NewMemoryStore(),
	})

	require.NoError(t, s.Capture(ctx))
	require.NoError(t, s.SkipLocation(ctx))
	assert.Equal(t, StateComplete, s.State())
	assert.Nil(t, s.Report().Location)
}

func TestPickerCancelReturnsToLocationChoice(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := newTestSession(Deps{
		Source:     &fakeSource{img: jpeg()},
		Locator:    locate.Unavailable{},
		Picker:     &locate.StaticPicker{Cancel: true},
		Classifier: &fakeClassifier{result: goodResult()},
		Store:      st,
	})

	require.NoError(t, s.Capture(ctx))
	require.NoError(t, s.PickLocation(ctx))

	// Back where we were, image intact, nothing persisted.
	assert.Equal(t, StateAwaitingLocationChoice, s.State())
	assert.NotNil(t, s.Image())
	listed, _ := st.List(ctx)
	assert.Empty(t, listed)
}

func TestPickedLocationEndsUpOnReport(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(Deps{
		Source:     &fakeSource{img: jpeg()},
		Locator:    locate.Unavailable{},
		Picker:     &locate.StaticPicker{Coord: locate.Coordinate{Latitude: -33.9, Longitude: 18.4}},
		Classifier: &fakeClassifier{result: goodResult()},
		Store:      store.NewMemoryStore(),
	})

	require.NoError(t, s.Capture(ctx))
	require.NoError(t, s.PickLocation(ctx))
	assert.Equal(t, StateComplete, s.State())
	require.NotNil(t, s.Report().Location)
	assert.Equal(t, -33.9, s.Report().Location.Latitude)
}

func TestClassificationFailureRetainsImageForRetry(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	cl := &fakeClassifier{errs: []error{classify.ErrUnavailable}, result: goodResult()}
	src := &fakeSource{img: jpeg()}
	s := newTestSession(Deps{
		Source:     src,
		Locator:    locate.Unavailable{},
		Picker:     &locate.StaticPicker{},
		Classifier: cl,
		Store:      st,
	})

	require.NoError(t, s.Capture(ctx))
	err := s.UseAutoLocation(ctx)
	require.ErrorIs(t, err, classify.ErrUnavailable)
	assert.Equal(t, StateFailed, s.State())

	// Nothing persisted on a failed run.
	listed, _ := st.List(ctx)
	assert.Empty(t, listed)

	// Retry reuses the cached image; capture is not re-triggered.
	require.NoError(t, s.RetryClassification(ctx))
	assert.Equal(t, StateComplete, s.State())
	assert.Equal(t, 1, src.hits)
	assert.Equal(t, 2, cl.hits)
	assert.Same(t, src.img, s.Report().Image)
}

func TestCameraDeniedLeavesSessionIdle(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(Deps{
		Source:     &fakeSource{err: capture.ErrDeviceUnavailable},
		Locator:    locate.Unavailable{},
		Picker:     &locate.StaticPicker{},
		Classifier: &fakeClassifier{result: goodResult()},
		Store:      store.NewMemoryStore(),
	})

	err := s.Capture(ctx)
	require.ErrorIs(t, err, capture.ErrDeviceUnavailable)
	assert.Equal(t, StateIdle, s.State())

	// The upload path remains available: a new capture attempt with a
	// working source succeeds.
	s.deps.Source = &fakeSource{img: jpeg()}
	require.NoError(t, s.Capture(ctx))
	assert.Equal(t, StateAwaitingLocationChoice, s.State())
}

func TestCancelDiscardsSessionState(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := newTestSession(Deps{
		Source:     &fakeSource{img: jpeg()},
		Locator:    locate.Unavailable{},
		Picker:     &locate.StaticPicker{},
		Classifier: &fakeClassifier{result: goodResult()},
		Store:      st,
	})

	require.NoError(t, s.Capture(ctx))
	s.Cancel()

	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Image())
	listed, _ := st.List(ctx)
	assert.Empty(t, listed)
}

func TestCaptureWhileActiveIsConflicting(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(Deps{
		Source:     &fakeSource{img: jpeg()},
		Locator:    locate.Unavailable{},
		Picker:     &locate.StaticPicker{},
		Classifier: &fakeClassifier{result: goodResult()},
		Store:      store.NewMemoryStore(),
	})

	require.NoError(t, s.Capture(ctx))
	err := s.Capture(ctx)
	assert.ErrorIs(t, err, ErrBadState)
}

func TestOperationsRejectWrongStates(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(Deps{
		Source:     &fakeSource{img: jpeg()},
		Locator:    locate.Unavailable{},
		Picker:     &locate.StaticPicker{},
		Classifier: &fakeClassifier{result: goodResult()},
		Store:      store.NewMemoryStore(),
	})

	assert.ErrorIs(t, s.UseAutoLocation(ctx), ErrBadState)
	assert.ErrorIs(t, s.PickLocation(ctx), ErrBadState)
	assert.ErrorIs(t, s.SkipLocation(ctx), ErrBadState)
	assert.ErrorIs(t, s.RetryClassification(ctx), ErrBadState)
}

func TestStoreFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	failing := &failingStore{err: errors.New("disk full")}
	s := newTestSession(Deps{
		Source:     &fakeSource{img: jpeg()},
		Locator:    locate.Unavailable{},
		Picker:     &locate.StaticPicker{},
		Classifier: &fakeClassifier{result: goodResult()},
		Store:      failing,
	})

	require.NoError(t, s.Capture(ctx))
	require.Error(t, s.SkipLocation(ctx))
	assert.Equal(t, StateFailed, s.State())

	failing.err = nil
	require.NoError(t, s.RetryClassification(ctx))
	assert.Equal(t, StateComplete, s.State())
}

type failingStore struct {
	err     error
	reports []*store.Report
}

func (f *failingStore) Append(ctx context.Context, r *store.Report) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, r)
	return nil
}

func (f *failingStore) List(ctx context.Context) ([]*store.Report, error) {
	return f.reports, nil
}
