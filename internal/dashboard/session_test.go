package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propscope/backend-go/internal/logging"
	"propscope/backend-go/internal/models"
)

type mockVisualizer struct {
	mock.Mock
}

func (m *mockVisualizer) Visualize(ctx context.Context, req models.VisualizeRequest) (models.VisualizeResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.VisualizeResponse), args.Error(1)
}

type staticSource struct {
	raw   []byte
	calls int
}

func (s *staticSource) GetProps(context.Context) ([]byte, error) {
	s.calls++
	return s.raw, nil
}

func catalogPayload(t *testing.T) []byte {
	t.Helper()
	c := sampleCatalog()
	byType := map[string][]models.Prop{}
	for _, tab := range c.Tabs() {
		byType[tab] = c.Tab(tab)
	}
	raw, err := json.Marshal(models.PropsResponse{PropsByType: byType})
	require.NoError(t, err)
	return raw
}

func TestSessionTimeframeRequests(t *testing.T) {
	viz := &mockVisualizer{}
	graph := pngBase64(t, 3, 3)
	viz.On("Visualize", mock.Anything, mock.MatchedBy(func(r models.VisualizeRequest) bool {
		return r.PlayerName == "LeBron James" && r.Timeframe == models.TimeframeSeason
	})).Return(models.VisualizeResponse{Graph: graph}, nil).Once()
	viz.On("Visualize", mock.Anything, mock.MatchedBy(func(r models.VisualizeRequest) bool {
		return r.Timeframe == models.TimeframeLast5
	})).Return(models.VisualizeResponse{Error: "Player not found in stats"}, nil).Once()

	sess := newTestSession(viz)
	view, err := sess.SelectTimeframe(context.Background(), "standard-0", models.TimeframeSeason)
	require.NoError(t, err)
	assert.Equal(t, PanelLoaded, view.State)
	assert.Equal(t, graph, view.Graph)

	view, err = sess.OpenPanel(context.Background(), "standard-0", "")
	require.NoError(t, err)
	assert.Equal(t, PanelFailed, view.State)
	assert.Equal(t, "Player not found in stats", view.Error.Detail)

	viz.AssertExpectations(t)
}

func TestSessionUnknownCard(t *testing.T) {
	viz := &countingVisualizer{}
	sess := newTestSession(viz)

	_, err := sess.TogglePanel(context.Background(), "standard-42")
	assert.ErrorIs(t, err, ErrUnknownCard)
	_, err = sess.ClosePanel("demon-7")
	assert.ErrorIs(t, err, ErrUnknownCard)
	_, err = sess.Panel("nope")
	assert.ErrorIs(t, err, ErrUnknownCard)
	_, err = sess.OpenPanel(context.Background(), "standard-00", "")
	assert.ErrorIs(t, err, ErrUnknownCard)
	assert.Equal(t, 0, viz.count())
}

func TestSessionTransportErrorStaysInPanel(t *testing.T) {
	viz := &countingVisualizer{err: errors.New("dial tcp: connection refused")}
	sess := newTestSession(viz)

	view, err := sess.TogglePanel(context.Background(), "standard-1")
	require.NoError(t, err)
	assert.Equal(t, PanelFailed, view.State)
	assert.Equal(t, KindRequest, view.Error.Kind)

	snap := sess.Snapshot()
	assert.Len(t, snap.Cards, 5)
	require.NotNil(t, snap.OpenPanel)
	assert.Equal(t, "standard-1", snap.OpenPanel.ID)
}

// gatedVisualizer holds every request until release is closed.
type gatedVisualizer struct {
	release chan struct{}
	resp    models.VisualizeResponse
}

func (g *gatedVisualizer) Visualize(ctx context.Context, _ models.VisualizeRequest) (models.VisualizeResponse, error) {
	select {
	case <-g.release:
		return g.resp, nil
	case <-ctx.Done():
		return models.VisualizeResponse{}, ctx.Err()
	}
}

func TestSessionAsyncPublishes(t *testing.T) {
	graph := pngBase64(t, 5, 5)
	viz := &gatedVisualizer{release: make(chan struct{}), resp: models.VisualizeResponse{Graph: graph}}
	sess := newTestSession(viz)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, unsubscribe := sess.Subscribe(ctx)
	defer unsubscribe()

	view, err := sess.TogglePanelAsync("standard-2")
	require.NoError(t, err)
	assert.Equal(t, PanelLoading, view.State)

	first := <-updates
	assert.Equal(t, PanelLoading, first.State)

	close(viz.release)
	sess.Wait()

	select {
	case final := <-updates:
		assert.Equal(t, "standard-2", final.ID)
		assert.Equal(t, PanelLoaded, final.State)
		assert.Equal(t, graph, final.Graph)
	case <-time.After(time.Second):
		t.Fatal("no update after fetch completed")
	}
}

func TestSessionAsyncStaleDiscarded(t *testing.T) {
	viz := &gatedVisualizer{release: make(chan struct{}), resp: models.VisualizeResponse{Graph: pngBase64(t, 5, 5)}}
	sess := newTestSession(viz)

	_, err := sess.SelectTimeframeAsync("standard-0", models.TimeframeLast10)
	require.NoError(t, err)
	// opening another card collapses the first one while its fetch is in flight
	_, err = sess.SelectTimeframeAsync("standard-3", models.TimeframeLast20)
	require.NoError(t, err)

	close(viz.release)
	sess.Wait()

	first, err := sess.Panel("standard-0")
	require.NoError(t, err)
	assert.Equal(t, PanelCollapsed, first.State)
	second, err := sess.Panel("standard-3")
	require.NoError(t, err)
	assert.Equal(t, PanelLoaded, second.State)
	assert.Equal(t, models.TimeframeLast20, second.Timeframe)
}

func TestSessionRerenderCollapsesPanels(t *testing.T) {
	viz := &countingVisualizer{resp: models.VisualizeResponse{Graph: pngBase64(t, 1, 1)}}
	sess := newTestSession(viz)

	_, err := sess.TogglePanel(context.Background(), "standard-0")
	require.NoError(t, err)

	sess.Do(func(v *View) { v.Search("lebron") })
	assert.NotNil(t, sess.Snapshot().OpenPanel)

	sess.Do(func(v *View) { v.ResetFilters() })
	assert.Nil(t, sess.Snapshot().OpenPanel)

	_, err = sess.TogglePanel(context.Background(), "standard-0")
	require.NoError(t, err)
	sess.Do(func(v *View) { require.NoError(t, v.SwitchTab("demon")) })
	snap := sess.Snapshot()
	assert.Nil(t, snap.OpenPanel)
	assert.Equal(t, "demon", snap.ActiveTab)
	assert.Len(t, snap.Cards, 1)
}

func drain(ch <-chan PanelView) []PanelView {
	var out []PanelView
	for {
		select {
		case pv := <-ch:
			out = append(out, pv)
		default:
			return out
		}
	}
}

func TestSessionPublishesCollapses(t *testing.T) {
	viz := &countingVisualizer{resp: models.VisualizeResponse{Graph: pngBase64(t, 1, 1)}}
	sess := newTestSession(viz)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, unsubscribe := sess.Subscribe(ctx)
	defer unsubscribe()

	_, err := sess.TogglePanel(context.Background(), "standard-0")
	require.NoError(t, err)
	got := drain(updates)
	require.Len(t, got, 2)
	assert.Equal(t, PanelLoading, got[0].State)
	assert.Equal(t, PanelLoaded, got[1].State)

	// a second card collapses the first before it starts loading
	_, err = sess.TogglePanel(context.Background(), "standard-1")
	require.NoError(t, err)
	got = drain(updates)
	require.Len(t, got, 3)
	assert.Equal(t, PanelView{ID: "standard-0", State: PanelCollapsed}, got[0])
	assert.Equal(t, "standard-1", got[1].ID)
	assert.Equal(t, PanelLoading, got[1].State)
	assert.Equal(t, PanelLoaded, got[2].State)

	sess.Do(func(v *View) { v.Search("curry") })
	assert.Empty(t, drain(updates))

	sess.Do(func(v *View) { v.ResetFilters() })
	got = drain(updates)
	require.Len(t, got, 1)
	assert.Equal(t, "standard-1", got[0].ID)
	assert.Equal(t, PanelCollapsed, got[0].State)

	// closing the open card is reported once
	_, err = sess.TogglePanel(context.Background(), "standard-1")
	require.NoError(t, err)
	drain(updates)
	_, err = sess.TogglePanel(context.Background(), "standard-1")
	require.NoError(t, err)
	got = drain(updates)
	require.Len(t, got, 1)
	assert.Equal(t, PanelCollapsed, got[0].State)

	sess.Do(func(v *View) { require.NoError(t, v.SwitchTab("demon")) })
	assert.Empty(t, drain(updates))
}

func TestSessionStoreGet(t *testing.T) {
	src := &staticSource{raw: catalogPayload(t)}
	store := NewSessionStore(src, &countingVisualizer{}, SessionOptions{DefaultTab: "standard"}, logging.Discard())

	sess, created, err := store.Get(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "standard", sess.Snapshot().ActiveTab)

	again, created, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, sess, again)
	assert.Equal(t, 1, src.calls)

	_, created, err = store.Get(context.Background(), "expired-cookie")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, store.Len())

	store.Invalidate()
	assert.Equal(t, 0, store.Len())
}

func TestSessionStoreCatalogFailure(t *testing.T) {
	store := NewSessionStore(failingSource{err: errors.New("connection refused")}, &countingVisualizer{}, SessionOptions{}, logging.Discard())

	sess, created, err := store.Get(context.Background(), "")
	assert.Nil(t, sess)
	assert.False(t, created)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStoreSweep(t *testing.T) {
	store := NewSessionStore(&staticSource{raw: catalogPayload(t)}, &countingVisualizer{},
		SessionOptions{IdleTTL: time.Minute}, logging.Discard())

	idle, _, err := store.Get(context.Background(), "")
	require.NoError(t, err)
	streaming, _, err := store.Get(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, unsubscribe := streaming.Subscribe(ctx)
	defer unsubscribe()

	assert.Equal(t, 0, store.Sweep(time.Now()))
	assert.Equal(t, 1, store.Sweep(time.Now().Add(2*time.Minute)))

	_, created, err := store.Get(context.Background(), idle.ID)
	require.NoError(t, err)
	assert.True(t, created)

	cancel()
	assert.Eventually(t, func() bool {
		store.Sweep(time.Now().Add(2 * time.Minute))
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)
}
