package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-theremin/synth"
	"github.com/cwbudde/algo-theremin/tracking"
)

func newTestServer(t *testing.T) (*Server, *synth.Synthesizer) {
	t.Helper()
	syn, err := synth.New(nil, nil)
	require.NoError(t, err)
	sess := tracking.NewSession(syn, tracking.WithSmoothing(false))
	return New(Config{}, syn, WithSession(sess)), syn
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeInfo(t *testing.T, rec *httptest.ResponseRecorder) synth.Info {
	t.Helper()
	var info synth.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	return info
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestInfo(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	info := decodeInfo(t, rec)
	assert.Equal(t, 440.0, info.Frequency)
	assert.Equal(t, "A4", info.Note)
	assert.Equal(t, "sine", info.WaveType)
	assert.False(t, info.IsPlaying)
}

func TestNotes(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/notes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var notes []synth.GuideNote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.NotEmpty(t, notes)
	assert.Equal(t, "A3", notes[0].Name)
}

func TestFrameUpdatesSynth(t *testing.T) {
	s, syn := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/frame",
		`{"right_hand_y":1,"left_hand_x":0.5,"left_hand_y":0,"right_hand_pinch":0.15,"process_time_ms":20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report tracking.FrameReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, uint64(1), report.Frame)
	assert.InDelta(t, 50, report.FPS, 1e-9)

	info := syn.Info()
	assert.InDelta(t, synth.DefaultMinFrequency, info.Frequency, 1e-9)
	assert.InDelta(t, 100, info.Volume, 1e-9)
	assert.InDelta(t, 0.021, info.VibratoDepth, 1e-12)
	assert.InDelta(t, 0.8, info.DelaySeconds, 1e-12)
}

func TestFrameWithoutLeftHandSilences(t *testing.T) {
	s, syn := newTestServer(t)
	do(t, s, http.MethodPost, "/frame", `{"right_hand_y":0.5,"left_hand_x":0.4}`)
	require.NotZero(t, syn.Volume())
	rec := do(t, s, http.MethodPost, "/frame", `{"right_hand_y":0.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, syn.Volume())
}

func TestFrameRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name, body string
	}{
		{"malformed", `{"right_hand_y":`},
		{"empty", ``},
		{"unknown field", `{"nose_x":0.5}`},
		{"wrong type", `{"right_hand_y":"high"}`},
		{"negative time", `{"process_time_ms":-1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/frame", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestParamsClampsAndReturnsInfo(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/params", `{"vibrato_depth":0.9,"delay_seconds":0.5,"reverb_enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decodeInfo(t, rec)
	assert.Equal(t, synth.MaxVibratoDepth, info.VibratoDepth)
	assert.Equal(t, 0.5, info.DelaySeconds)
	assert.False(t, info.ReverbEnabled)

	rec = do(t, s, http.MethodPost, "/params", `{"vibrato_depth":"deep"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWave(t *testing.T) {
	s, syn := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/wave", `{"wave":"saw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "saw", decodeInfo(t, rec).WaveType)

	rec = do(t, s, http.MethodPost, "/wave", `{"next":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, synth.Triangle, syn.WaveType())

	rec = do(t, s, http.MethodPost, "/wave", `{"wave":"noise"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodPost, "/wave", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, synth.Triangle, syn.WaveType())
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/frame", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	syn, err := synth.New(nil, nil)
	require.NoError(t, err)
	s := New(Config{MaxBodyBytes: 16}, syn)
	rec := do(t, s, http.MethodPost, "/params", `{"vibrato_depth":0.1,"delay_seconds":0.3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
