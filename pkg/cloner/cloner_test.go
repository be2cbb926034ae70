package cloner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/ookclone/pkg/metrics"
	"github.com/herlein/ookclone/pkg/pulse"
	"github.com/herlein/ookclone/pkg/pulse/pulsetest"
	"github.com/herlein/ookclone/pkg/store"
	"github.com/herlein/ookclone/pkg/timing"
)

const epoch = 1_000_000

var ook433 = pulse.RadioSettings{FrequencyHz: 433_920_000, Modulation: pulse.ModulationOOK, SymbolRateBaud: 2400}

type rig struct {
	clock   *timing.ManualClock
	line    *pulsetest.Line
	radio   *pulsetest.Radio
	store   *store.Store
	metrics *metrics.Recorder
	cloner  *Cloner
}

func newRig(t *testing.T, radio pulse.Radio, edges ...uint64) *rig {
	t.Helper()
	clock := timing.NewManualClock(epoch)
	st, err := store.Open(t.TempDir(), "")
	require.NoError(t, err)

	r := &rig{
		clock:   clock,
		line:    pulsetest.NewLine(clock, 10, edges...),
		store:   st,
		metrics: metrics.New(),
	}
	if radio == nil {
		r.radio = pulsetest.NewRadio()
		radio = r.radio
	}

	r.cloner = New(Options{
		Clock:    clock,
		Capture:  pulse.CaptureConfig{ArmTimeout: 50 * time.Millisecond},
		Radio:    radio,
		Settings: ook433,
		Line:     r.line,
		Store:    st,
		Metrics:  r.metrics,
		Now:      func() time.Time { return time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC) },
	})
	return r
}

func (r *rig) assertCounter(t *testing.T, name, result string, want string) {
	t.Helper()
	help := map[string]string{
		"ookclone_captures_total": "Captures attempted, by result.",
		"ookclone_replays_total":  "Replays attempted, by result.",
	}[name]
	expected := "# HELP " + name + " " + help + "\n# TYPE " + name + " counter\n" +
		name + `{result="` + result + `"} ` + want + "\n"
	assert.NoError(t, testutil.GatherAndCompare(r.metrics.Registry(), strings.NewReader(expected), name))
}

func gateEdges() []uint64 {
	return []uint64{epoch + 100, epoch + 600, epoch + 1300, epoch + 2000}
}

func TestNoHardware(t *testing.T) {
	st, err := store.Open(t.TempDir(), "")
	require.NoError(t, err)
	_, err = st.Save("gate", pulse.Sequence{100})
	require.NoError(t, err)

	c := New(Options{Store: st, Line: &pulsetest.Line{}})

	assert.ErrorIs(t, c.Setup(), ErrNoHardware)
	_, err = c.Sniff(testContext(t), "")
	assert.ErrorIs(t, err, ErrNoHardware)
	_, err = c.Play(testContext(t), "gate")
	assert.ErrorIs(t, err, ErrNoHardware)

	sum, err := c.Show("gate")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Pulses)
}

func TestSetup(t *testing.T) {
	radio := &pulsetest.Radio{}
	r := newRig(t, radio)

	require.NoError(t, r.cloner.Setup())
	assert.Equal(t, []string{"configure"}, radio.Calls)
	assert.Equal(t, ook433, radio.Settings)
	assert.True(t, radio.Configured())

	radio.ConfigureErr = errors.New("usb gone")
	err := r.cloner.Setup()
	assert.ErrorIs(t, err, radio.ConfigureErr)
	assert.ErrorContains(t, err, "radio setup")
}

func TestSniffSaves(t *testing.T) {
	r := newRig(t, nil, gateEdges()...)

	got, err := r.cloner.Sniff(testContext(t), "gate")

	require.NoError(t, err)
	assert.Equal(t, pulse.Sequence{500, 700, 700}, got.Sequence)
	assert.Equal(t, "gate", got.Name)
	assert.Equal(t, filepath.Join(r.store.Dir(), "gate.json"), got.Path)
	assert.InDelta(t, 600*time.Millisecond, got.Elapsed, float64(2*time.Millisecond))

	data, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Equal(t, "[500,700,700]\n", string(data))

	r.assertCounter(t, "ookclone_captures_total", metrics.ResultOK, "1")
}

func TestSniffNamesFromClock(t *testing.T) {
	r := newRig(t, nil, gateEdges()...)

	got, err := r.cloner.Sniff(testContext(t), "")

	require.NoError(t, err)
	assert.Equal(t, "capture-20240309-070501", got.Name)
	assert.FileExists(t, got.Path)
}

func TestSniffNoSignal(t *testing.T) {
	r := newRig(t, nil)

	got, err := r.cloner.Sniff(testContext(t), "gate")

	assert.ErrorIs(t, err, pulse.ErrNoSignalDetected)
	assert.Nil(t, got)
	entries, err := r.cloner.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
	r.assertCounter(t, "ookclone_captures_total", metrics.ResultNoSignal, "1")
}

func TestSniffEmptyIsNotSaved(t *testing.T) {
	r := newRig(t, nil, epoch+100)

	got, err := r.cloner.Sniff(testContext(t), "gate")

	assert.ErrorIs(t, err, ErrEmptyCapture)
	require.NotNil(t, got)
	assert.Empty(t, got.Sequence)
	assert.NoFileExists(t, r.store.Path("gate"))
	r.assertCounter(t, "ookclone_captures_total", metrics.ResultEmpty, "1")
}

func TestSniffEmptySavedWhenAsked(t *testing.T) {
	r := newRig(t, nil, epoch+100)
	r.cloner.opts.SaveEmpty = true

	got, err := r.cloner.Sniff(testContext(t), "gate")

	require.NoError(t, err)
	data, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestSniffReadErrorWritesNothing(t *testing.T) {
	r := newRig(t, nil, gateEdges()...)
	r.line.ReadErrAt = 50

	_, err := r.cloner.Sniff(testContext(t), "gate")

	assert.ErrorIs(t, err, pulse.ErrHardwareRead)
	assert.NoFileExists(t, r.store.Path("gate"))
	r.assertCounter(t, "ookclone_captures_total", metrics.ResultError, "1")
}

func TestSniffCancelled(t *testing.T) {
	r := newRig(t, nil)
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	_, err := r.cloner.Sniff(ctx, "gate")

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, r.store.Path("gate"))
}

func TestSniffInputError(t *testing.T) {
	r := newRig(t, nil, gateEdges()...)
	r.line.InputErr = pulsetest.ErrInjected

	_, err := r.cloner.Sniff(testContext(t), "gate")

	assert.ErrorIs(t, err, pulsetest.ErrInjected)
	assert.Zero(t, r.line.Samples)
}

type receivingRadio struct {
	*pulsetest.Radio
	receiveErr error
}

func (r *receivingRadio) EnterReceive() error {
	r.Calls = append(r.Calls, "receive")
	return r.receiveErr
}

func TestSniffPutsReceiverInRX(t *testing.T) {
	radio := &receivingRadio{Radio: pulsetest.NewRadio()}
	r := newRig(t, radio, gateEdges()...)

	_, err := r.cloner.Sniff(testContext(t), "gate")

	require.NoError(t, err)
	assert.Equal(t, []string{"receive", "idle"}, radio.Calls)

	radio.Calls = nil
	radio.receiveErr = pulsetest.ErrInjected
	_, err = r.cloner.Sniff(testContext(t), "gate2")
	assert.ErrorIs(t, err, pulsetest.ErrInjected)
	assert.Equal(t, []string{"receive"}, radio.Calls)
}

func TestPlay(t *testing.T) {
	r := newRig(t, nil)
	_, err := r.store.Save("gate", pulse.Sequence{500, 700, 700})
	require.NoError(t, err)

	report, err := r.cloner.Play(testContext(t), "gate")

	require.NoError(t, err)
	assert.Equal(t, 3, report.Pulses)
	assert.Equal(t, 1900*time.Microsecond, report.Elapsed)
	assert.Equal(t, []uint64{500, 700, 700}, r.line.Widths())
	assert.Equal(t, pulse.Low, r.line.Driven())
	assert.Equal(t, []string{"transmit", "idle"}, r.radio.Calls)
	assert.Equal(t, "input", r.line.Role())
	r.assertCounter(t, "ookclone_replays_total", metrics.ResultOK, "1")
}

func TestPlayRepeat(t *testing.T) {
	r := newRig(t, nil)
	_, err := r.store.Save("gate", pulse.Sequence{500, 700})
	require.NoError(t, err)

	reports, err := r.cloner.PlayRepeat(testContext(t), "gate", 3, time.Millisecond)

	require.NoError(t, err)
	assert.Len(t, reports, 3)
	assert.Equal(t, []string{"transmit", "idle", "transmit", "idle", "transmit", "idle"}, r.radio.Calls)
	r.assertCounter(t, "ookclone_replays_total", metrics.ResultOK, "3")
}

func TestPlayRepeatStopsOnFailure(t *testing.T) {
	r := newRig(t, nil)
	_, err := r.store.Save("gate", pulse.Sequence{500, 700})
	require.NoError(t, err)
	r.line.WriteErrAt = 5

	reports, err := r.cloner.PlayRepeat(testContext(t), "gate", 3, 0)

	assert.ErrorIs(t, err, pulse.ErrReplay)
	assert.ErrorContains(t, err, "transmission 2 of 3")
	assert.Len(t, reports, 1)
	assert.Equal(t, pulse.Low, r.line.Driven())
}

func TestSniffThenPlay(t *testing.T) {
	r := newRig(t, nil, gateEdges()...)

	got, err := r.cloner.Sniff(testContext(t), "gate")
	require.NoError(t, err)
	_, err = r.cloner.Play(testContext(t), got.Path)

	require.NoError(t, err)
	assert.Equal(t, []uint64{500, 700, 700}, r.line.Widths())
	assert.Equal(t, []string{"input", "output", "input"}, r.line.Roles)
}

func TestPlayMissing(t *testing.T) {
	r := newRig(t, nil)

	_, err := r.cloner.Play(testContext(t), "nope")

	assert.ErrorIs(t, err, store.ErrPersistence)
	assert.Empty(t, r.radio.Calls)
}

func TestPlayUnconfiguredRadio(t *testing.T) {
	radio := &pulsetest.Radio{}
	r := newRig(t, radio)

	_, err := r.cloner.Replay(testContext(t), pulse.Sequence{100})

	assert.ErrorIs(t, err, pulse.ErrRadioNotConfigured)
	assert.Empty(t, r.line.Writes)
	r.assertCounter(t, "ookclone_replays_total", metrics.ResultError, "1")
}

func TestShowAndList(t *testing.T) {
	r := newRig(t, nil)
	_, err := r.store.Save("gate", pulse.Sequence{500, 700, 300})
	require.NoError(t, err)

	sum, err := r.cloner.Show("gate")
	require.NoError(t, err)
	assert.Equal(t, &Summary{
		Name:     "gate",
		Path:     filepath.Join(r.store.Dir(), "gate.json"),
		Pulses:   3,
		Total:    1500 * time.Microsecond,
		Shortest: 300,
		Longest:  700,
	}, sum)

	entries, err := r.cloner.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "gate", entries[0].Name)

	_, err = r.cloner.Show("nope")
	assert.ErrorIs(t, err, store.ErrPersistence)
}

func TestNoStore(t *testing.T) {
	c := New(Options{Radio: pulsetest.NewRadio(), Line: &pulsetest.Line{}})

	_, err := c.Sniff(testContext(t), "")
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = c.Play(testContext(t), "gate")
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = c.List()
	assert.ErrorIs(t, err, ErrNoStore)
}
