package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/llm"
)

type fakeModel struct {
	fields llm.BillFields
	err    error
	calls  int
	hints  []llm.Hint
}

func (f *fakeModel) ExtractFields(_ context.Context, req llm.ExtractRequest) (llm.BillFields, []byte, error) {
	f.calls++
	f.hints = req.Hints
	if f.err != nil {
		return llm.BillFields{}, nil, f.err
	}
	return f.fields, nil, nil
}

const sampleText = "ACME Traders\nDate: 2024-03-15\nGST: 180\nGrand Total: 1180"

func modelFields() llm.BillFields {
	return llm.BillFields{
		VendorName:  "ACME Traders Pvt Ltd",
		BillNumber:  "INV-7",
		BillDate:    llm.FieldValue{Value: "2024-03-15", Confidence: 0.95},
		TotalAmount: llm.FieldValue{Value: "1180.00", Confidence: 0.95},
		TaxAmount:   "180.00",
	}
}

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestOrchestrator(model llm.FieldExtractor, clock *fakeClock, callsPerMin int) *Orchestrator {
	return NewOrchestrator(model, OrchestratorConfig{
		MaxCallsPerMin: callsPerMin,
		MaxModelChars:  1000,
		Now:            clock.now,
	}, nil)
}

func TestOrchestrator_NoText(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	o := newTestOrchestrator(&fakeModel{}, clock, 10)

	_, err := o.Extract(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNoText))
}

func TestOrchestrator_ModelResultWins(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	model := &fakeModel{fields: modelFields()}
	o := newTestOrchestrator(model, clock, 10)

	res, err := o.Extract(context.Background(), sampleText)
	require.NoError(t, err)

	assert.Equal(t, ProviderModel, res.Provider)
	assert.False(t, res.Fallback)
	assert.Equal(t, "ACME Traders Pvt Ltd", res.Fields.VendorName)
	assert.Equal(t, "1180.00", res.Fields.Total)
	assert.Equal(t, 1, model.calls)
	assert.NotEmpty(t, model.hints, "heuristic candidates should be passed as hints")
	assert.LessOrEqual(t, len(model.hints), 5)
}

func TestOrchestrator_ModelErrorFallsBackToHeuristic(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	model := &fakeModel{err: errors.New("upstream 500")}
	o := newTestOrchestrator(model, clock, 10)

	res, err := o.Extract(context.Background(), sampleText)
	require.NoError(t, err, "provider failure must degrade, not block")

	assert.Equal(t, ProviderHeuristic, res.Provider)
	assert.True(t, res.Fallback)
	assert.Equal(t, ReasonProviderError, res.Reason)
	assert.Equal(t, "ACME Traders", res.Fields.VendorName)
}

func TestOrchestrator_TextTooLongSkipsModel(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	model := &fakeModel{fields: modelFields()}
	o := newTestOrchestrator(model, clock, 10)

	long := sampleText + "\n" + strings.Repeat("x ", 1000)
	res, err := o.Extract(context.Background(), long)
	require.NoError(t, err)

	assert.Equal(t, 0, model.calls)
	assert.True(t, res.Fallback)
	assert.Equal(t, ReasonTextTooLong, res.Reason)
}

func TestOrchestrator_ThrottleGate(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	model := &fakeModel{fields: modelFields()}
	o := newTestOrchestrator(model, clock, 2)

	// burst budget of 2 model calls
	for i := 0; i < 2; i++ {
		res, err := o.Extract(context.Background(), sampleText)
		require.NoError(t, err)
		assert.False(t, res.Fallback, "call %d should reach the model", i+1)
	}

	res, err := o.Extract(context.Background(), sampleText)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, ReasonThrottled, res.Reason)
	assert.Equal(t, 2, model.calls)

	// budget refills after the window passes; no sleeping needed
	clock.advance(time.Minute)
	res, err = o.Extract(context.Background(), sampleText)
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, 3, model.calls)
}

func TestOrchestrator_NilModelUsesHeuristicOnly(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	o := newTestOrchestrator(nil, clock, 10)

	res, err := o.Extract(context.Background(), sampleText)
	require.NoError(t, err)
	assert.Equal(t, ProviderHeuristic, res.Provider)
	assert.False(t, res.Fallback)
}

func TestOrchestrator_MergeBackfillsFromHeuristic(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	fields := modelFields()
	fields.VendorName = "" // model missed the vendor
	model := &fakeModel{fields: fields}
	o := newTestOrchestrator(model, clock, 10)

	res, err := o.Extract(context.Background(), sampleText)
	require.NoError(t, err)

	assert.Equal(t, ProviderMerged, res.Provider)
	assert.Equal(t, "ACME Traders", res.Fields.VendorName)
	assert.Equal(t, "1180.00", res.Fields.Total)
}
