package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/async"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
)

type memDocs struct {
	docs map[uuid.UUID]*entity.Document
}

func (m *memDocs) Create(_ context.Context, d *entity.Document) error {
	if m.docs == nil {
		m.docs = map[uuid.UUID]*entity.Document{}
	}
	if d.Status == "" {
		d.Status = constants.DocStatusUploaded
	}
	m.docs[d.ID] = d
	return nil
}
func (m *memDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	if d, ok := m.docs[id]; ok {
		return d, nil
	}
	return nil, common.NewAppError("DOCUMENT_NOT_FOUND", id.String(), common.ErrNotFound)
}
func (m *memDocs) Delete(_ context.Context, id uuid.UUID) error { delete(m.docs, id); return nil }
func (m *memDocs) MarkProcessing(_ context.Context, _ uuid.UUID) error { return nil }
func (m *memDocs) Finish(_ context.Context, _ uuid.UUID, _ constants.DocumentStatus, _ string) error {
	return nil
}
func (m *memDocs) SetExtraction(_ context.Context, _ uuid.UUID, _ json.RawMessage, _ float64) error {
	return nil
}
func (m *memDocs) SetVerification(_ context.Context, _ uuid.UUID, _ constants.VerificationStatus) error {
	return nil
}
func (m *memDocs) SetLocks(_ context.Context, _ uuid.UUID, _, _ bool) error { return nil }
func (m *memDocs) ListNeedingReview(_ context.Context, _ int) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range m.docs {
		if d.Verification == constants.VerifyNeedsReview {
			out = append(out, d)
		}
	}
	return out, nil
}
func (m *memDocs) SweepStale(_ context.Context, _ time.Duration) ([]uuid.UUID, error) {
	return nil, nil
}

type memQueue struct {
	jobs []async.Job
}

func (q *memQueue) Enqueue(_ context.Context, job async.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}
func (q *memQueue) Shutdown(_ context.Context) {}

func newTestServer(t *testing.T) (*Server, *memDocs, *memQueue) {
	t.Helper()
	docs := &memDocs{docs: map[uuid.UUID]*entity.Document{}}
	queue := &memQueue{}
	s := New(docs, nil, nil, queue, nil, nil, t.TempDir(), nil)
	return s, docs, queue
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("ACME Traders\nGrand Total: 1180\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUpload_OK(t *testing.T) {
	s, docs, queue := newTestServer(t)

	body, ctype := multipartUpload(t, map[string]string{
		"category":       "Software",
		"payment_method": constants.PayMethodBankTransfer,
		"drop_name":      "spring-drop",
	}, "bill.pdf")

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, docs.docs, 1)
	require.Len(t, queue.jobs, 1)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "uploaded", resp["status"])
	assert.NotEmpty(t, resp["id"])
}

func TestUpload_MissingRequiredFields(t *testing.T) {
	s, _, queue := newTestServer(t)

	body, ctype := multipartUpload(t, map[string]string{
		"payment_method": constants.PayMethodCash,
	}, "bill.pdf")

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, queue.jobs)
}

func TestUpload_UnspecifiedPaymentMethodRejected(t *testing.T) {
	s, _, _ := newTestServer(t)

	body, ctype := multipartUpload(t, map[string]string{
		"category":       "Software",
		"payment_method": constants.PayMethodUnspecified,
		"drop_name":      "spring-drop",
	}, "bill.pdf")

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "payment_method")
}

func TestUpload_UnsupportedExtensionRejected(t *testing.T) {
	s, _, _ := newTestServer(t)

	body, ctype := multipartUpload(t, map[string]string{
		"category":       "Software",
		"payment_method": constants.PayMethodCash,
		"drop_name":      "spring-drop",
	}, "bill.exe")

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDocument_InvalidID(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDocument_NotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReprocessOne_QueuesJob(t *testing.T) {
	s, docs, queue := newTestServer(t)

	doc := &entity.Document{ID: uuid.New(), Status: constants.DocStatusProcessed}
	require.NoError(t, docs.Create(context.Background(), doc))

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/"+doc.ID.String()+"/reprocess", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.jobs, 1)
	assert.True(t, queue.jobs[0].Force)
	assert.Equal(t, doc.ID, queue.jobs[0].DocumentID)
}

type memBills struct {
	postingErr   error
	postingCalls []struct {
		itemID uuid.UUID
		post   bool
	}
}

func (b *memBills) ReplaceForDocument(_ context.Context, bill *entity.Bill) (*entity.Bill, error) {
	return bill, nil
}
func (b *memBills) GetByID(_ context.Context, _ uuid.UUID) (*entity.Bill, error) {
	return nil, common.NewAppError("BILL_NOT_FOUND", "", common.ErrNotFound)
}
func (b *memBills) GetByDocumentID(_ context.Context, _ uuid.UUID) (*entity.Bill, error) {
	return nil, common.NewAppError("BILL_NOT_FOUND", "", common.ErrNotFound)
}
func (b *memBills) ListAll(_ context.Context) ([]*entity.Bill, error) { return nil, nil }
func (b *memBills) SetPaymentStatus(_ context.Context, _ uuid.UUID, _ constants.PaymentStatus) error {
	return nil
}
func (b *memBills) SetJournal(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }
func (b *memBills) ReplaceTermsAndSchedule(_ context.Context, _ uuid.UUID, _ *entity.PaymentTerms, _ []*entity.PaymentScheduleEntry) error {
	return nil
}
func (b *memBills) GetSchedule(_ context.Context, _ uuid.UUID) ([]*entity.PaymentScheduleEntry, error) {
	return nil, nil
}
func (b *memBills) UpdateItemPosting(_ context.Context, itemID uuid.UUID, post bool) error {
	b.postingCalls = append(b.postingCalls, struct {
		itemID uuid.UUID
		post   bool
	}{itemID, post})
	return b.postingErr
}

func newTestServerWithBills(t *testing.T) (*Server, *memBills) {
	t.Helper()
	bills := &memBills{}
	docs := &memDocs{docs: map[uuid.UUID]*entity.Document{}}
	s := New(docs, bills, nil, &memQueue{}, nil, nil, t.TempDir(), nil)
	return s, bills
}

func TestItemPosting_OK(t *testing.T) {
	s, bills := newTestServerWithBills(t)
	itemID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/v1/items/"+itemID.String()+"/posting",
		strings.NewReader(`{"posted": true}`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, bills.postingCalls, 1)
	assert.Equal(t, itemID, bills.postingCalls[0].itemID)
	assert.True(t, bills.postingCalls[0].post)
}

func TestItemPosting_Revert(t *testing.T) {
	s, bills := newTestServerWithBills(t)
	itemID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/v1/items/"+itemID.String()+"/posting",
		strings.NewReader(`{"posted": false}`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, bills.postingCalls, 1)
	assert.False(t, bills.postingCalls[0].post)
}

func TestItemPosting_MissingDimensionsRejected(t *testing.T) {
	s, bills := newTestServerWithBills(t)
	bills.postingErr = common.FailedPreconditionError("item needs account, department and drop before posting")

	req := httptest.NewRequest(http.MethodPost, "/v1/items/"+uuid.NewString()+"/posting",
		strings.NewReader(`{"posted": true}`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "account, department and drop")
}

func TestItemPosting_InvalidID(t *testing.T) {
	s, bills := newTestServerWithBills(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/items/nope/posting",
		strings.NewReader(`{"posted": true}`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, bills.postingCalls)
}

func TestReprocessBatch_QueuesNeedingReview(t *testing.T) {
	s, docs, queue := newTestServer(t)

	needsReview := &entity.Document{ID: uuid.New(), Verification: constants.VerifyNeedsReview}
	fine := &entity.Document{ID: uuid.New(), Verification: constants.VerifyVerified}
	require.NoError(t, docs.Create(context.Background(), needsReview))
	require.NoError(t, docs.Create(context.Background(), fine))

	req := httptest.NewRequest(http.MethodPost, "/v1/reprocess", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, needsReview.ID, queue.jobs[0].DocumentID)
}
