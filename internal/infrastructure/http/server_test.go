package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askbase/internal/adapters/kbstore"
	"askbase/internal/adapters/vectordb"
	"askbase/internal/domain/entities"
	"askbase/internal/domain/ports"
	"askbase/internal/domain/usecases"
	"askbase/internal/snapshot"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vector, e.err
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = e.vector
	}
	return out, nil
}

type stubStore struct {
	entries []entities.KBEntry
}

func (s *stubStore) Get(id string) (entities.KBEntry, error) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return entities.KBEntry{}, ports.ErrNotFound
}

func (s *stubStore) All() []entities.KBEntry { return s.entries }
func (s *stubStore) Count() int              { return len(s.entries) }

type stubRebuilder struct {
	calls int
}

func (r *stubRebuilder) Refresh(ctx context.Context) { r.calls++ }

type stubEditor struct {
	created kbstore.EntryDraft
	err     error
}

func (e *stubEditor) Create(draft kbstore.EntryDraft) (entities.KBEntry, error) {
	if e.err != nil {
		return entities.KBEntry{}, e.err
	}
	e.created = draft
	return entities.KBEntry{ID: "S1_T_M1_001", Question: draft.Question, Answer: draft.Answer}, nil
}

func (e *stubEditor) Update(id string, draft kbstore.EntryDraft) (entities.KBEntry, error) {
	if e.err != nil {
		return entities.KBEntry{}, e.err
	}
	return entities.KBEntry{ID: id, Question: draft.Question, Answer: draft.Answer}, nil
}

func (e *stubEditor) Delete(id string) error { return e.err }

func testSnapshot(t *testing.T, entries ...entities.KBEntry) ports.Snapshot {
	t.Helper()
	indexEntries := make([]ports.IndexEntry, len(entries))
	for i, e := range entries {
		indexEntries[i] = ports.IndexEntry{ID: e.ID, Vector: []float32{1, 0}}
	}
	index, err := vectordb.NewMemoryBuilder().Build(context.Background(), indexEntries)
	require.NoError(t, err)
	return ports.Snapshot{Index: index, Store: &stubStore{entries: entries}}
}

func testServer(t *testing.T, embedder ports.Embedder, snap ports.Snapshot, notesDir string, opts ...Option) *Server {
	t.Helper()
	answer, err := usecases.NewAnswerUseCase(embedder, usecases.DefaultConfig(), nil)
	require.NoError(t, err)
	return NewServer(snapshot.NewHolder(snap), answer, notesDir, nil, opts...)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAsk_SingleAnswer(t *testing.T) {
	entry := entities.KBEntry{
		ID:       "S3_AME_M1_001",
		Question: "What is a cam?",
		Answer:   "A rotating machine element.",
		Tags:     []string{"cams", "kinematics"},
	}
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t, entry), "")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/ask", askBody("What is a cam?"))
	require.Equal(t, http.StatusOK, rec.Code)

	var plan entities.ResponsePlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, entities.PlanSingle, plan.Kind)
	assert.Equal(t, []string{"S3_AME_M1_001"}, plan.EntryIDs)
	assert.Contains(t, plan.Text, "A rotating machine element.")
}

func askBody(question string) map[string]string {
	return map[string]string{"question": question}
}

func TestAsk_TooShortIsOK(t *testing.T) {
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t), "")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/ask", askBody("hi"))
	require.Equal(t, http.StatusOK, rec.Code)

	var plan entities.ResponsePlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, entities.PlanTooShort, plan.Kind)
}

func TestAsk_BadBody(t *testing.T) {
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t), "")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/ask", map[string]string{"q": "wrong field"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_BackendFailure(t *testing.T) {
	srv := testServer(t, &stubEmbedder{err: errors.New("ollama down")}, testSnapshot(t), "")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/ask", askBody("what is a cam?"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSource_Download(t *testing.T) {
	notes := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(notes, "Sem-III"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(notes, "Sem-III", "cams.pdf"), []byte("%PDF-fake"), 0o644))

	entry := entities.KBEntry{
		ID:       "S3_AME_M1_001",
		Question: "q",
		Answer:   "a",
		Source:   entities.Source{Type: "pdf", Path: map[string]string{"pdf": "Sem-III/cams.pdf"}},
	}
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t, entry), notes)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/source/S3_AME_M1_001/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-fake", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cams.pdf")
}

func TestSource_NotFound(t *testing.T) {
	notes := t.TempDir()
	entry := entities.KBEntry{
		ID:       "S3_AME_M1_001",
		Question: "q",
		Answer:   "a",
		Source:   entities.Source{Path: map[string]string{"pdf": "missing.pdf"}},
	}
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t, entry), notes)

	cases := []string{
		"/api/source/S9_NOPE_M1_001/pdf", // unknown entry
		"/api/source/S3_AME_M1_001/docx", // no source of that type
		"/api/source/S3_AME_M1_001/pdf",  // file gone from disk
	}
	for _, path := range cases {
		rec := doJSON(t, srv.Handler(), http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestAdmin_CreateTriggersRebuild(t *testing.T) {
	editor := &stubEditor{}
	rebuilder := &stubRebuilder{}
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t), "",
		WithAdmin(editor, rebuilder))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/entries", kbstore.EntryDraft{
		Semester: 1, Subject: "M", Module: 1, Question: "q", Answer: "a",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, rebuilder.calls)
	assert.Equal(t, "q", editor.created.Question)
}

func TestAdmin_UpdateMissingEntry(t *testing.T) {
	editor := &stubEditor{err: ports.ErrNotFound}
	rebuilder := &stubRebuilder{}
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t), "",
		WithAdmin(editor, rebuilder))

	rec := doJSON(t, srv.Handler(), http.MethodPut, "/api/entries/S1_X_M1_001", kbstore.EntryDraft{
		Question: "q", Answer: "a",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, rebuilder.calls)
}

func TestAdmin_Delete(t *testing.T) {
	rebuilder := &stubRebuilder{}
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t), "",
		WithAdmin(&stubEditor{}, rebuilder))

	rec := doJSON(t, srv.Handler(), http.MethodDelete, "/api/entries/S1_X_M1_001", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, rebuilder.calls)
}

func TestAdmin_RoutesAbsentWithoutEditor(t *testing.T) {
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t), "")

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/entries", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	entry := entities.KBEntry{ID: "S1_M_M1_001", Question: "q", Answer: "a"}
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t, entry), "")

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entries":1`)
}

func TestRequestIDHeader(t *testing.T) {
	srv := testServer(t, &stubEmbedder{vector: []float32{1, 0}}, testSnapshot(t), "")

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec2, req)
	assert.Equal(t, "abc-123", rec2.Header().Get("X-Request-ID"))
}
