// AngelaMos | 2026
// handler_test.go

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schooltino/api/internal/core"
)

type fakeLLM struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeLLM) Complete(
	_ context.Context,
	prompt string,
	_ int,
) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeSpeech struct {
	audio []byte
	err   error
}

func (f *fakeSpeech) Synthesize(
	context.Context, string, string,
) ([]byte, error) {
	return f.audio, f.err
}

func postJSON(
	t *testing.T,
	handler http.HandlerFunc,
	body string,
) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(
		http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	detail, _ := body["detail"].(string)
	return detail
}

func TestQueryReturnsCompletion(t *testing.T) {
	llm := &fakeLLM{text: "photosynthesis explained"}
	h := NewHandler(NewService(llm, &fakeSpeech{}))

	rec := postJSON(t, h.Query, `{"prompt":"explain photosynthesis"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "photosynthesis explained", resp.Text)
}

func TestQueryProviderDownIs503(t *testing.T) {
	llm := &fakeLLM{err: core.ErrProviderDown}
	h := NewHandler(NewService(llm, &fakeSpeech{}))

	rec := postJSON(t, h.Query, `{"prompt":"explain photosynthesis"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, core.TagProviderDown, detailOf(t, rec))
}

func TestQueryEmptyPromptIsBadRequest(t *testing.T) {
	h := NewHandler(NewService(&fakeLLM{}, &fakeSpeech{}))

	rec := postJSON(t, h.Query, `{"prompt":""}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaperPromptCarriesRequestShape(t *testing.T) {
	llm := &fakeLLM{text: "SECTION A ..."}
	h := NewHandler(NewService(llm, &fakeSpeech{}))

	rec := postJSON(t, h.Paper, `{
		"subject": "Mathematics",
		"class_name": "8",
		"topics": ["algebra", "geometry"],
		"total_marks": 80
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, llm.prompts, 1)
	require.Contains(t, llm.prompts[0], "80-mark Mathematics")
	require.Contains(t, llm.prompts[0], "class 8")
	require.Contains(t, llm.prompts[0], "algebra, geometry")
}

func TestVoiceStreamsAudio(t *testing.T) {
	speech := &fakeSpeech{audio: []byte("mp3-bytes")}
	h := NewHandler(NewService(&fakeLLM{}, speech))

	rec := postJSON(t, h.Voice, `{"text":"good morning students"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	require.Equal(t, []byte("mp3-bytes"), rec.Body.Bytes())
}

func TestVoiceProviderDownIs503(t *testing.T) {
	speech := &fakeSpeech{err: core.ErrProviderDown}
	h := NewHandler(NewService(&fakeLLM{}, speech))

	rec := postJSON(t, h.Voice, `{"text":"good morning students"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, core.TagProviderDown, detailOf(t, rec))
}
