package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"summarize-case/internal/app"
	"summarize-case/internal/casesummary"
	"summarize-case/internal/config"
	"summarize-case/internal/llm"
	"summarize-case/internal/logger"
	"summarize-case/internal/presenter"
)

func newTestDeps(client llm.Client) app.Deps {
	return app.Deps{
		LLM: client,
		Config: config.Config{
			MaxUploadSize: 1024 * 1024, // 1MB for tests
			MaxChars:      3000,
		},
		Log: logger.Discard(),
	}
}

type upload struct {
	filename string
	content  []byte
}

func multipartBody(t *testing.T, patientID string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if patientID != "" {
		require.NoError(t, writer.WriteField("patient_id", patientID))
	}
	for _, f := range files {
		part, err := writer.CreateFormFile("files", f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func summaryResponse() json.RawMessage {
	body := map[string]string{}
	for _, f := range casesummary.Fields {
		body[f.Name] = f.Label + " text"
	}
	raw, _ := json.Marshal(body)
	return raw
}

func TestSummarizeHandler(t *testing.T) {
	tests := []struct {
		name          string
		patientID     string
		files         []upload
		contentType   string
		setup         func(*llm.MockClient)
		wantStatus    int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:      "successful summary",
			patientID: "P04",
			files: []upload{
				{"patient_info.tsv", []byte("PATIENT_ID\nP04")},
				{"data_timeline_treatment.txt", []byte("TMZ")},
			},
			setup: func(m *llm.MockClient) {
				m.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.StructuredRequest) bool {
					return strings.Contains(req.Prompt, "### patient_info.tsv\nPATIENT_ID\nP04") &&
						strings.Contains(req.Prompt, "### data_timeline_treatment.txt\nTMZ") &&
						strings.Contains(req.Prompt, "patient P04")
				})).Return(summaryResponse(), nil).Once()
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				want, err := casesummary.Decode(summaryResponse())
				require.NoError(t, err)
				rendered, err := presenter.Render(want)
				require.NoError(t, err)
				assert.Equal(t, string(rendered), rec.Body.String())
			},
		},
		{
			name:       "no files",
			patientID:  "P04",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unsupported file type",
			files:      []upload{{"scan.png", []byte{0x89, 'P', 'N', 'G'}}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed pdf",
			files:      []upload{{"paper.pdf", []byte("not a pdf")}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid patient id",
			patientID:  strings.Repeat("P", 65),
			files:      []upload{{"a.txt", []byte("x")}},
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), "PatientID")
			},
		},
		{
			name:        "not multipart",
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:  "model failure",
			files: []upload{{"a.txt", []byte("x")}},
			setup: func(m *llm.MockClient) {
				m.On("Complete", mock.Anything, mock.Anything).Return(nil, llm.ErrTransport).Once()
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:  "schema mismatch",
			files: []upload{{"a.txt", []byte("x")}},
			setup: func(m *llm.MockClient) {
				m.On("Complete", mock.Anything, mock.Anything).Return(json.RawMessage(`{}`), nil).Once()
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "file too large",
			files:      []upload{{"large.txt", make([]byte, 2*1024*1024)}},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(llm.MockClient)
			if tt.setup != nil {
				tt.setup(client)
			}
			router := newRouter(newTestDeps(client))

			body, contentType := multipartBody(t, tt.patientID, tt.files...)
			if tt.contentType != "" {
				contentType = tt.contentType
			}
			req := httptest.NewRequest(http.MethodPost, "/api/cases/summarize", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.checkResponse != nil {
				tt.checkResponse(t, rec)
			}
			client.AssertExpectations(t)
		})
	}
}

func TestSchemaHandler(t *testing.T) {
	router := newRouter(newTestDeps(new(llm.MockClient)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cases/schema", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Equal(t, "object", schema["type"])
}

func TestHealthz(t *testing.T) {
	router := newRouter(newTestDeps(new(llm.MockClient)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestUploadAllowed(t *testing.T) {
	assert.True(t, uploadAllowed("patient_info.tsv"))
	assert.True(t, uploadAllowed("timeline.TXT"))
	assert.True(t, uploadAllowed("paper.pdf"))
	assert.False(t, uploadAllowed("scan.png"))
	assert.False(t, uploadAllowed("noext"))
}
