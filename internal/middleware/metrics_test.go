package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeStatusRecorder struct {
	statuses []int
}

func (f *fakeStatusRecorder) RecordHTTPStatus(statusCode int) {
	f.statuses = append(f.statuses, statusCode)
}

func TestMetricsMiddleware_RecordsStatusCode(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{
			name: "明示的なWriteHeader",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			want: http.StatusNotFound,
		},
		{
			name: "Writeのみは200として計上",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("ok"))
			},
			want: http.StatusOK,
		},
		{
			name:    "何も書かない場合も200",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			want:    http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeStatusRecorder{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			NewMetricsMiddleware(recorder)(tt.handler).ServeHTTP(rec, req)

			if len(recorder.statuses) != 1 {
				t.Fatalf("recorded %d statuses, want 1", len(recorder.statuses))
			}
			if recorder.statuses[0] != tt.want {
				t.Errorf("recorded status = %d, want %d", recorder.statuses[0], tt.want)
			}
		})
	}
}

func TestStatusRecorder_FirstWriteHeaderWins(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, statusCode: http.StatusOK}

	sr.WriteHeader(http.StatusBadRequest)
	sr.WriteHeader(http.StatusInternalServerError)

	if sr.statusCode != http.StatusBadRequest {
		t.Errorf("statusCode = %d, want first value %d", sr.statusCode, http.StatusBadRequest)
	}
}
