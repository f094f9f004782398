package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestRequestLogger(t *testing.T) {
	testCases := []struct {
		name          string
		requestID     string
		handler       gin.HandlerFunc
		wantStatus    int
		wantLevel     string
		wantRequestID string
	}{
		{
			name:       "OK",
			handler:    func(gctx *gin.Context) { gctx.Status(http.StatusOK) },
			wantStatus: http.StatusOK,
			wantLevel:  "info",
		},
		{
			name:          "KeepsRequestID",
			requestID:     "request-1",
			handler:       func(gctx *gin.Context) { gctx.Status(http.StatusCreated) },
			wantStatus:    http.StatusCreated,
			wantLevel:     "info",
			wantRequestID: "request-1",
		},
		{
			name:       "ServerError",
			handler:    func(gctx *gin.Context) { gctx.Status(http.StatusInternalServerError) },
			wantStatus: http.StatusInternalServerError,
			wantLevel:  "error",
		},
		{
			name:       "Panic",
			handler:    func(gctx *gin.Context) { panic("boom") },
			wantStatus: http.StatusInternalServerError,
			wantLevel:  "error",
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger := zerolog.New(&buf)

			gin.SetMode(gin.ReleaseMode)
			server := gin.New()
			server.Use(RequestLogger(logger))
			server.GET("/", func(gctx *gin.Context) {
				if zerolog.Ctx(gctx.Request.Context()).GetLevel() == zerolog.Disabled {
					t.Error("request context has no logger")
				}
				tc.handler(gctx)
			})

			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.requestID != "" {
				request.Header.Set(RequestIDHeader, tc.requestID)
			}

			server.ServeHTTP(recorder, request)

			if recorder.Code != tc.wantStatus {
				t.Errorf("recorder.Code = %v, want %v", recorder.Code, tc.wantStatus)
			}

			gotID := recorder.Header().Get(RequestIDHeader)
			if gotID == "" || (tc.wantRequestID != "" && gotID != tc.wantRequestID) {
				t.Errorf("response %s = %q, want %q", RequestIDHeader, gotID, tc.wantRequestID)
			}

			// The last line is the request summary.
			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))

			var got struct {
				Level      string `json:"level"`
				RequestID  string `json:"request_id"`
				StatusCode int    `json:"status_code"`
			}
			if err := json.Unmarshal(lines[len(lines)-1], &got); err != nil {
				t.Fatalf("json.Unmarshal(%s) returned error: %v", lines[len(lines)-1], err)
			}

			if got.Level != tc.wantLevel || got.RequestID != gotID || got.StatusCode != tc.wantStatus {
				t.Errorf("log = %+v, want level %v, request_id %v, status_code %v",
					got, tc.wantLevel, gotID, tc.wantStatus)
			}
		})
	}
}
