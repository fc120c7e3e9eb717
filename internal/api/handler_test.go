package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgscope/orgscope/internal/collector"
	"github.com/orgscope/orgscope/internal/domain"
	apperrors "github.com/orgscope/orgscope/internal/errors"
)

// stubCollector implements collector.Collector with overridable behavior
// per test case
type stubCollector struct {
	organization func(org string) (*domain.Organization, error)
	validToken   bool
	tokenErr     error
	rateLimit    *domain.RateLimit
}

func (s *stubCollector) GetOrganization(ctx context.Context, org string) (*domain.Organization, error) {
	if s.organization != nil {
		return s.organization(org)
	}
	return &domain.Organization{Login: org}, nil
}

func (s *stubCollector) ValidateToken(ctx context.Context) (bool, error) {
	return s.validToken, s.tokenErr
}

func (s *stubCollector) GetMembers(ctx context.Context, org string) ([]*domain.Member, error) {
	return []*domain.Member{}, nil
}

func (s *stubCollector) GetRepositories(ctx context.Context, org string) ([]*domain.Repository, error) {
	return []*domain.Repository{}, nil
}

func (s *stubCollector) GetCommits(ctx context.Context, org, repo, branch string) ([]*domain.Commit, error) {
	return nil, nil
}

func (s *stubCollector) GetPullRequests(ctx context.Context, org, repo string) ([]*domain.PullRequest, error) {
	return nil, nil
}

func (s *stubCollector) GetTree(ctx context.Context, org, repo, branch string) ([]*domain.TreeEntry, error) {
	return nil, nil
}

func (s *stubCollector) GetFileContent(ctx context.Context, org, repo, path string) (string, error) {
	return "", nil
}

func (s *stubCollector) GetRateLimit(ctx context.Context) (*domain.RateLimit, error) {
	return s.rateLimit, nil
}

func setupTestRouter(stub *stubCollector) *gin.Engine {
	gin.SetMode(gin.TestMode)
	factory := func(token string) collector.Collector { return stub }
	handler := NewHandler(factory, log.New(io.Discard, "", 0))
	return SetupRoutes(handler)
}

func postQuery(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestQuery_MalformedBody(t *testing.T) {
	router := setupTestRouter(&stubCollector{})
	w := postQuery(t, router, `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuery_UnknownAction(t *testing.T) {
	router := setupTestRouter(&stubCollector{})
	w := postQuery(t, router, `{"action": "destroy", "config": {"token": "t", "organization": "acme"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuery_AnalyzeRequiresCompleteConfig(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"missing token", `{"action": "analyze", "config": {"organization": "acme"}}`},
		{"missing organization", `{"action": "analyze", "config": {"token": "t"}}`},
		{"missing config", `{"action": "analyze"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := setupTestRouter(&stubCollector{})
			w := postQuery(t, router, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestQuery_Validate(t *testing.T) {
	testCases := []struct {
		name     string
		stub     *stubCollector
		expected bool
	}{
		{
			name:     "accepted token and visible organization",
			stub:     &stubCollector{validToken: true},
			expected: true,
		},
		{
			name:     "rejected token",
			stub:     &stubCollector{validToken: false},
			expected: false,
		},
		{
			name: "unknown organization",
			stub: &stubCollector{
				validToken: true,
				organization: func(org string) (*domain.Organization, error) {
					return nil, apperrors.NewNotFoundError("organization")
				},
			},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := setupTestRouter(tc.stub)
			w := postQuery(t, router, `{"action": "validate", "config": {"token": "t", "organization": "acme"}}`)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Data struct {
					Valid bool `json:"valid"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.expected, resp.Data.Valid)
		})
	}
}

func TestQuery_RateLimit(t *testing.T) {
	stub := &stubCollector{
		rateLimit: &domain.RateLimit{Limit: 5000, Remaining: 1234, Reset: time.Now().Add(time.Hour)},
	}
	router := setupTestRouter(stub)

	w := postQuery(t, router, `{"action": "rate-limit", "config": {"token": "t"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data domain.RateLimit `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1234, resp.Data.Remaining)
}

func TestQuery_AnalyzeSuccess(t *testing.T) {
	router := setupTestRouter(&stubCollector{validToken: true})

	w := postQuery(t, router, `{"action": "analyze", "config": {"token": "t", "organization": "acme"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data domain.OrganizationStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "acme", resp.Data.Organization.Login)
	assert.NotEmpty(t, resp.Data.RunID)
}

func TestQuery_AnalyzeOrgLookupFailure(t *testing.T) {
	stub := &stubCollector{
		organization: func(org string) (*domain.Organization, error) {
			return nil, apperrors.NewNotFoundError("organization")
		},
	}
	router := setupTestRouter(stub)

	w := postQuery(t, router, `{"action": "analyze", "config": {"token": "t", "organization": "ghost"}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(&stubCollector{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
