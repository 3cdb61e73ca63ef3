package airtable

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAllFollowsOffsetTokens(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/v0/appTest/Doctors", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("offset") {
		case "":
			fmt.Fprint(w, `{"records":[{"id":"rec1","fields":{"Name":"Dr. Amina"}}],"offset":"page2"}`)
		case "page2":
			fmt.Fprint(w, `{"records":[{"id":"rec2","fields":{"Name":"Dr. Bilal"}}]}`)
		default:
			http.Error(w, "unexpected offset", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient("test-token", "appTest", "Doctors")
	c.SetBaseURL(srv.URL)

	records, err := c.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec1", records[0].ID)
	assert.Equal(t, "rec2", records[1].ID)
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestListPageRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-token", "appTest", "Doctors")
	c.SetBaseURL(srv.URL)

	_, _, err := c.ListPage(context.Background(), "")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestListPageUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"type":"AUTHENTICATION_REQUIRED"}}`)
	}))
	defer srv.Close()

	c := NewClient("bad-token", "appTest", "Doctors")
	c.SetBaseURL(srv.URL)

	_, _, err := c.ListPage(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestListPageTableNameEscaped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/appTest/Eon Doctors Database", r.URL.Path)
		fmt.Fprint(w, `{"records":[]}`)
	}))
	defer srv.Close()

	c := NewClient("test-token", "appTest", "Eon Doctors Database")
	c.SetBaseURL(srv.URL)

	_, _, err := c.ListPage(context.Background(), "")
	require.NoError(t, err)
}
