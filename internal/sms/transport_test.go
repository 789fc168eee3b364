package sms

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_GetEncodesFormInQuery(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewTransport(time.Second)
	form := url.Values{"mobiles": {"9876543210"}, "message": {"hi"}}
	resp, err := tr.Request(context.Background(), http.MethodGet, srv.URL, form, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "9876543210", gotQuery.Get("mobiles"))
	assert.Equal(t, "hi", gotQuery.Get("message"))
}

func TestTransport_PostSendsFormBody(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewTransport(time.Second)
	form := url.Values{"numbers": {"9876543210"}}
	_, err := tr.Request(context.Background(), http.MethodPost, srv.URL, form, nil)
	require.NoError(t, err)
	assert.Equal(t, "numbers=9876543210", gotBody)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
}

func TestTransport_SetsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
	}))
	defer srv.Close()

	tr := NewTransport(time.Second)
	_, err := tr.Request(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.NotContains(t, gotUA, "Go-http-client")
	assert.NotEmpty(t, gotAccept)
}

func TestTransport_ExtraHeadersOverrideDefaults(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	tr := NewTransport(time.Second)
	_, err := tr.Request(context.Background(), http.MethodGet, srv.URL, nil, map[string]string{"Authorization": "key-123"})
	require.NoError(t, err)
	assert.Equal(t, "key-123", gotAuth)
}

func TestTransport_FollowsRelativeRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		// relative Location, no scheme or host
		w.Header().Set("Location", "/final")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("landed"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tr := NewTransport(time.Second)
	resp, err := tr.Request(context.Background(), http.MethodGet, srv.URL+"/start", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "landed", resp.Body)
}

func TestTransport_RedirectDowngradesPostToGet(t *testing.T) {
	var finalMethod string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		finalMethod = r.Method
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tr := NewTransport(time.Second)
	_, err := tr.Request(context.Background(), http.MethodPost, srv.URL+"/start", url.Values{"a": {"b"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, finalMethod)
}

func TestTransport_307KeepsMethodAndBody(t *testing.T) {
	var finalMethod, finalBody string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/final")
		w.WriteHeader(http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		finalMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		finalBody = string(b)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tr := NewTransport(time.Second)
	_, err := tr.Request(context.Background(), http.MethodPost, srv.URL+"/start", url.Values{"a": {"b"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, finalMethod)
	assert.Equal(t, "a=b", finalBody)
}

func TestTransport_GivesUpAfterMaxRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/loop")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	tr := NewTransport(time.Second)
	_, err := tr.Request(context.Background(), http.MethodGet, srv.URL+"/loop", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirect")
}

func TestTransport_RedirectWithoutLocationReturnsAsIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer srv.Close()

	tr := NewTransport(time.Second)
	resp, err := tr.Request(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
}

func TestTransport_TimeoutIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	tr := NewTransport(50 * time.Millisecond)
	_, err := tr.Request(context.Background(), http.MethodGet, srv.URL, nil, nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestTransport_ConnectionRefusedIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	tr := NewTransport(time.Second)
	_, err := tr.Request(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestTransport_GetAppendsToExistingQuery(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
	}))
	defer srv.Close()

	tr := NewTransport(time.Second)
	_, err := tr.Request(context.Background(), http.MethodGet, srv.URL+"/?fixed=1", url.Values{"extra": {"2"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", gotQuery.Get("fixed"))
	assert.Equal(t, "2", gotQuery.Get("extra"))
}
