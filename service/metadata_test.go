package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataClient_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "isbn:9780441013593", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"totalItems": 1,
			"items": [{"volumeInfo": {
				"title": "Dune",
				"subtitle": "Deluxe Edition",
				"authors": ["Frank Herbert"],
				"publishedDate": "1990-09-01",
				"description": "` + strings.Repeat("d", 300) + `",
				"industryIdentifiers": [
					{"type": "ISBN_10", "identifier": "0441013597"},
					{"type": "ISBN_13", "identifier": "9780441013593"}
				]
			}}]
		}`))
	}))
	defer srv.Close()

	p, err := NewMetadataClient(srv.URL).Lookup(context.Background(), "978-0441013593")
	require.NoError(t, err)
	assert.Equal(t, "Dune: Deluxe Edition", p.Title)
	assert.Equal(t, []string{"Frank Herbert"}, p.AuthorNames)
	assert.Equal(t, 1990, p.PublishYear)
	assert.Equal(t, "9780441013593", p.ISBN)
	assert.Len(t, p.Description, 250)
	assert.Len(t, p.LongDescription, 300)
	assert.Equal(t, "https://covers.openlibrary.org/b/isbn/9780441013593-L.jpg", p.BookCover)
}

func TestMetadataClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalItems": 0}`))
	}))
	defer srv.Close()

	_, err := NewMetadataClient(srv.URL).Lookup(context.Background(), "0000000000")
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestMetadataClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewMetadataClient(srv.URL).Lookup(context.Background(), "0441013597")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMetadata)
}

func TestMetadataClient_EmptyISBN(t *testing.T) {
	_, err := NewMetadataClient("").Lookup(context.Background(), "  ")
	requireValidation(t, err, "isbn")
}
