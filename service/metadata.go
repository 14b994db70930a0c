package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kevinaaaquil/bookshelf/models"
)

const DefaultGoogleBooksURL = "https://www.googleapis.com/books/v1/volumes"

// ErrNoMetadata means the lookup service knows nothing about the ISBN.
var ErrNoMetadata = errors.New("no metadata found for isbn")

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			PublishedDate       string   `json:"publishedDate"`
			Description         string   `json:"description"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// BookPrefill is what an admin form can be pre-populated with. Nothing is
// stored; the admin still submits a regular book create.
type BookPrefill struct {
	Title           string   `json:"title"`
	AuthorNames     []string `json:"authorNames"`
	PublishYear     int      `json:"publishYear,omitempty"`
	ISBN            string   `json:"ISBN"`
	Description     string   `json:"description"`
	LongDescription string   `json:"longDescription"`
	BookCover       string   `json:"bookCover"`
}

// MetadataClient looks books up on the Google Books volumes API.
type MetadataClient struct {
	baseURL string
	http    *http.Client
}

func NewMetadataClient(baseURL string) *MetadataClient {
	if baseURL == "" {
		baseURL = DefaultGoogleBooksURL
	}
	// Short timeout so a hung upstream doesn't hold the admin request.
	return &MetadataClient{baseURL: baseURL, http: &http.Client{Timeout: 15 * time.Second}}
}

func (m *MetadataClient) Lookup(ctx context.Context, isbn string) (*BookPrefill, error) {
	isbn = strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	if isbn == "" {
		return nil, Invalid("isbn", "isbn is required")
	}
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	var data volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.TotalItems == 0 || len(data.Items) == 0 {
		return nil, fmt.Errorf("%s: %w", isbn, ErrNoMetadata)
	}
	vi := data.Items[0].VolumeInfo
	p := &BookPrefill{
		Title:       vi.Title,
		AuthorNames: vi.Authors,
		ISBN:        isbn,
		PublishYear: yearOf(vi.PublishedDate),
	}
	if vi.Subtitle != "" {
		p.Title += ": " + vi.Subtitle
	}
	for _, id := range vi.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			p.ISBN = id.Identifier
			break
		}
	}
	desc := strings.TrimSpace(vi.Description)
	p.Description = truncate(desc, models.MaxDescriptionLength)
	p.LongDescription = truncate(desc, models.MaxLongDescriptionLength)
	p.BookCover = openLibraryCover(p.ISBN)
	return p, nil
}

// yearOf reads the leading year of "2006", "2006-01" or "2006-01-02".
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// openLibraryCover serves covers by ISBN without the captcha Google image links hit.
func openLibraryCover(isbn string) string {
	if isbn == "" {
		return ""
	}
	return "https://covers.openlibrary.org/b/isbn/" + url.PathEscape(isbn) + "-L.jpg"
}
