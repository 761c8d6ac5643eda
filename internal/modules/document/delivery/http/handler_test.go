package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	document "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/document/service"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/response"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	mu   sync.Mutex
	next uint
	docs map[uint]entity.Document
}

func (r *memRepo) Create(ctx context.Context, d *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	d.ID = r.next
	r.docs[d.ID] = *d
	return nil
}

func (r *memRepo) FindByID(ctx context.Context, id uint) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &d, nil
}

func (r *memRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Document
	for _, d := range r.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

type fakeStorage struct {
	uploaded []string
	deleted  []string
	err      error
}

func (s *fakeStorage) UploadFile(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "https://res.cloudinary.com/demo/raw/upload/v1/" + folder + "/" + fileName
	s.uploaded = append(s.uploaded, url)
	return url, nil
}

func (s *fakeStorage) DeleteFile(ctx context.Context, fileURL string) error {
	s.deleted = append(s.deleted, fileURL)
	return nil
}

func newRouter(fs storage.FileStorage, userID uuid.UUID) (*gin.Engine, *memRepo) {
	gin.SetMode(gin.TestMode)
	repo := &memRepo{docs: map[uint]entity.Document{}}
	h := NewDocumentHandler(document.NewDocumentService(repo, fs, zap.NewNop()))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(response.ContextUserID, userID.String())
		c.Next()
	})
	r.POST("/documents", h.UploadDocument)
	r.GET("/documents", h.ListDocuments)
	r.DELETE("/documents/:id", h.DeleteDocument)
	return r, repo
}

func uploadRequest(t *testing.T, name string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadDocument(t *testing.T) {
	fs := &fakeStorage{}
	userID := uuid.New()
	r, repo := newRouter(fs, userID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "transcript.pdf", []byte("%PDF-1.4")))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "transcript.pdf")
	require.Len(t, fs.uploaded, 1)
	assert.Contains(t, fs.uploaded[0], "documents/"+userID.String())

	docs, _ := repo.FindByUser(context.Background(), userID)
	require.Len(t, docs, 1)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fs.uploaded[0])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/documents/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fs.uploaded, fs.deleted)
}

func TestUploadDocument_Rejections(t *testing.T) {
	r, _ := newRouter(&fakeStorage{}, uuid.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "payload.exe", []byte("MZ")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/documents", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadDocument_StorageUnavailable(t *testing.T) {
	for name, fs := range map[string]storage.FileStorage{
		"not configured": nil,
		"upload fails":   &fakeStorage{err: errors.New("cloudinary timeout")},
	} {
		t.Run(name, func(t *testing.T) {
			r, repo := newRouter(fs, uuid.New())

			w := httptest.NewRecorder()
			r.ServeHTTP(w, uploadRequest(t, "passport.png", []byte{0x89, 'P', 'N', 'G'}))
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Empty(t, repo.docs)
		})
	}
}

func TestDeleteDocument_OtherUsersForbidden(t *testing.T) {
	fs := &fakeStorage{}
	r, repo := newRouter(fs, uuid.New())
	require.NoError(t, repo.Create(context.Background(), &entity.Document{UserID: uuid.New(), FileURL: "https://x"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/documents/1", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/documents/99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, fs.deleted)
}
