package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMLClient(baseURL string) *MLClient {
	return &MLClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestMLClientAutoAnnotateSendsExpectedPayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := testMLClient(srv.URL)
	err := client.AutoAnnotate(context.Background(), 7, "models/yolo_tomate.pt", true)
	require.NoError(t, err)

	assert.Equal(t, "/annotate", gotPath)
	assert.Equal(t, float64(7), gotBody["dataset_id"])
	assert.Equal(t, "models/yolo_tomate.pt", gotBody["model_path"])
	assert.Equal(t, true, gotBody["use_gpu"])
}

func TestMLClientSurfacesFastAPIDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "dataset 7 has no images"}`))
	}))
	defer srv.Close()

	client := testMLClient(srv.URL)
	err := client.Augment(context.Background(), 7, []string{"vertical_flip"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=422")
	assert.Contains(t, err.Error(), "dataset 7 has no images")
}

func TestMLClientErrorWithoutDetailBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testMLClient(srv.URL)
	err := client.StartTraining(context.Background(), TrainingSubmission{DatasetID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
}

func TestMLClientReplaceLabelsUploadsMultipart(t *testing.T) {
	archive := []byte("PK\x03\x04fake-zip-bytes")
	var gotPath, gotFileName string
	var gotContent []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("annotations_zip")
		require.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename
		gotContent, err = io.ReadAll(file)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := testMLClient(srv.URL)
	err := client.ReplaceLabels(context.Background(), 12, "labels.zip", archive)
	require.NoError(t, err)

	assert.Equal(t, "/datasets/12/replace_labels", gotPath)
	assert.Equal(t, "labels.zip", gotFileName)
	assert.Equal(t, archive, gotContent)
}

func TestMLClientRequiresBaseURL(t *testing.T) {
	client := testMLClient("")
	err := client.AutoAnnotate(context.Background(), 1, "m.pt", false)
	assert.ErrorIs(t, err, ErrMLServiceNotConfigured)

	err = client.ReplaceLabels(context.Background(), 1, "labels.zip", nil)
	assert.ErrorIs(t, err, ErrMLServiceNotConfigured)
}
