package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"mlops_webapp/config"
)

var ErrMLServiceNotConfigured = errors.New("ml service base url is not configured")

// MLClient 外部 ML 执行服务的出站客户端。标注/增强/训练/测试的
// 重活都在对端执行，这里只做提交与确认，不等待任务完成。
type MLClient struct {
	BaseURL string
	Client  *http.Client
}

func NewMLClient() *MLClient {
	baseURL := ""
	if config.AppConfig != nil {
		baseURL = strings.TrimRight(strings.TrimSpace(config.AppConfig.ML.BaseURL), "/")
	}
	return &MLClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: config.AppConfig.MLTimeout()},
	}
}

// TrainTaskSpec 提交给 ML 服务的单个训练任务；TaskID 由本服务生成，
// 对端回调时必须原样带回。
type TrainTaskSpec struct {
	TaskID      string             `json:"task_id"`
	Hyperparams map[string]float64 `json:"hyperparams"`
}

type TrainingSubmission struct {
	DatasetID   uint               `json:"dataset_id"`
	Tasks       []TrainTaskSpec    `json:"tasks"`
	SplitRatios map[string]float64 `json:"split_ratios"`
	UseGPU      bool               `json:"use_gpu"`
}

type TestTaskSpec struct {
	TaskID      string `json:"task_id"`
	TrainTaskID string `json:"train_task_id"`
	ModelPath   string `json:"model_path"`
}

type TestingSubmission struct {
	DatasetID uint           `json:"dataset_id"`
	Tasks     []TestTaskSpec `json:"tasks"`
	UseGPU    bool           `json:"use_gpu"`
}

type annotateRequest struct {
	DatasetID uint   `json:"dataset_id"`
	ModelPath string `json:"model_path"`
	UseGPU    bool   `json:"use_gpu"`
}

type augmentRequest struct {
	DatasetID    uint     `json:"dataset_id"`
	Transformers []string `json:"transformers"`
}

func (c *MLClient) AutoAnnotate(ctx context.Context, datasetID uint, modelPath string, useGPU bool) error {
	return c.postJSON(ctx, "/annotate", annotateRequest{
		DatasetID: datasetID,
		ModelPath: modelPath,
		UseGPU:    useGPU,
	})
}

func (c *MLClient) Augment(ctx context.Context, datasetID uint, transformers []string) error {
	return c.postJSON(ctx, "/augment-dataset", augmentRequest{
		DatasetID:    datasetID,
		Transformers: transformers,
	})
}

func (c *MLClient) StartTraining(ctx context.Context, req TrainingSubmission) error {
	return c.postJSON(ctx, "/start_training", req)
}

func (c *MLClient) StartTesting(ctx context.Context, req TestingSubmission) error {
	return c.postJSON(ctx, "/start_testing", req)
}

// ReplaceLabels 把人工校对后的标注包推给 ML 服务。
func (c *MLClient) ReplaceLabels(ctx context.Context, datasetID uint, fileName string, archive []byte) error {
	if c == nil || c.BaseURL == "" {
		return ErrMLServiceNotConfigured
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("annotations_zip", fileName)
	if err != nil {
		return fmt.Errorf("build labels upload failed: %w", err)
	}
	if _, err := part.Write(archive); err != nil {
		return fmt.Errorf("build labels upload failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("build labels upload failed: %w", err)
	}

	url := fmt.Sprintf("%s/datasets/%d/replace_labels", c.BaseURL, datasetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("build labels upload request failed: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req)
}

func (c *MLClient) postJSON(ctx context.Context, path string, payload interface{}) error {
	if c == nil || c.BaseURL == "" {
		return ErrMLServiceNotConfigured
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal ml request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build ml request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *MLClient) do(req *http.Request) error {
	logger := serviceLogger().With("service", "MLClient", "url", req.URL.String())

	resp, err := c.Client.Do(req)
	if err != nil {
		logger.Error("ml service call failed", "error", err)
		return fmt.Errorf("ml service call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// FastAPI 风格错误体 {"detail": "..."}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
		logger.Warn("ml service rejected request", "status", resp.StatusCode, "detail", detail.Detail)
		return fmt.Errorf("ml service rejected request (status=%d): %s", resp.StatusCode, detail.Detail)
	}
	logger.Warn("ml service rejected request", "status", resp.StatusCode)
	return fmt.Errorf("ml service rejected request (status=%d)", resp.StatusCode)
}
