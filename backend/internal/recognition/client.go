package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/axmedovx0430/davomatai/backend/config"
	"github.com/axmedovx0430/davomatai/backend/pkg/metrics"
)

// ── 人脸识别服务客户端 ──
//
// 识别服务是独立部署的 HTTP 服务（/register、/recognize）。
// Skip 模式下不调用识别服务，终端必须自带 user_id 上报。

var (
	ErrNoMatch       = errors.New("人脸未匹配到任何人员")
	ErrLowConfidence = errors.New("识别置信度低于阈值")
	ErrDisabled      = errors.New("人脸识别服务未启用")
)

// Result 识别结果
type Result struct {
	UserID     string  `json:"user_id"`
	Confidence float64 `json:"confidence"`
}

// Client 人脸识别客户端接口
type Client interface {
	// Recognize 识别一张抓拍图，返回匹配人员与置信度
	Recognize(ctx context.Context, image []byte) (*Result, error)
	// Register 将抓拍图注册为某人员的底库照片
	Register(ctx context.Context, userID string, image []byte) error
}

type httpClient struct {
	baseURL string
	minConf float64
	client  *http.Client
}

// NewClient 按配置创建识别客户端；Skip=true 时返回禁用实现
func NewClient(cfg *config.RecognitionConfig) Client {
	if cfg.Skip {
		return &disabledClient{}
	}
	return &httpClient{
		baseURL: cfg.BaseURL,
		minConf: cfg.MinConf,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type recognizeReply struct {
	Matched    bool    `json:"matched"`
	UserID     string  `json:"user_id,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

func (c *httpClient) Recognize(ctx context.Context, image []byte) (*Result, error) {
	timer := prometheus.NewTimer(metrics.RecognitionLatency)
	defer timer.ObserveDuration()

	body, contentType, err := multipartImage("photo", image)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecognitionRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("识别服务请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecognitionRequests.WithLabelValues("error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("识别服务返回 HTTP %d: %s", resp.StatusCode, string(raw))
	}

	var reply recognizeReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		metrics.RecognitionRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("识别服务响应解析失败: %w", err)
	}

	if !reply.Matched {
		metrics.RecognitionRequests.WithLabelValues("no_match").Inc()
		return nil, ErrNoMatch
	}
	if reply.Confidence < c.minConf {
		metrics.RecognitionRequests.WithLabelValues("low_confidence").Inc()
		return nil, ErrLowConfidence
	}

	metrics.RecognitionRequests.WithLabelValues("matched").Inc()
	return &Result{UserID: reply.UserID, Confidence: reply.Confidence}, nil
}

func (c *httpClient) Register(ctx context.Context, userID string, image []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("user_id", userID); err != nil {
		return err
	}
	fw, err := w.CreateFormFile("photo", "photo.jpg")
	if err != nil {
		return err
	}
	if _, err := fw.Write(image); err != nil {
		return err
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("识别服务请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("识别服务返回 HTTP %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

func multipartImage(field string, image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, "photo.jpg")
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(image); err != nil {
		return nil, "", err
	}
	w.Close()
	return &buf, w.FormDataContentType(), nil
}

// disabledClient Skip 模式实现
type disabledClient struct{}

func (d *disabledClient) Recognize(ctx context.Context, image []byte) (*Result, error) {
	return nil, ErrDisabled
}

func (d *disabledClient) Register(ctx context.Context, userID string, image []byte) error {
	return ErrDisabled
}
