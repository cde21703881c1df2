// Package art generates creature artwork through an image-generation API and
// normalises the result for upload.
package art

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
	"github.com/cory-johannsen/monsterbattle/internal/game/monster"
)

// ErrArtGeneration is returned for any failure to obtain an image.
var ErrArtGeneration = errors.New("art generation failed")

const (
	generatePath = "/api/v1/image/generate"
	maxSeed      = 69696969
	minSteps     = 4
	maxSteps     = 11
	maxBodyBytes = 32 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	APIKey       string
	Model        string
	StylePreset  string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client calls the image-generation API.
type Client struct {
	http   *retryablehttp.Client
	opts   Options
	src    dice.Source
	logger *zap.Logger
}

type generateRequest struct {
	Prompt        string `json:"prompt"`
	Model         string `json:"model"`
	StylePreset   string `json:"style_preset"`
	HideWatermark bool   `json:"hide_watermark"`
	Steps         int    `json:"steps"`
	Seed          int    `json:"seed"`
}

// NewClient creates a Client.
//
// Precondition: opts.BaseURL non-empty; src and logger non-nil.
func NewClient(opts Options, src dice.Source, logger *zap.Logger) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		hc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		hc.RetryWaitMax = opts.RetryWaitMax
	}
	if opts.Timeout > 0 {
		hc.HTTPClient.Timeout = opts.Timeout
	}
	hc.Logger = leveledLogger{logger.Named("art.http")}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{http: hc, opts: opts, src: src, logger: logger}
}

// Generate requests one image of creature at rarity with a fresh random seed,
// step count and color.
//
// Postcondition: Returns the decoded image bytes, or ErrArtGeneration (wrapped).
func (c *Client) Generate(ctx context.Context, creature monster.CreatureType, rarity monster.Rarity) ([]byte, error) {
	style, err := StyleFor(creature, rarity)
	if err != nil {
		return nil, err
	}
	reqBody := generateRequest{
		Prompt:        Prompt(creature, rarity, style, style.Colors[c.src.Intn(len(style.Colors))]),
		Model:         c.opts.Model,
		StylePreset:   c.opts.StylePreset,
		HideWatermark: true,
		Steps:         dice.IntRange(c.src, minSteps, maxSteps),
		Seed:          dice.IntRange(c.src, 0, maxSeed),
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrArtGeneration, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+generatePath, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrArtGeneration, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrArtGeneration, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrArtGeneration, resp.StatusCode, truncate(string(body), 200))
	}
	encoded := gjson.GetBytes(body, "images.0").String()
	if encoded == "" {
		return nil, fmt.Errorf("%w: response has no images", ErrArtGeneration)
	}
	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", ErrArtGeneration, err)
	}
	c.logger.Info("art generated",
		zap.String("creature", string(creature)),
		zap.Stringer("rarity", rarity),
		zap.Int("seed", reqBody.Seed),
		zap.Int("steps", reqBody.Steps),
		zap.Int("bytes", len(img)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return img, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l *zap.Logger
}

func (z leveledLogger) Error(msg string, kv ...interface{}) { z.l.Sugar().Errorw(msg, kv...) }
func (z leveledLogger) Info(msg string, kv ...interface{})  { z.l.Sugar().Infow(msg, kv...) }
func (z leveledLogger) Debug(msg string, kv ...interface{}) { z.l.Sugar().Debugw(msg, kv...) }
func (z leveledLogger) Warn(msg string, kv ...interface{})  { z.l.Sugar().Warnw(msg, kv...) }
