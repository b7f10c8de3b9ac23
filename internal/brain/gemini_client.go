package brain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const SystemPrompt = `You write captions for PokéGram, a photo feed where trainers share the creatures they run into.
Captions are one sentence, upbeat, at most 140 characters, and end with one or two emoji.
Never use hashtags. Never invent moves, stats or types that were not given to you.`

type modelConfig struct {
	Name string
	RPM  int
	RPD  int
}

// GeminiBrain writes synthetic post captions, rotating between models as
// their per-minute and per-day budgets run out.
type GeminiBrain struct {
	Client *genai.Client
	Models []modelConfig
	Logger *zap.Logger

	dailyCount   map[string]int
	minuteCount  map[string]int
	lastResetDay time.Time
	lastResetMin time.Time
	mu           sync.Mutex
}

func NewGeminiBrain(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiBrain, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &GeminiBrain{
		Client: client,
		Models: []modelConfig{
			{Name: "gemini-2.5-flash-lite", RPM: 15, RPD: 1000},
			{Name: "gemini-2.5-flash", RPM: 10, RPD: 250},
		},
		Logger:       logger,
		dailyCount:   make(map[string]int),
		minuteCount:  make(map[string]int),
		lastResetDay: time.Now(),
		lastResetMin: time.Now(),
	}, nil
}

var _ ports.Captioner = (*GeminiBrain)(nil)

func (b *GeminiBrain) WriteCaption(ctx context.Context, creature domain.Creature, location string) (string, error) {
	prompt := fmt.Sprintf(`%s

Task: a trainer just encountered a wild %s (types: %s, height %.1fm, weight %.1fkg) in %s.
Write their caption. It must contain the exact text "%s".
Output the caption only, as plain text.`,
		SystemPrompt,
		creature.DisplayName(), strings.Join(creature.Types, "/"),
		float64(creature.HeightDm)/10, float64(creature.WeightDg)/10,
		location, location)

	text, err := b.tryGenerateWithFallback(ctx, prompt)
	if err != nil {
		return "", err
	}
	return cleanCaption(text), nil
}

func (b *GeminiBrain) tryGenerateWithFallback(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, cfg := range b.Models {
		if !b.canUseModel(cfg) {
			continue
		}

		result, err := b.Client.Models.GenerateContent(ctx, cfg.Name, genai.Text(prompt), nil)
		if err != nil {
			errStr := strings.ToLower(err.Error())
			if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "exhausted") || strings.Contains(errStr, "404") || strings.Contains(errStr, "not found") {
				b.Logger.Debug("Model unavailable, trying next", zap.String("model", cfg.Name), zap.Error(err))
				lastErr = err
				continue
			}
			return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}

		b.recordUsage(cfg)
		if text := result.Text(); text != "" {
			return text, nil
		}
		lastErr = fmt.Errorf("%w: empty response from %s", domain.ErrMalformedPayload, cfg.Name)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("all models over budget")
	}
	return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, lastErr)
}

func (b *GeminiBrain) canUseModel(cfg modelConfig) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if now.YearDay() != b.lastResetDay.YearDay() {
		b.dailyCount = make(map[string]int)
		b.lastResetDay = now
	}
	if now.Sub(b.lastResetMin) >= time.Minute {
		b.minuteCount = make(map[string]int)
		b.lastResetMin = now
	}
	if b.dailyCount[cfg.Name] >= cfg.RPD {
		return false
	}
	if b.minuteCount[cfg.Name] >= cfg.RPM {
		return false
	}
	return true
}

func (b *GeminiBrain) recordUsage(cfg modelConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dailyCount[cfg.Name]++
	b.minuteCount[cfg.Name]++
}

// cleanCaption strips code fences and wrapping quotes models like to add.
func cleanCaption(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```text")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	input = strings.TrimSpace(input)
	input = strings.Trim(input, `"`)
	return strings.TrimSpace(input)
}
