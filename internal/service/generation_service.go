package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/adewumilot300-rgb/EduNexus/internal/config"
	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
)

// ErrGenerationDisabled is returned when no API key is configured.
var ErrGenerationDisabled = errors.New("question generation is not configured")

const generationSystemPrompt = `You are an exam question author for a secondary school computer-based test.
Generate multiple-choice questions with exactly 4 options each.
Respond with a JSON object of the form:
{"questions":[{"text":"...","options":["...","...","...","..."],"correct_answer":"A"}]}
correct_answer must be the letter A, B, C or D of the correct option.
Questions must be factually accurate and age-appropriate. Do not number the questions.`

// generatedQuestion is the shape the model is asked to produce.
type generatedQuestion struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

type generationResponse struct {
	Questions []generatedQuestion `json:"questions"`
}

// GenerationService produces draft MCQs for a subject using an
// OpenAI-compatible chat completion endpoint and files them into the
// question bank.
type GenerationService struct {
	client       *openai.Client
	model        string
	questionRepo *repository.QuestionRepository
	log          zerolog.Logger
}

// NewGenerationService creates a GenerationService. Returns a disabled
// service (nil client) when no API key is configured.
func NewGenerationService(cfg *config.Config, questionRepo *repository.QuestionRepository, log zerolog.Logger) *GenerationService {
	s := &GenerationService{
		model:        cfg.OpenAIModel,
		questionRepo: questionRepo,
		log:          log.With().Str("component", "generation_service").Logger(),
	}
	if cfg.OpenAIAPIKey == "" {
		return s
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	s.client = openai.NewClientWithConfig(clientCfg)
	return s
}

// Enabled reports whether generation is configured.
func (s *GenerationService) Enabled() bool {
	return s.client != nil
}

// Generate asks the model for MCQs on a topic and stores them in the bank
// under the given subject, returning the created questions for admin review.
func (s *GenerationService) Generate(ctx context.Context, subject string, req *model.GenerateQuestionsRequest) ([]model.Question, error) {
	if s.client == nil {
		return nil, ErrGenerationDisabled
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = string(model.DifficultyMedium)
	}

	userPrompt := fmt.Sprintf("Generate %d %s-difficulty questions on the topic %q for the subject %q.",
		req.Count, difficulty, req.Topic, subject)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generationSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty completion response")
	}

	var parsed generationResponse
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse generated questions: %w", err)
	}

	questions := make([]model.Question, 0, len(parsed.Questions))
	for _, g := range parsed.Questions {
		q, ok := s.validate(g, subject, model.Difficulty(difficulty))
		if !ok {
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, errors.New("model produced no usable questions")
	}

	if err := s.questionRepo.CreateBulk(ctx, questions); err != nil {
		return nil, fmt.Errorf("store generated questions: %w", err)
	}

	s.log.Info().
		Str("subject", subject).
		Str("topic", req.Topic).
		Int("requested", req.Count).
		Int("stored", len(questions)).
		Msg("Questions generated")
	return questions, nil
}

// validate rejects malformed model output instead of failing the whole batch.
func (s *GenerationService) validate(g generatedQuestion, subject string, difficulty model.Difficulty) (model.Question, bool) {
	text := strings.TrimSpace(g.Text)
	answer := strings.ToUpper(strings.TrimSpace(g.CorrectAnswer))
	if text == "" || len(g.Options) != 4 {
		return model.Question{}, false
	}

	valid := false
	for i := range g.Options {
		if model.OptionLabel(i) == answer {
			valid = true
			break
		}
	}
	if !valid {
		s.log.Warn().Str("answer", g.CorrectAnswer).Msg("Dropping question with bad answer label")
		return model.Question{}, false
	}

	return model.Question{
		ID:            uuid.New(),
		Text:          text,
		Options:       g.Options,
		CorrectAnswer: answer,
		Type:          model.QuestionTypeMCQ,
		Subject:       subject,
		Difficulty:    difficulty,
	}, true
}
