package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// GeminiClient implements Client on top of the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	timeout time.Duration
	log     zerolog.Logger
}

// NewGeminiClient creates a Gemini-backed LLM client. timeout bounds each
// individual completion call; zero disables the bound.
func NewGeminiClient(ctx context.Context, apiKey string, timeout time.Duration, log zerolog.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1beta"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: create genai client: %w", err)
	}

	return &GeminiClient{client: client, timeout: timeout, log: log}, nil
}

// Complete implements Client.
func (c *GeminiClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := buildContents(req.Messages)
	config := buildConfig(req)

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	out := &Response{Text: resp.Text()}
	for _, fc := range resp.FunctionCalls() {
		out.ToolCalls = append(out.ToolCalls, ToolCall{Name: fc.Name, Args: fc.Args})
	}

	c.log.Debug().
		Str("model", req.Model).
		Int("tool_calls", len(out.ToolCalls)).
		Msg("Completion finished")

	return out, nil
}

// CompleteStructured implements Client. The primary request asks for
// schema-constrained JSON; if the reply does not unmarshal into out, a single
// repair request is sent to req.FixModel with the invalid output inlined.
func (c *GeminiClient) CompleteStructured(ctx context.Context, req *Request, out any) error {
	if req.ResponseSchema == nil {
		return fmt.Errorf("gemini: CompleteStructured requires a response schema")
	}

	resp, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}

	raw := CleanModelJSON(resp.Text)
	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}

	if req.FixModel == "" {
		return fmt.Errorf("%w: %s", ErrInvalidStructuredOutput, truncate(raw, 200))
	}

	c.log.Warn().
		Str("model", req.Model).
		Str("fix_model", req.FixModel).
		Msg("Structured output failed to parse, attempting repair pass")

	schemaJSON, _ := json.Marshal(req.ResponseSchema)
	fixReq := &Request{
		Model:  req.FixModel,
		System: "You repair malformed JSON. Return ONLY a valid JSON object conforming to the provided schema. No markdown, no commentary.",
		Messages: []Message{
			UserMessage(fmt.Sprintf("Schema:\n%s\n\nInvalid output to repair:\n%s", schemaJSON, resp.Text)),
		},
		ResponseSchema: req.ResponseSchema,
	}

	fixResp, err := c.Complete(ctx, fixReq)
	if err != nil {
		return err
	}

	raw = CleanModelJSON(fixResp.Text)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: after repair pass: %s", ErrInvalidStructuredOutput, truncate(raw, 200))
	}

	return nil
}

func buildContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		content := &genai.Content{Role: string(m.Role)}

		if m.ToolResult != nil {
			content.Parts = append(content.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     m.ToolResult.Name,
					Response: m.ToolResult.Result,
				},
			})
		}
		if m.Content != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: m.Content})
		}
		for _, tc := range m.ToolCalls {
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: tc.Args},
			})
		}

		contents = append(contents, content)
	}
	return contents
}

func buildConfig(req *Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenaiSchema(t.Parameters),
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	if req.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGenaiSchema(req.ResponseSchema)
	}

	return config
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       toGenaiSchema(s.Items),
	}

	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeString:
		out.Type = genai.TypeString
	case TypeNumber:
		out.Type = genai.TypeNumber
	case TypeInteger:
		out.Type = genai.TypeInteger
	case TypeBoolean:
		out.Type = genai.TypeBoolean
	case TypeArray:
		out.Type = genai.TypeArray
	default:
		out.Type = genai.TypeString
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}

	return out
}

// CleanModelJSON strips Markdown fences and surrounding junk that models
// sometimes wrap around JSON output despite instructions.
func CleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only the outermost JSON value if there is still text around it.
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(s, pair[0])
		end := strings.LastIndex(s, pair[1])
		if start != -1 && end > start {
			return strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
