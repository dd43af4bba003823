package interpret

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/quyk67uet/ai-assistant-workflow/internal/tools"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// GeminiPlanner plans tool calls with the Gemini API's native function
// calling. The tool catalog is passed as function declarations; the
// roster is embedded in the system instruction so the model can map
// colloquial names onto canonical IDs when it is confident.
type GeminiPlanner struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiPlanner creates a planner backed by the Gemini API.
func NewGeminiPlanner(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiPlanner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiPlanner{client: client, model: model, logger: logger}, nil
}

// Plan sends the instruction to Gemini and decodes the returned
// function calls in order.
func (p *GeminiPlanner) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction(req), genai.RoleUser),
		Tools: []*genai.Tool{
			{FunctionDeclarations: declarations(req.Catalog)},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Instruction), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	plan := &Plan{}
	for _, fc := range resp.FunctionCalls() {
		plan.Calls = append(plan.Calls, ProposedCall{Tool: fc.Name, Args: fc.Args})
	}
	if len(plan.Calls) == 0 {
		plan.Reply = strings.TrimSpace(resp.Text())
	}

	p.logger.Debug("gemini plan received",
		zap.Int("calls", len(plan.Calls)),
		zap.Bool("strict", req.Strict))
	return plan, nil
}

func declarations(catalog []tools.Declaration) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(catalog))
	for _, d := range catalog {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  parameterSchema(d.Schema),
		})
	}
	return decls
}

func parameterSchema(s tools.Schema) *genai.Schema {
	if len(s.Fields) == 0 {
		return nil
	}
	props := make(map[string]*genai.Schema, len(s.Fields))
	var required []string
	for _, f := range s.Fields {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
	}
}

func fieldSchema(f tools.Field) *genai.Schema {
	out := &genai.Schema{Description: f.Description}
	switch f.Type {
	case tools.TypeInteger:
		out.Type = genai.TypeInteger
	case tools.TypeNumber:
		out.Type = genai.TypeNumber
	case tools.TypeStringList:
		out.Type = genai.TypeArray
		out.Items = &genai.Schema{Type: genai.TypeString}
	default:
		out.Type = genai.TypeString
	}
	return out
}

func systemInstruction(req PlanRequest) string {
	var b strings.Builder
	b.WriteString("You are the command interpreter of a tutoring command center. ")
	b.WriteString("Translate the tutor's instruction into calls to the declared functions, ")
	b.WriteString("in the order the tutor intends them to happen. ")
	b.WriteString("When the instruction asks for several actions, emit one function call per action. ")
	b.WriteString("When it asks for nothing actionable, answer briefly in plain text instead.\n\n")

	b.WriteString("Use the canonical IDs below when a mention clearly matches a single entry. ")
	b.WriteString("If you are not sure which entry is meant, pass the mention through verbatim.\n")

	b.WriteString("\nStudents:\n")
	for _, s := range req.Students {
		fmt.Fprintf(&b, "  %s: %s\n", s.ID, s.Name)
	}
	b.WriteString("\nLearning objects:\n")
	for _, lo := range req.LearningObjects {
		fmt.Fprintf(&b, "  %s: [%s] %s\n", lo.ID, lo.Code, lo.Title)
	}

	if req.Strict {
		b.WriteString("\nYour previous answer was rejected: ")
		b.WriteString(req.Complaint)
		b.WriteString("\nAnswer again using ONLY the declared functions, with every ")
		b.WriteString("required argument present. Do not invent function names or arguments.")
	}
	return b.String()
}
