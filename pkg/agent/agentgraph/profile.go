package agentgraph

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
)

const extractionPrompt = `You maintain a long-term profile of a student learning with a Bangla tutor.
Read the current profile and the latest exchange. Reply with a single JSON object
containing only the profile fields that should change: stable facts such as name,
grade, school, interests, learning goals or difficulties. Use null to remove a field
that is no longer true. Reply with {} when nothing should change.`

// updateProfile pide al modelo los cambios de perfil y los guarda si hay alguno
func (g *Graph) updateProfile(ctx context.Context, userID kernel.UserID, current *memory.Record, turn []llm.Message) error {
	var existing memory.Snapshot
	if current != nil {
		existing = current.Data
	}

	request, err := extractionRequest(existing, turn)
	if err != nil {
		return err
	}

	reply, err := g.chat(ctx, request,
		llm.WithJSONMode(),
		llm.WithTemperature(0),
		llm.WithUser(userID.String()),
	)
	if err != nil {
		return err
	}

	update, err := parseUpdate(reply.Content)
	if err != nil {
		return err
	}

	merged := existing.Merge(update)
	if current != nil && merged.Equal(existing) {
		return nil
	}
	if current == nil && len(merged) == 0 {
		return nil
	}

	return g.memories.Save(ctx, memory.NewRecord(userID, merged))
}

func extractionRequest(existing memory.Snapshot, turn []llm.Message) ([]llm.Message, error) {
	if existing == nil {
		existing = memory.Snapshot{}
	}
	profile, err := json.Marshal(existing)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Current profile:\n")
	b.Write(profile)
	b.WriteString("\n\nLatest exchange:\n")
	for _, msg := range turn {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}

	return []llm.Message{
		llm.NewSystemMessage(extractionPrompt),
		llm.NewUserMessage(b.String()),
	}, nil
}

// parseUpdate acepta el objeto JSON aunque venga dentro de un bloque ```json
func parseUpdate(content string) (memory.Snapshot, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var update memory.Snapshot
	if err := json.Unmarshal([]byte(content), &update); err != nil {
		return nil, err
	}
	return update, nil
}
