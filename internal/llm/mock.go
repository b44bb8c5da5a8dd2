package llm

import "context"

// MockClient permite tests sin llamar a un LLM real. Si Responses tiene
// elementos los devuelve en orden; si se agotan repite el ultimo.
type MockClient struct {
	Response  string
	Responses []string
	Err       error
	Calls     []string
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Calls = append(m.Calls, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) > 0 {
		idx := len(m.Calls) - 1
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		return m.Responses[idx], nil
	}
	return m.Response, nil
}
