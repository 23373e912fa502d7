package assistant

import "context"

// Mock devuelve resultados pre-armados en orden, uno por llamada, y registra
// cada request recibido. Al agotar los guiones repite el ultimo.
type Mock struct {
	Results  []Result
	Err      error
	Requests []Request
}

func (m *Mock) Complete(ctx context.Context, req Request) (Result, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return Result{}, m.Err
	}
	if len(m.Results) == 0 {
		return Result{Content: "ok"}, nil
	}
	idx := len(m.Requests) - 1
	if idx >= len(m.Results) {
		idx = len(m.Results) - 1
	}
	return m.Results[idx], nil
}
