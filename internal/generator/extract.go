package generator

import (
	"reflect"
	"strings"

	"peerprep/interview/internal/models"
)

// keys under which a question list may be nested one level down
var wrapperKeys = []string{"result", "data", "output", "json"}

// ExtractQuestions searches a decoded JSON value for the first object that
// exposes a string array under a known key. The walk uses an explicit stack
// and remembers visited containers so self-referencing values terminate.
//
// Candidate priority on each object: Top15Questions, questions, then
// result/data/output/json .questions.
func ExtractQuestions(payload any) []string {
	stack := []any{payload}
	seen := make(map[uintptr]struct{})

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch node := current.(type) {
		case map[string]any:
			if markSeen(seen, node) {
				continue
			}
			for _, candidate := range candidates(node) {
				if questions, ok := asStringArray(candidate); ok {
					return questions
				}
			}
			for _, key := range wrapperKeys {
				if child, ok := node[key]; ok {
					stack = append(stack, child)
				}
			}
		case []any:
			if markSeen(seen, node) {
				continue
			}
			stack = append(stack, node...)
		}
	}

	return nil
}

func candidates(node map[string]any) []any {
	out := []any{node["Top15Questions"], node["questions"]}
	for _, key := range wrapperKeys {
		if nested, ok := node[key].(map[string]any); ok {
			out = append(out, nested["questions"])
		}
	}
	return out
}

// markSeen records the container's identity and reports whether it was
// already visited.
func markSeen(seen map[uintptr]struct{}, container any) bool {
	v := reflect.ValueOf(container)
	if v.Len() == 0 {
		return false
	}
	ptr := v.Pointer()
	if _, ok := seen[ptr]; ok {
		return true
	}
	seen[ptr] = struct{}{}
	return false
}

func asStringArray(value any) ([]string, bool) {
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// SelectQuestions drops blank entries and keeps at most MaxQuestions, in order.
func SelectQuestions(questions []string) []string {
	out := make([]string, 0, min(len(questions), models.MaxQuestions))
	for _, q := range questions {
		if strings.TrimSpace(q) == "" {
			continue
		}
		out = append(out, q)
		if len(out) == models.MaxQuestions {
			break
		}
	}
	return out
}
