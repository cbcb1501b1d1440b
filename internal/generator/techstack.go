package generator

import (
	"regexp"
	"strings"
)

var techToken = regexp.MustCompile(`[a-z0-9+#.]+`)

func tokenize(value string) []string {
	return techToken.FindAllString(strings.ToLower(value), -1)
}

// BuildTechStack derives interview tags from the job description, falling
// back to the job role and finally to "general".
func BuildTechStack(jobDescription, jobRole string) []string {
	if tokens := tokenize(jobDescription); len(tokens) > 0 {
		return tokens
	}
	if tokens := tokenize(jobRole); len(tokens) > 0 {
		return tokens
	}
	return []string{"general"}
}
