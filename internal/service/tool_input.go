package service

import (
	"strings"

	"github.com/tidwall/sjson"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

// toolInput renders declared parameters as a JSON object keyed by label, in
// declaration order. Parameters without a label are skipped; a repeated
// label keeps its first position and the last value.
func toolInput(params []domain.ToolParameter) (string, error) {
	out := []byte(`{}`)
	var err error
	for _, p := range params {
		if p.Label == "" {
			continue
		}
		out, err = sjson.SetBytes(out, escapeKey(p.Label), p.Value)
		if err != nil {
			return "", err
		}
	}
	return string(out), nil
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`!`, `\!`,
	`=`, `\=`,
	`<`, `\<`,
	`>`, `\>`,
	`%`, `\%`,
	`:`, `\:`,
)

// escapeKey turns a label into a single literal sjson path component.
func escapeKey(label string) string {
	return pathEscaper.Replace(label)
}
