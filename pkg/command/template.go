package command

import (
	"fmt"
	"regexp"
	"sort"
)

var resultsRef = regexp.MustCompile(`^@results\.([A-Za-z0-9_\-]+)\.([A-Za-z0-9_]+)$`)

// ResultTemplate monta a referência à saída de um passo anterior do plano
func ResultTemplate(stepID, key string) string {
	return fmt.Sprintf("@results.%s.%s", stepID, key)
}

// ParseTemplate reconhece um valor "@results.<step>.<key>"
func ParseTemplate(v any) (stepID, key string, ok bool) {
	s, isStr := v.(string)
	if !isStr {
		return "", "", false
	}
	m := resultsRef.FindStringSubmatch(s)
	if len(m) != 3 {
		return "", "", false
	}
	return m[1], m[2], true
}

// ResolveParams substitui as referências de template usando as saídas
// acumuladas. Referências sem saída correspondente são devolvidas em missing,
// em ordem alfabética.
func ResolveParams(params map[string]any, outputs map[string]map[string]any) (resolved map[string]any, missing []string) {
	resolved = make(map[string]any, len(params))
	for name, v := range params {
		stepID, key, ok := ParseTemplate(v)
		if !ok {
			resolved[name] = v
			continue
		}
		out, found := outputs[stepID][key]
		if !found || out == nil {
			missing = append(missing, name)
			continue
		}
		resolved[name] = out
	}
	sort.Strings(missing)
	return resolved, missing
}
