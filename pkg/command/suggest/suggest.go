// Package suggest oferece sugestões de comandos e atalhos por papel a partir
// do catálogo, em inglês e hindi.
package suggest

import (
	"sort"
	"strings"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
)

// DefaultLimit é o número de sugestões quando o limite não é informado
const DefaultLimit = 5

// Pesos por campo em que a consulta aparece
const (
	weightPrefix        = 4
	weightCommand       = 3
	weightDescription   = 2
	weightExample       = 1
	weightCategory      = 1
	weightDescriptionHi = 2
	weightTemplateHi    = 2
	weightExampleHi     = 1
	weightCategoryHi    = 1
	weightKeywordHi     = 2
)

// Suggestion é uma sugestão de comando
type Suggestion struct {
	Action        string   `json:"action"`
	Command       string   `json:"command"`
	Template      string   `json:"template"`
	TemplateHi    string   `json:"template_hi"`
	Description   string   `json:"description"`
	DescriptionHi string   `json:"description_hi"`
	Examples      []string `json:"examples"`
	ExamplesHi    []string `json:"examples_hi"`
	Category      string   `json:"category"`
	CategoryHi    string   `json:"category_hi"`
	Score         int      `json:"score"`
}

// Help descreve uma ação para o comando de ajuda
type Help struct {
	Suggestion
	Params         []catalog.ParamSpec `json:"params"`
	Destructive    bool                `json:"destructive"`
	ConfirmMessage string              `json:"confirm_message,omitempty"`
}

// Engine calcula sugestões; não guarda estado além do catálogo
type Engine struct {
	catalog *catalog.Catalog
}

// New cria o motor de sugestões
func New(cat *catalog.Catalog) *Engine {
	return &Engine{catalog: cat}
}

type scored struct {
	d     *catalog.Descriptor
	score int
}

// Suggest ordena os comandos visíveis ao papel pela relevância para a
// consulta. Consulta vazia devolve os comandos populares do papel na ordem
// do catálogo. Empates mantêm a ordem de declaração.
func (e *Engine) Suggest(query string, role command.Role, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := command.Normalize(query)
	visible := e.catalog.Visible(role)

	if q == "" {
		out := make([]Suggestion, 0, limit)
		for _, d := range visible {
			if !d.Popular {
				continue
			}
			out = append(out, toSuggestion(d, 0))
			if len(out) == limit {
				break
			}
		}
		return out
	}

	tokens := strings.Fields(q)
	var hits []scored
	for _, d := range visible {
		if s := score(d, q, tokens); s > 0 {
			hits = append(hits, scored{d: d, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Suggestion, len(hits))
	for i, h := range hits {
		out[i] = toSuggestion(h.d, h.score)
	}
	return out
}

// QuickActions devolve os atalhos estáticos do papel
func (e *Engine) QuickActions(role command.Role) []catalog.QuickAction {
	return e.catalog.QuickActions(role)
}

// Help descreve a ação se ela for visível ao papel
func (e *Engine) Help(action string, role command.Role) (*Help, bool) {
	d, ok := e.catalog.Allowed(role, action)
	if !ok {
		return nil, false
	}
	return &Help{
		Suggestion:     toSuggestion(d, 0),
		Params:         d.Params,
		Destructive:    d.Destructive,
		ConfirmMessage: d.ConfirmMessage,
	}, true
}

func score(d *catalog.Descriptor, q string, tokens []string) int {
	cmd := commandText(d)
	name := strings.ReplaceAll(d.Name, "_", " ")

	s := 0
	if strings.HasPrefix(cmd, q) || strings.HasPrefix(name, q) {
		s += weightPrefix
	}
	if strings.Contains(cmd, q) || strings.Contains(name, q) {
		s += weightCommand
	}
	if contains(d.Description, q) {
		s += weightDescription
	}
	if anyContains(d.Examples, q) {
		s += weightExample
	}
	if contains(d.Category, q) {
		s += weightCategory
	}
	if contains(d.DescriptionHi, q) {
		s += weightDescriptionHi
	}
	if contains(d.TemplateHi, q) {
		s += weightTemplateHi
	}
	if anyContains(d.ExamplesHi, q) {
		s += weightExampleHi
	}
	if contains(d.CategoryHi, q) {
		s += weightCategoryHi
	}
	for _, kw := range d.KeywordsHi {
		kw = command.Normalize(kw)
		if kw != "" && (strings.Contains(kw, q) || strings.Contains(q, kw)) {
			s += weightKeywordHi
			break
		}
	}

	// sobreposição de palavras com o vocabulário do comando
	vocab := vocabulary(d)
	for _, t := range tokens {
		if _, ok := vocab[t]; ok {
			s++
		}
	}
	return s
}

// commandText é o trecho literal do template antes do primeiro placeholder
func commandText(d *catalog.Descriptor) string {
	t := d.Template
	if i := strings.IndexByte(t, '{'); i >= 0 {
		t = t[:i]
	}
	return command.Normalize(t)
}

func vocabulary(d *catalog.Descriptor) map[string]struct{} {
	vocab := make(map[string]struct{})
	add := func(s string) {
		for _, w := range strings.Fields(command.Normalize(s)) {
			if len(w) > 1 && !strings.HasPrefix(w, "{") {
				vocab[w] = struct{}{}
			}
		}
	}
	add(d.Template)
	add(d.TemplateHi)
	add(d.Description)
	for _, ex := range d.Examples {
		add(ex)
	}
	for _, ex := range d.ExamplesHi {
		add(ex)
	}
	return vocab
}

func contains(field, q string) bool {
	return field != "" && strings.Contains(command.Normalize(field), q)
}

func anyContains(fields []string, q string) bool {
	for _, f := range fields {
		if contains(f, q) {
			return true
		}
	}
	return false
}

func toSuggestion(d *catalog.Descriptor, score int) Suggestion {
	return Suggestion{
		Action:        d.Name,
		Command:       commandText(d),
		Template:      d.Template,
		TemplateHi:    d.TemplateHi,
		Description:   d.Description,
		DescriptionHi: d.DescriptionHi,
		Examples:      firstN(d.Examples, 2),
		ExamplesHi:    firstN(d.ExamplesHi, 2),
		Category:      d.Category,
		CategoryHi:    d.CategoryHi,
		Score:         score,
	}
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
