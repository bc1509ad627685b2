// Package intent transforma texto livre em uma intenção estruturada. O
// caminho primário consulta o colaborador de inferência; o caminho de
// fallback é uma lista ordenada de regras determinísticas.
package intent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/command/session"
	"github.com/hugohenrick/kommand/pkg/llm"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// Valores padrão do caminho primário
const (
	DefaultMinConfidence = 0.6
	fallbackConfidence   = 0.8
	maxClauses           = 5
)

var (
	errLowConfidence = errors.New("inference confidence below threshold")
	errOutOfSubset   = errors.New("inference named an action outside the caller's catalog")
)

var conjunctions = regexp.MustCompile(`(?i)\s+(?:and\s+then|and|then|और\s+फिर|और|फिर|aur\s+phir|aur|phir|,\s*then)\s+`)

// Options configura o resolvedor
type Options struct {
	MinConfidence float64
	Rules         []Rule
}

// Resolver é o resolvedor de intenções
type Resolver struct {
	catalog       *catalog.Catalog
	rules         []Rule
	infer         Inferencer
	schema        *responseSchema
	minConfidence float64
	log           logger.Logger
}

// NewResolver cria o resolvedor. infer pode ser nil; nesse caso apenas o
// casador determinístico é usado.
func NewResolver(cat *catalog.Catalog, infer Inferencer, log logger.Logger, opts Options) (*Resolver, error) {
	schema, err := loadResponseSchema()
	if err != nil {
		return nil, err
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}
	if opts.Rules == nil {
		opts.Rules = DefaultRules()
	}
	for _, rule := range opts.Rules {
		if _, ok := cat.Lookup(rule.Action); !ok {
			return nil, fmt.Errorf("rule for unknown action %q", rule.Action)
		}
	}
	return &Resolver{
		catalog:       cat,
		rules:         opts.Rules,
		infer:         infer,
		schema:        schema,
		minConfidence: opts.MinConfidence,
		log:           log,
	}, nil
}

// Resolve interpreta o texto para o papel do caller. Falha do caminho
// primário (erro, timeout, pool cheio, baixa confiança) cai no fallback.
func (r *Resolver) Resolve(ctx context.Context, text string, caller command.Caller, mem session.Snapshot) (*command.Intent, error) {
	canonical := command.Canonical(text)
	if canonical == "" {
		return nil, command.ParseFailure("empty command")
	}

	if r.infer != nil {
		in, err := r.primary(ctx, canonical, caller.Role, mem)
		switch {
		case err == nil:
			return in, nil
		case errors.Is(err, errOutOfSubset):
			r.log.Warn("Inferência citou ação fora do catálogo do papel", "role", caller.Role, "error", err)
			return nil, command.ParseFailure("command not recognized for your role, please rephrase")
		default:
			r.log.Debug("Caminho primário indisponível, usando fallback", "error", err)
		}
	}

	return r.Match(canonical, caller.Role)
}

func (r *Resolver) primary(ctx context.Context, text string, role command.Role, mem session.Snapshot) (*command.Intent, error) {
	visible := r.catalog.Visible(role)
	prompt := buildPrompt(text, role, visible, mem)

	raw, err := r.infer.Infer(ctx, prompt, r.schema.raw)
	if err != nil {
		return nil, err
	}
	resp, err := r.schema.decode(llm.StripFences(raw))
	if err != nil {
		return nil, err
	}
	if resp.Confidence < r.minConfidence {
		return nil, fmt.Errorf("%w: %.2f", errLowConfidence, resp.Confidence)
	}

	steps := make([]command.Step, 0, len(resp.Steps))
	for i, s := range resp.Steps {
		d, ok := r.catalog.Allowed(role, s.Action)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errOutOfSubset, s.Action)
		}
		steps = append(steps, command.Step{
			ID:     stepID(i),
			Action: d.Name,
			Params: cleanParams(d, s.Params),
		})
	}

	return &command.Intent{
		Steps:      steps,
		Source:     command.SourcePrimary,
		Confidence: resp.Confidence,
		Missing:    missingParams(r.catalog, steps),
	}, nil
}

// cleanParams descarta parâmetros que a ação não declara e converte
// "@ref:<entity>" em referência simbólica
func cleanParams(d *catalog.Descriptor, in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for name, v := range in {
		spec, ok := d.Param(name)
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr {
			if entity, isRef := strings.CutPrefix(s, refPrefix); isRef {
				if entity == "" {
					entity = spec.Entity
				}
				out[name] = command.Ref{Entity: entity}
				continue
			}
		}
		out[name] = v
	}
	return out
}

// Match é o casador determinístico. Textos compostos são divididos nas
// conjunções e cada oração precisa casar. O texto inteiro só é aceito como
// comando único quando o padrão vencedor cobre a conjunção (busca em texto
// livre); fora isso a oração que não casou gera ParseFailure. Ações do
// catálogo fora do papel geram PermissionDenied.
func (r *Resolver) Match(text string, role command.Role) (*command.Intent, error) {
	text = command.Canonical(text)

	var steps []command.Step
	clauses := splitClauses(text)
	switch {
	case len(clauses) > maxClauses:
		step, ok := r.matchSpanning(text)
		if !ok {
			return nil, command.ParseFailure(fmt.Sprintf("too many steps in one command, at most %d", maxClauses))
		}
		steps = []command.Step{step}
	case len(clauses) > 1:
		var failed string
		steps, failed = r.matchClauses(clauses)
		if failed != "" {
			step, ok := r.matchSpanning(text)
			if !ok {
				return nil, command.ParseFailure(fmt.Sprintf("could not understand %q, please rephrase", failed))
			}
			steps = []command.Step{step}
		}
	default:
		step, _, ok := r.matchOne(text)
		if !ok {
			return nil, command.ParseFailure("could not understand the command, please rephrase")
		}
		step.ID = stepID(0)
		steps = []command.Step{step}
	}

	for _, s := range steps {
		if _, ok := r.catalog.Allowed(role, s.Action); !ok {
			return nil, command.PermissionDenied(s.Action, role)
		}
	}

	return &command.Intent{
		Steps:      steps,
		Source:     command.SourceFallback,
		Confidence: fallbackConfidence,
		Missing:    missingParams(r.catalog, steps),
	}, nil
}

func splitClauses(text string) []string {
	parts := conjunctions.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// matchSpanning casa o texto inteiro e só aceita o resultado se o trecho
// casado contiver alguma conjunção
func (r *Resolver) matchSpanning(text string) (command.Step, bool) {
	step, span, ok := r.matchOne(text)
	if !ok {
		return command.Step{}, false
	}
	for _, c := range conjunctions.FindAllStringIndex(text, -1) {
		if span[0] <= c[0] && c[1] <= span[1] {
			step.ID = stepID(0)
			return step, true
		}
	}
	return command.Step{}, false
}

// matchClauses casa cada oração; devolve a primeira que não casou
func (r *Resolver) matchClauses(clauses []string) ([]command.Step, string) {
	steps := make([]command.Step, 0, len(clauses))
	for i, clause := range clauses {
		var (
			step command.Step
			ok   bool
		)
		if i > 0 {
			step, ok = r.continueList(clause, steps[i-1])
		}
		if !ok {
			step, _, ok = r.matchOne(clause)
		}
		if !ok {
			return nil, clause
		}
		step.ID = stepID(i)
		if i > 0 {
			r.inherit(&step, steps[i-1])
		}
		steps = append(steps, step)
	}
	return steps, ""
}

var listItem = regexp.MustCompile(`(?i)^(?:(?P<noun>\S+)\s*(?:no\.?\s*|number\s*|नंबर\s*)?)?#?(?P<id>\d+)$`)

// nouns por entidade para as continuações de lista
var entityNouns = map[string]*regexp.Regexp{
	"order":   compile(`^(?:` + orderNouns + `)$`)[0],
	"product": compile(`^(?:` + productNouns + `)$`)[0],
	"shop":    compile(`^(?:` + shopNouns + `)$`)[0],
	"user":    compile(`^(?:` + userNouns + `)$`)[0],
}

// continueList trata orações que só trazem outro id ("cancel order 1 and 2",
// "delete product 1 and product 2"): repete a ação anterior com o novo id
func (r *Resolver) continueList(clause string, prev command.Step) (command.Step, bool) {
	m := listItem.FindStringSubmatch(clause)
	if m == nil {
		return command.Step{}, false
	}
	d, _ := r.catalog.Lookup(prev.Action)
	idParam, ok := d.IDParam()
	if !ok {
		return command.Step{}, false
	}
	if noun := m[listItem.SubexpIndex("noun")]; noun != "" {
		re, known := entityNouns[idParam.Entity]
		if !known || !re.MatchString(noun) {
			return command.Step{}, false
		}
	}
	params := make(map[string]any, len(prev.Params))
	for k, v := range prev.Params {
		params[k] = v
	}
	params[idParam.Name] = m[listItem.SubexpIndex("id")]
	return command.Step{Action: prev.Action, Params: params}, true
}

// inherit preenche o id da entidade de uma oração posterior com a saída da
// oração anterior quando ambas tratam da mesma entidade
func (r *Resolver) inherit(step *command.Step, prev command.Step) {
	d, _ := r.catalog.Lookup(step.Action)
	idParam, ok := d.IDParam()
	if !ok {
		return
	}
	if _, present := step.Params[idParam.Name]; present {
		return
	}
	prevDesc, _ := r.catalog.Lookup(prev.Action)
	if prevDesc.Entity != idParam.Entity {
		return
	}
	step.Params[idParam.Name] = command.ResultTemplate(prev.ID, idParam.Name)
}

// matchOne aplica as regras em ordem. Dentro da regra vencedora fica o padrão
// que extraiu mais parâmetros; empate mantém o primeiro. Devolve também o
// trecho casado por esse padrão.
func (r *Resolver) matchOne(text string) (command.Step, [2]int, bool) {
	for _, rule := range r.rules {
		d, _ := r.catalog.Lookup(rule.Action)
		var (
			best map[string]any
			span [2]int
		)
		for _, re := range rule.Patterns {
			loc := re.FindStringSubmatchIndex(text)
			if loc == nil {
				continue
			}
			params := extract(d, re, submatches(text, loc))
			if best == nil || len(params) > len(best) {
				best = params
				span = [2]int{loc[0], loc[1]}
			}
		}
		if best == nil {
			continue
		}
		if rule.Extract != nil {
			rule.Extract(best)
		}
		return command.Step{Action: rule.Action, Params: best}, span, true
	}
	return command.Step{}, [2]int{}, false
}

func submatches(text string, loc []int) []string {
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

func extract(d *catalog.Descriptor, re *regexp.Regexp, m []string) map[string]any {
	params := make(map[string]any)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" || m[i] == "" {
			continue
		}
		val := strings.TrimSpace(m[i])
		if base, isRef := strings.CutSuffix(name, "_ref"); isRef {
			if spec, ok := d.Param(base); ok && spec.Entity != "" {
				params[base] = command.Ref{Entity: spec.Entity}
			}
			continue
		}
		spec, ok := d.Param(name)
		if !ok {
			continue
		}
		switch spec.Type {
		case catalog.TypeBool:
			params[name] = true
		case catalog.TypeEnum:
			params[name] = canonicalEnum(val, spec.Enum)
		default:
			params[name] = val
		}
	}
	return params
}

// missingParams lista os obrigatórios ausentes: "param" em intenções simples,
// "sN.param" em planos
func missingParams(cat *catalog.Catalog, steps []command.Step) []string {
	var missing []string
	for _, s := range steps {
		d, ok := cat.Lookup(s.Action)
		if !ok {
			continue
		}
		for _, p := range d.Params {
			if !p.Required {
				continue
			}
			if _, present := s.Params[p.Name]; present {
				continue
			}
			if len(steps) > 1 {
				missing = append(missing, s.ID+"."+p.Name)
			} else {
				missing = append(missing, p.Name)
			}
		}
	}
	return missing
}

func stepID(i int) string {
	return fmt.Sprintf("s%d", i+1)
}
