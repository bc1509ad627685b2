// Package binder completa e valida os parâmetros de uma intenção antes da
// execução.
package binder

import (
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/command/session"
)

// Binder resolve referências simbólicas pela memória de sessão e valida os
// valores contra o catálogo. Nunca adivinha: o que não for resolvido volta
// como ClarificationNeeded.
type Binder struct {
	catalog *catalog.Catalog
}

// New cria o binder
func New(cat *catalog.Catalog) *Binder {
	return &Binder{catalog: cat}
}

// Bind devolve uma cópia da intenção com os parâmetros resolvidos e
// convertidos. Templates @results ficam para o executor de planos.
func (b *Binder) Bind(in *command.Intent, mem session.Snapshot) (*command.Intent, error) {
	if in == nil || len(in.Steps) == 0 {
		return nil, command.ParseFailure("nothing to execute")
	}

	out := *in
	out.Steps = make([]command.Step, len(in.Steps))
	out.Missing = nil

	var missing []string
	for i, step := range in.Steps {
		bound, absent, err := b.bindStep(step, mem, in.Compound())
		if err != nil {
			return nil, err
		}
		out.Steps[i] = bound
		missing = append(missing, absent...)
	}

	if len(missing) > 0 {
		return nil, command.ClarificationNeeded(in.Action(), missing)
	}
	return &out, nil
}

// BindStep revalida um passo depois que os templates foram substituídos
// pelas saídas dos passos anteriores
func (b *Binder) BindStep(step command.Step) (command.Step, error) {
	bound, missing, err := b.bindStep(step, session.Snapshot{}, false)
	if err != nil {
		return command.Step{}, err
	}
	if len(missing) > 0 {
		return command.Step{}, command.ClarificationNeeded(step.Action, missing)
	}
	return bound, nil
}

func (b *Binder) bindStep(step command.Step, mem session.Snapshot, compound bool) (command.Step, []string, error) {
	d, ok := b.catalog.Lookup(step.Action)
	if !ok {
		return command.Step{}, nil, command.ParseFailure("unknown action " + step.Action)
	}

	field := func(name string) string {
		if compound {
			return step.ID + "." + name
		}
		return name
	}

	bound := command.Step{ID: step.ID, Action: step.Action, Params: make(map[string]any, len(d.Params))}
	var missing []string

	for _, spec := range d.Params {
		v, present := step.Params[spec.Name]
		if ref, isRef := v.(command.Ref); present && isRef {
			entity := ref.Entity
			if entity == "" {
				entity = spec.Entity
			}
			id, found := mem.Latest(entity)
			if !found {
				missing = append(missing, field(spec.Name))
				continue
			}
			v = id
		}

		if !present || v == nil {
			if !spec.Required {
				continue
			}
			if id, found := mem.Latest(spec.Entity); spec.Entity != "" && found {
				v = id
			} else {
				missing = append(missing, field(spec.Name))
				continue
			}
		}

		if _, _, isTemplate := command.ParseTemplate(v); isTemplate {
			bound.Params[spec.Name] = v
			continue
		}

		val, err := spec.Validate(v)
		if err != nil {
			return command.Step{}, nil, command.ValidationFailure(step.Action, field(spec.Name), spec.Expected(), err)
		}
		bound.Params[spec.Name] = val
	}

	return bound, missing, nil
}
