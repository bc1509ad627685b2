// Package plan executa planos de vários passos em sequência, repassando as
// saídas de um passo para os seguintes.
package plan

import (
	"context"
	"fmt"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// Status do passo dentro do plano
type Status string

const (
	StatusSucceeded    Status = "succeeded"
	StatusFailed       Status = "failed"
	StatusNotAttempted Status = "not_attempted"
)

// Plan é a sequência ordenada de passos de um comando composto
type Plan struct {
	Steps []command.Step
}

// StepResult é o resultado de um passo do plano
type StepResult struct {
	StepID string                `json:"step_id"`
	Action string                `json:"action"`
	Status Status                `json:"status"`
	Result *command.ActionResult `json:"result,omitempty"`
}

// Outcome é o resultado do plano inteiro
type Outcome struct {
	Steps   []StepResult `json:"steps"`
	Success bool         `json:"success"`
}

// Failed devolve o primeiro passo que falhou
func (o Outcome) Failed() (StepResult, bool) {
	for _, s := range o.Steps {
		if s.Status == StatusFailed {
			return s, true
		}
	}
	return StepResult{}, false
}

// Results devolve os resultados dos passos executados, na ordem
func (o Outcome) Results() []*command.ActionResult {
	out := make([]*command.ActionResult, 0, len(o.Steps))
	for _, s := range o.Steps {
		if s.Result != nil {
			out = append(out, s.Result)
		}
	}
	return out
}

// StepExecutor executa um passo validado
type StepExecutor interface {
	Execute(ctx context.Context, step command.Step, caller command.Caller) *command.ActionResult
}

// StepBinder revalida um passo após a substituição dos templates
type StepBinder interface {
	BindStep(step command.Step) (command.Step, error)
}

// Runner executa planos
type Runner struct {
	executor StepExecutor
	binder   StepBinder
	log      logger.Logger
}

// NewRunner cria o executor de planos
func NewRunner(executor StepExecutor, binder StepBinder, log logger.Logger) *Runner {
	return &Runner{executor: executor, binder: binder, log: log}
}

// Run executa os passos em ordem. O primeiro passo sem sucesso interrompe o
// plano; os passos seguintes ficam como não tentados. Passos já aplicados
// não são desfeitos.
func (r *Runner) Run(ctx context.Context, p Plan, caller command.Caller) Outcome {
	outcome := Outcome{Steps: make([]StepResult, len(p.Steps)), Success: true}
	outputs := make(map[string]map[string]any, len(p.Steps))

	for i, step := range p.Steps {
		outcome.Steps[i] = StepResult{StepID: step.ID, Action: step.Action, Status: StatusNotAttempted}
	}

	for i, step := range p.Steps {
		res := r.runStep(ctx, step, outputs, caller)
		outcome.Steps[i].Result = res
		if !res.Success {
			outcome.Steps[i].Status = StatusFailed
			outcome.Success = false
			r.log.Info("Plano interrompido",
				"step", step.ID,
				"action", step.Action,
				"attempted", i+1,
				"total", len(p.Steps),
			)
			break
		}
		outcome.Steps[i].Status = StatusSucceeded
	}
	return outcome
}

func (r *Runner) runStep(ctx context.Context, step command.Step, outputs map[string]map[string]any, caller command.Caller) *command.ActionResult {
	params, missing := command.ResolveParams(step.Params, outputs)
	if len(missing) > 0 {
		return command.Failed(step.Action, command.ClarificationNeeded(step.Action, prefixed(step.ID, missing)))
	}

	bound, err := r.binder.BindStep(command.Step{ID: step.ID, Action: step.Action, Params: params})
	if err != nil {
		return command.Failed(step.Action, err)
	}

	res := r.executor.Execute(ctx, bound, caller)
	if res == nil {
		return command.Failed(step.Action, fmt.Errorf("step %s produced no result", step.ID))
	}
	if res.Success {
		outputs[step.ID] = stepOutputs(bound.Params, res.Data)
	}
	return res
}

// stepOutputs junta os parâmetros do passo com os dados do resultado; os
// dados do resultado prevalecem
func stepOutputs(params, data map[string]any) map[string]any {
	out := make(map[string]any, len(params)+len(data))
	for k, v := range params {
		out[k] = v
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func prefixed(stepID string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = stepID + "." + n
	}
	return out
}
