// Package engine orquestra o pipeline de comandos: interpretação, binding,
// confirmação de ações destrutivas, execução e publicação do resultado.
package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/command/confirm"
	"github.com/hugohenrick/kommand/pkg/command/plan"
	"github.com/hugohenrick/kommand/pkg/command/session"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// Identificadores das respostas de confirmação sem ação conhecida
const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

const tracerName = "github.com/hugohenrick/kommand/pkg/command/engine"

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// Response é a resposta de um comando, de uma confirmação ou de um cancelamento
type Response struct {
	Success              bool              `json:"success"`
	Action               string            `json:"action"`
	Message              string            `json:"message"`
	RequiresConfirmation bool              `json:"requires_confirmation"`
	ConfirmationID       string            `json:"confirmation_id,omitempty"`
	ExpiresAt            *time.Time        `json:"expires_at,omitempty"`
	Data                 map[string]any    `json:"data,omitempty"`
	ErrorKind            command.Kind      `json:"error_kind,omitempty"`
	Missing              []string          `json:"missing,omitempty"`
	Field                string            `json:"field,omitempty"`
	Expected             string            `json:"expected,omitempty"`
	Steps                []plan.StepResult `json:"steps,omitempty"`
	Intent               *command.Intent   `json:"intent,omitempty"`
}

// Resolver interpreta o texto em uma intenção
type Resolver interface {
	Resolve(ctx context.Context, text string, caller command.Caller, mem session.Snapshot) (*command.Intent, error)
}

// ParamBinder completa e valida os parâmetros
type ParamBinder interface {
	Bind(in *command.Intent, mem session.Snapshot) (*command.Intent, error)
	BindStep(step command.Step) (command.Step, error)
}

// Publisher entrega eventos aos observadores
type Publisher interface {
	PublishChange(change *command.EntityChange, data any) int
	PublishResult(res *command.ActionResult) int
}

// Limiter controla a taxa de comandos por chave
type Limiter interface {
	Allow(key string) bool
}

// AuditStatus é a situação final registrada na auditoria
type AuditStatus string

const (
	AuditSucceeded            AuditStatus = "succeeded"
	AuditFailed               AuditStatus = "failed"
	AuditAwaitingConfirmation AuditStatus = "awaiting_confirmation"
	AuditCancelled            AuditStatus = "cancelled"
)

// AuditRecord é o registro de auditoria de um comando
type AuditRecord struct {
	Caller   command.Caller
	Input    string
	Intent   *command.Intent
	Status   AuditStatus
	Response Response
	At       time.Time
}

// AuditSink grava os registros de auditoria
type AuditSink interface {
	Record(ctx context.Context, rec AuditRecord) error
}

// AuditFunc adapta uma função para AuditSink
type AuditFunc func(ctx context.Context, rec AuditRecord) error

// Record implementa AuditSink
func (f AuditFunc) Record(ctx context.Context, rec AuditRecord) error {
	return f(ctx, rec)
}

// Deps reúne os colaboradores do serviço. Publisher, Audit e Limiter são
// opcionais.
type Deps struct {
	Catalog   *catalog.Catalog
	Resolver  Resolver
	Binder    ParamBinder
	Executor  plan.StepExecutor
	Confirm   *confirm.Manager
	Sessions  session.Store
	Publisher Publisher
	Audit     AuditSink
	Limiter   Limiter
	Log       logger.Logger
}

// Service é o ponto de entrada do pipeline
type Service struct {
	catalog   *catalog.Catalog
	resolver  Resolver
	binder    ParamBinder
	executor  plan.StepExecutor
	runner    *plan.Runner
	confirm   *confirm.Manager
	sessions  session.Store
	publisher Publisher
	audit     AuditSink
	limiter   Limiter
	log       logger.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New cria o serviço
func New(d Deps) (*Service, error) {
	switch {
	case d.Catalog == nil:
		return nil, errors.New("engine: catálogo não informado")
	case d.Resolver == nil:
		return nil, errors.New("engine: resolvedor não informado")
	case d.Binder == nil:
		return nil, errors.New("engine: binder não informado")
	case d.Executor == nil:
		return nil, errors.New("engine: executor não informado")
	case d.Confirm == nil:
		return nil, errors.New("engine: gerenciador de confirmações não informado")
	case d.Sessions == nil:
		return nil, errors.New("engine: memória de sessão não informada")
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return &Service{
		catalog:   d.Catalog,
		resolver:  d.Resolver,
		binder:    d.Binder,
		executor:  d.Executor,
		runner:    plan.NewRunner(d.Executor, d.Binder, d.Log),
		confirm:   d.Confirm,
		sessions:  d.Sessions,
		publisher: d.Publisher,
		audit:     d.Audit,
		limiter:   d.Limiter,
		log:       d.Log,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}, nil
}

// Execute interpreta e executa um comando. Ações destrutivas sem token
// válido voltam com requires_confirmation e nada é executado.
func (s *Service) Execute(ctx context.Context, req command.Request) Response {
	ctx, span := s.tracer.Start(ctx, "command.execute", trace.WithAttributes(
		attribute.String("command.role", string(req.Caller.Role)),
		attribute.Int64("command.user_id", req.Caller.UserID),
		attribute.Bool("command.inline_confirmation", req.ConfirmationToken != ""),
	))
	defer span.End()

	resp, in := s.execute(ctx, req)
	s.complete(ctx, span, req.Caller, req.Text, in, resp, statusOf(resp))
	return resp
}

func (s *Service) execute(ctx context.Context, req command.Request) (Response, *command.Intent) {
	caller := req.Caller
	if s.limiter != nil && !s.limiter.Allow(limitKey(caller)) {
		return failure("", command.NewError(command.KindRateLimited, "", "too many commands, please slow down")), nil
	}
	if strings.TrimSpace(req.Text) == "" {
		return failure("", command.ParseFailure("empty command")), nil
	}

	mem, err := s.sessions.Snapshot(ctx, caller.SessionID)
	if err != nil {
		s.log.Warn("Falha ao ler memória da sessão", "session_id", caller.SessionID, "error", err)
		mem = session.Snapshot{}
	}

	in, err := s.resolve(ctx, req.Text, caller, mem)
	if err != nil {
		return failure("", err), nil
	}
	for _, step := range in.Steps {
		if _, ok := s.catalog.Allowed(caller.Role, step.Action); !ok {
			return failure(step.Action, command.PermissionDenied(step.Action, caller.Role)), in
		}
	}

	bound, err := s.bind(ctx, in, mem)
	if err != nil {
		return failure(in.Action(), err), in
	}

	if !s.destructive(bound.Steps) {
		return s.run(ctx, bound.Steps, caller), bound
	}
	if req.ConfirmationToken == "" {
		return s.requestConfirmation(bound, caller), bound
	}
	p, err := s.confirm.Match(req.ConfirmationToken, confirm.Fingerprint(bound.Steps), caller)
	if err != nil {
		return failure(bound.Action(), err), bound
	}
	return s.run(ctx, p.Steps, caller), bound
}

// Confirm consome o token e executa o que estava pendente
func (s *Service) Confirm(ctx context.Context, token string, caller command.Caller) Response {
	ctx, span := s.tracer.Start(ctx, "command.confirm", trace.WithAttributes(
		attribute.String("command.role", string(caller.Role)),
		attribute.Int64("command.user_id", caller.UserID),
	))
	defer span.End()

	p, err := s.confirm.Confirm(token, caller)
	if err != nil {
		resp := failure(ActionConfirm, err)
		s.complete(ctx, span, caller, "", nil, resp, AuditFailed)
		return resp
	}

	in := &command.Intent{Steps: p.Steps}
	resp := s.run(ctx, p.Steps, caller)
	s.complete(ctx, span, caller, "", in, resp, statusOf(resp))
	return resp
}

// Cancel descarta uma confirmação pendente
func (s *Service) Cancel(ctx context.Context, token string, caller command.Caller) Response {
	ctx, span := s.tracer.Start(ctx, "command.cancel")
	defer span.End()

	if err := s.confirm.Cancel(token, caller); err != nil {
		resp := failure(ActionCancel, err)
		s.complete(ctx, span, caller, "", nil, resp, AuditFailed)
		return resp
	}
	resp := Response{Success: true, Action: ActionCancel, Message: "Action cancelled"}
	s.complete(ctx, span, caller, "", nil, resp, AuditCancelled)
	return resp
}

func (s *Service) resolve(ctx context.Context, text string, caller command.Caller, mem session.Snapshot) (*command.Intent, error) {
	ctx, span := s.tracer.Start(ctx, "command.resolve")
	defer span.End()

	in, err := s.resolver.Resolve(ctx, text, caller, mem)
	if err != nil {
		span.SetStatus(codes.Error, string(command.KindOf(err)))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("command.action", in.Action()),
		attribute.String("command.source", string(in.Source)),
		attribute.Int("command.steps", len(in.Steps)),
	)
	return in, nil
}

func (s *Service) bind(ctx context.Context, in *command.Intent, mem session.Snapshot) (*command.Intent, error) {
	_, span := s.tracer.Start(ctx, "command.bind")
	defer span.End()

	bound, err := s.binder.Bind(in, mem)
	if err != nil {
		span.SetStatus(codes.Error, string(command.KindOf(err)))
		return nil, err
	}
	return bound, nil
}

func (s *Service) destructive(steps []command.Step) bool {
	for _, step := range steps {
		if d, ok := s.catalog.Lookup(step.Action); ok && d.Destructive {
			return true
		}
	}
	return false
}

func (s *Service) requestConfirmation(bound *command.Intent, caller command.Caller) Response {
	p, err := s.confirm.Create(bound.Steps, caller)
	if err != nil {
		return failure(bound.Action(), err)
	}
	expires := p.ExpiresAt
	return Response{
		Success:              false,
		Action:               bound.Action(),
		Message:              s.confirmMessage(bound.Steps),
		RequiresConfirmation: true,
		ConfirmationID:       p.Token,
		ExpiresAt:            &expires,
		Intent:               bound,
	}
}

// confirmMessage junta as mensagens de confirmação dos passos destrutivos
func (s *Service) confirmMessage(steps []command.Step) string {
	var msgs []string
	for _, step := range steps {
		d, ok := s.catalog.Lookup(step.Action)
		if !ok || !d.Destructive {
			continue
		}
		if d.ConfirmMessage == "" {
			msgs = append(msgs, fmt.Sprintf("Confirm %s?", d.Name))
			continue
		}
		msgs = append(msgs, placeholder.ReplaceAllStringFunc(d.ConfirmMessage, func(m string) string {
			name := m[1 : len(m)-1]
			v, ok := step.Params[name]
			if !ok {
				return m
			}
			if stepID, key, isTemplate := command.ParseTemplate(v); isTemplate {
				return fmt.Sprintf("(%s from %s)", key, stepID)
			}
			return fmt.Sprint(v)
		}))
	}
	return strings.Join(msgs, " ")
}

func (s *Service) run(ctx context.Context, steps []command.Step, caller command.Caller) Response {
	ctx, span := s.tracer.Start(ctx, "command.run", trace.WithAttributes(
		attribute.Int("command.steps", len(steps)),
	))
	defer span.End()

	if len(steps) == 1 {
		res := s.executor.Execute(ctx, steps[0], caller)
		s.apply(ctx, caller, res)
		return fromResult(res)
	}

	outcome := s.runner.Run(ctx, plan.Plan{Steps: steps}, caller)
	for _, res := range outcome.Results() {
		s.apply(ctx, caller, res)
	}
	return fromOutcome(outcome)
}

// apply publica a mutação e guarda a entidade na memória da sessão
func (s *Service) apply(ctx context.Context, caller command.Caller, res *command.ActionResult) {
	if res == nil || !res.Success {
		return
	}
	if res.Change != nil && s.publisher != nil {
		s.publisher.PublishChange(res.Change, res.Data)
	}

	ref, ok := s.refOf(res)
	if !ok || caller.SessionID == "" {
		return
	}
	ref.At = s.now()
	if err := s.sessions.Remember(ctx, caller.SessionID, ref); err != nil {
		s.log.Warn("Falha ao gravar memória da sessão", "session_id", caller.SessionID, "error", err)
	}
}

func (s *Service) refOf(res *command.ActionResult) (session.EntityRef, bool) {
	if c := res.Change; c != nil {
		if c.Operation == command.OperationDeleted {
			return session.EntityRef{}, false
		}
		return session.EntityRef{Entity: c.Entity, ID: c.ID}, true
	}
	id, ok := res.Data["id"].(int64)
	if !ok || id <= 0 {
		return session.EntityRef{}, false
	}
	d, ok := s.catalog.Lookup(res.Action)
	if !ok || d.Entity == "" {
		return session.EntityRef{}, false
	}
	return session.EntityRef{Entity: d.Entity, ID: id}, true
}

// complete fecha o span, publica o action_result e grava a auditoria
func (s *Service) complete(ctx context.Context, span trace.Span, caller command.Caller, input string, in *command.Intent, resp Response, status AuditStatus) {
	span.SetAttributes(
		attribute.String("command.action", resp.Action),
		attribute.Bool("command.success", resp.Success),
		attribute.String("command.status", string(status)),
	)
	if status == AuditFailed {
		span.SetStatus(codes.Error, string(resp.ErrorKind))
	}

	s.log.Info("Comando processado",
		"user_id", caller.UserID,
		"role", caller.Role,
		"session_id", caller.SessionID,
		"action", resp.Action,
		"status", status,
		"error_kind", resp.ErrorKind,
	)

	if s.publisher != nil {
		s.publisher.PublishResult(&command.ActionResult{
			Success: resp.Success,
			Action:  resp.Action,
			Message: resp.Message,
			Data:    resp.Data,
		})
	}

	if s.audit == nil {
		return
	}
	rec := AuditRecord{
		Caller:   caller,
		Input:    input,
		Intent:   in,
		Status:   status,
		Response: resp,
		At:       s.now(),
	}
	if err := s.audit.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Error("Erro ao gravar auditoria do comando", "action", resp.Action, "error", err)
	}
}

func statusOf(resp Response) AuditStatus {
	switch {
	case resp.RequiresConfirmation:
		return AuditAwaitingConfirmation
	case resp.Success:
		return AuditSucceeded
	default:
		return AuditFailed
	}
}

func limitKey(c command.Caller) string {
	if c.SessionID != "" {
		return c.SessionID
	}
	return fmt.Sprintf("user:%d", c.UserID)
}

func failure(action string, err error) Response {
	cerr := command.AsError(err, action)
	resp := Response{
		Success:   false,
		Action:    cerr.Action,
		Message:   cerr.Message,
		ErrorKind: cerr.Kind,
	}
	if resp.Action == "" {
		resp.Action = action
	}
	describe(&resp, cerr)
	return resp
}

// describe copia os campos ausentes ou o campo inválido do erro
func describe(resp *Response, cerr *command.Error) {
	switch cerr.Kind {
	case command.KindClarificationNeeded:
		resp.Missing = cerr.Fields
	case command.KindValidationFailure:
		if len(cerr.Fields) > 0 {
			resp.Field = cerr.Fields[0]
		}
		resp.Expected = cerr.Expected
	}
}

func fromResult(res *command.ActionResult) Response {
	if res == nil {
		return failure("", errors.New("no result"))
	}
	if !res.Success {
		resp := failure(res.Action, errOf(res))
		resp.Message = res.Message
		return resp
	}
	return Response{
		Success: true,
		Action:  res.Action,
		Message: res.Message,
		Data:    res.Data,
	}
}

func fromOutcome(o plan.Outcome) Response {
	resp := Response{Success: o.Success, Steps: o.Steps}
	if len(o.Steps) > 0 {
		resp.Action = o.Steps[0].Action
	}

	failed, ok := o.Failed()
	if !ok {
		msgs := make([]string, 0, len(o.Steps))
		for _, st := range o.Steps {
			msgs = append(msgs, st.Result.Message)
		}
		resp.Message = strings.Join(msgs, "; ")
		if last := o.Steps[len(o.Steps)-1].Result; last != nil {
			resp.Data = last.Data
		}
		return resp
	}

	done := 0
	for _, st := range o.Steps {
		if st.Status == plan.StatusSucceeded {
			done++
		}
	}
	cerr := command.AsError(errOf(failed.Result), failed.Action)
	resp.ErrorKind = cerr.Kind
	describe(&resp, cerr)
	resp.Message = fmt.Sprintf("Completed %d of %d steps; %s failed: %s", done, len(o.Steps), failed.Action, failed.Result.Message)
	return resp
}

// errOf devolve o erro classificado de um resultado sem sucesso
func errOf(res *command.ActionResult) error {
	if res.Err != nil {
		return res.Err
	}
	return command.NewError(command.KindDomainFailure, res.Action, res.Message)
}
