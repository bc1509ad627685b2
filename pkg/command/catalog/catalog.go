// Package catalog carrega a tabela estática de ações suportadas e monta a
// tabela de permissões (papel, ação) usada por todo o pipeline.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hugohenrick/kommand/pkg/command"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Descriptor descreve uma ação; imutável após a carga
type Descriptor struct {
	Name           string         `yaml:"name" json:"name"`
	Entity         string         `yaml:"entity" json:"entity"`
	Description    string         `yaml:"description" json:"description"`
	DescriptionHi  string         `yaml:"description_hi" json:"description_hi"`
	Template       string         `yaml:"template" json:"template"`
	TemplateHi     string         `yaml:"template_hi" json:"template_hi"`
	Examples       []string       `yaml:"examples" json:"examples"`
	ExamplesHi     []string       `yaml:"examples_hi" json:"examples_hi"`
	KeywordsHi     []string       `yaml:"keywords_hi" json:"keywords_hi,omitempty"`
	Category       string         `yaml:"category" json:"category"`
	CategoryHi     string         `yaml:"category_hi" json:"category_hi"`
	Params         []ParamSpec    `yaml:"params" json:"params"`
	Destructive    bool           `yaml:"destructive" json:"destructive"`
	Roles          []command.Role `yaml:"roles" json:"roles"`
	ConfirmMessage string         `yaml:"confirm_message" json:"confirm_message,omitempty"`
	Popular        bool           `yaml:"popular" json:"popular,omitempty"`
}

// Param procura a especificação de um parâmetro pelo nome
func (d *Descriptor) Param(name string) (ParamSpec, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// IDParam retorna o parâmetro que identifica a entidade principal da ação
func (d *Descriptor) IDParam() (ParamSpec, bool) {
	for _, p := range d.Params {
		if p.Entity != "" && p.Entity == d.Entity {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// AllowedFor informa se o papel pode executar a ação
func (d *Descriptor) AllowedFor(role command.Role) bool {
	return slices.Contains(d.Roles, role)
}

// QuickAction é um atalho estático exibido por papel
type QuickAction struct {
	Label   string `yaml:"label" json:"label"`
	LabelHi string `yaml:"label_hi" json:"label_hi"`
	Command string `yaml:"command" json:"command"`
	Icon    string `yaml:"icon" json:"icon"`
}

type document struct {
	Actions      []*Descriptor                  `yaml:"actions"`
	QuickActions map[command.Role][]QuickAction `yaml:"quick_actions"`
}

type tableKey struct {
	role   command.Role
	action string
}

// Catalog é o conjunto de descritores em ordem de declaração
type Catalog struct {
	descriptors []*Descriptor
	byName      map[string]*Descriptor
	table       map[tableKey]*Descriptor
	quick       map[command.Role][]QuickAction
}

var (
	// ErrDuplicateAction indica nome de ação repetido no catálogo
	ErrDuplicateAction = errors.New("duplicate action")
	// ErrInvalidCatalog indica descritor mal formado
	ErrInvalidCatalog = errors.New("invalid catalog")
)

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default carrega o catálogo embutido uma única vez
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Load(bytes.NewReader(defaultCatalog))
	})
	return defaultCat, defaultErr
}

// MustDefault é como Default mas entra em pânico se o catálogo embutido for inválido
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load lê um catálogo YAML e valida cada descritor
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Actions, doc.QuickActions)
}

// New monta o catálogo e a tabela de permissões a partir dos descritores
func New(descriptors []*Descriptor, quick map[command.Role][]QuickAction) (*Catalog, error) {
	c := &Catalog{
		descriptors: descriptors,
		byName:      make(map[string]*Descriptor, len(descriptors)),
		table:       make(map[tableKey]*Descriptor),
		quick:       quick,
	}
	if c.quick == nil {
		c.quick = map[command.Role][]QuickAction{}
	}

	for _, d := range descriptors {
		if err := validateDescriptor(d); err != nil {
			return nil, err
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAction, d.Name)
		}
		c.byName[d.Name] = d
		for _, role := range d.Roles {
			c.table[tableKey{role: role, action: d.Name}] = d
		}
	}

	for role := range c.quick {
		if _, ok := command.ParseRole(string(role)); !ok {
			return nil, fmt.Errorf("%w: quick actions for unknown role %q", ErrInvalidCatalog, role)
		}
	}
	return c, nil
}

func validateDescriptor(d *Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: action without name", ErrInvalidCatalog)
	}
	if len(d.Roles) == 0 {
		return fmt.Errorf("%w: %s has no roles", ErrInvalidCatalog, d.Name)
	}
	for _, role := range d.Roles {
		if r, ok := command.ParseRole(string(role)); !ok || r != role {
			return fmt.Errorf("%w: %s declares unknown role %q", ErrInvalidCatalog, d.Name, role)
		}
	}
	seen := map[string]bool{}
	for _, p := range d.Params {
		if p.Name == "" || seen[p.Name] {
			return fmt.Errorf("%w: %s has an unnamed or repeated parameter", ErrInvalidCatalog, d.Name)
		}
		seen[p.Name] = true
		switch p.Type {
		case TypeInt, TypeFloat, TypeString, TypeBool, TypeDate:
		case TypeEnum:
			if len(p.Enum) == 0 {
				return fmt.Errorf("%w: %s.%s enum without values", ErrInvalidCatalog, d.Name, p.Name)
			}
		default:
			return fmt.Errorf("%w: %s.%s has type %q", ErrInvalidCatalog, d.Name, p.Name, p.Type)
		}
	}
	return nil
}

// Lookup busca uma ação pelo nome, independente do papel
func (c *Catalog) Lookup(name string) (*Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// Allowed é a consulta única na tabela de permissões (papel, ação)
func (c *Catalog) Allowed(role command.Role, action string) (*Descriptor, bool) {
	d, ok := c.table[tableKey{role: role, action: action}]
	return d, ok
}

// Visible lista as ações visíveis ao papel, em ordem de declaração
func (c *Catalog) Visible(role command.Role) []*Descriptor {
	out := make([]*Descriptor, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		if _, ok := c.table[tableKey{role: role, action: d.Name}]; ok {
			out = append(out, d)
		}
	}
	return out
}

// All lista todas as ações em ordem de declaração
func (c *Catalog) All() []*Descriptor {
	return slices.Clone(c.descriptors)
}

// QuickActions devolve os atalhos do papel
func (c *Catalog) QuickActions(role command.Role) []QuickAction {
	return slices.Clone(c.quick[role])
}
